// Package state reads and writes the persisted endpoint set and schedule
// time as a single JSON document.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"ftpsched/internal/model"
	"ftpsched/internal/util"
	"io/fs"
	"os"
	"sync"
)

// File persists model.State at a fixed path. Every Save overwrites the
// whole document through a temp file and rename.
type File struct {
	path string

	mu   sync.Mutex
	last []byte
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Load returns the default state when the file does not exist yet.
func (f *File) Load() (model.State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewState(), nil
	}
	if err != nil {
		return model.State{}, fmt.Errorf("failed to read state: %w", err)
	}

	st, err := Decode(data)
	if err != nil {
		return model.State{}, err
	}

	f.remember(data)
	return st, nil
}

func (f *File) Save(st model.State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := util.AtomicWrite(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	f.last = data
	return nil
}

// IsOwnWrite reports whether data is exactly what this process last wrote
// or read, which lets the watcher ignore its own saves.
func (f *File) IsOwnWrite(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last != nil && bytes.Equal(f.last, data)
}

func (f *File) remember(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = data
}

func Encode(st model.State) ([]byte, error) {
	st = st.Clone()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	return append(data, '\n'), nil
}

func Decode(data []byte) (model.State, error) {
	st := model.NewState()
	if err := json.Unmarshal(data, &st); err != nil {
		return model.State{}, fmt.Errorf("failed to decode state: %w", err)
	}

	return st.Clone(), nil
}
