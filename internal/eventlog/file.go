package eventlog

import (
	"fmt"
	"ftpsched/internal/logger"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02 15:04"

// FileSink appends "<date> <time> <line>" records to a log file. Write
// failures are reported to the process logger and never to the caller.
type FileSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
	now  func() time.Time
}

func NewFileSink(path string) (*FileSink, error) {
	s := &FileSink{now: time.Now}
	if err := s.SetPath(path); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetPath switches to another log file, leaving the previous one intact.
func (s *FileSink) SetPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f != nil {
		_ = s.f.Close()
	}
	s.f = f
	s.path = path
	return nil
}

func (s *FileSink) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return
	}

	if _, err := fmt.Fprintf(s.f, "%s %s\n", s.now().Format(timestampLayout), line); err != nil {
		logger.Log.Warn("failed to write event log",
			zap.String("path", s.path),
			zap.Error(err))
	}
}

func (s *FileSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return
	}

	if err := s.f.Truncate(0); err != nil {
		logger.Log.Warn("failed to clear event log",
			zap.String("path", s.path),
			zap.Error(err))
	}
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}

	err := s.f.Close()
	s.f = nil
	return err
}
