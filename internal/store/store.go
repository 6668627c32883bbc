// Package store is the in-memory, ordered set of endpoint configurations
// plus the schedule time. Every accepted mutation is validated first and
// persisted synchronously before it becomes visible.
package store

import (
	"errors"
	"fmt"
	"ftpsched/internal/model"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("endpoint not found")

type Persister interface {
	Save(state model.State) error
}

type PersistFunc func(state model.State) error

func (f PersistFunc) Save(state model.State) error {
	return f(state)
}

// PersistError means the mutation was not applied because it could not be saved.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist state: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type Defaults struct {
	LocalPath string
}

type Store struct {
	mu        sync.RWMutex
	state     model.State
	persister Persister
	defaults  Defaults
	newID     func() string
}

func New(persister Persister, defaults Defaults) *Store {
	return &Store{
		state:     model.NewState(),
		persister: persister,
		defaults:  defaults,
		newID:     uuid.NewString,
	}
}

// Replace swaps in a loaded state wholesale. It rejects the whole state if
// any endpoint is invalid. Endpoints loaded without an ID get one, and only
// in that case is the state written back.
func (s *Store) Replace(state model.State) error {
	next := state.Clone()

	assigned := false
	for i := range next.Endpoints {
		if err := ValidateEndpoint(next.Endpoints[i]); err != nil {
			return fmt.Errorf("endpoint %d: %w", i, err)
		}
		if next.Endpoints[i].ID == "" {
			next.Endpoints[i].ID = s.newID()
			assigned = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if assigned {
		if err := s.persister.Save(next); err != nil {
			return &PersistError{Err: err}
		}
	}

	s.state = next
	return nil
}

func (s *Store) State() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Snapshot returns a copy of the endpoints in stored order. Callers may
// iterate it while the store is being mutated.
func (s *Store) Snapshot() []model.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Endpoints)
}

func (s *Store) Get(id string) (model.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return model.Endpoint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return s.state.Endpoints[i], nil
}

func (s *Store) ScheduleTime() model.TimeOfDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ScheduleTime
}

func (s *Store) LogPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LogPath
}

func (s *Store) AddDefault() (model.Endpoint, error) {
	ep := model.Endpoint{
		ID:         s.newID(),
		Enabled:    true,
		Protocol:   model.ProtocolFTP,
		Host:       "127.0.0.1",
		Port:       21,
		RemotePath: "/",
		LocalPath:  s.defaults.LocalPath,
	}
	if err := ValidateEndpoint(ep); err != nil {
		return model.Endpoint{}, err
	}

	err := s.mutate(func(st *model.State) error {
		st.Endpoints = append(st.Endpoints, ep)
		return nil
	})
	if err != nil {
		return model.Endpoint{}, err
	}

	return ep, nil
}

func (s *Store) Remove(id string) error {
	return s.mutate(func(st *model.State) error {
		i := slices.IndexFunc(st.Endpoints, func(ep model.Endpoint) bool { return ep.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		st.Endpoints = slices.Delete(st.Endpoints, i, i+1)
		return nil
	})
}

func (s *Store) SetEnabled(id string, enabled bool) error {
	return s.update(id, func(ep *model.Endpoint) error {
		ep.Enabled = enabled
		return nil
	})
}

func (s *Store) SetHost(id, host string) error {
	if err := ValidateHost(host); err != nil {
		return err
	}

	return s.update(id, func(ep *model.Endpoint) error {
		ep.Host = host
		return nil
	})
}

func (s *Store) SetPort(id string, port int) error {
	if err := ValidatePort(port); err != nil {
		return err
	}

	return s.update(id, func(ep *model.Endpoint) error {
		ep.Port = port
		return nil
	})
}

func (s *Store) SetRemotePath(id, remotePath string) error {
	if err := ValidateRemotePath(remotePath); err != nil {
		return err
	}

	return s.update(id, func(ep *model.Endpoint) error {
		ep.RemotePath = remotePath
		return nil
	})
}

func (s *Store) SetLocalPath(id, localPath string) error {
	if err := ValidateLocalPath(localPath); err != nil {
		return err
	}

	return s.update(id, func(ep *model.Endpoint) error {
		ep.LocalPath = localPath
		return nil
	})
}

func (s *Store) SetProtocol(id string, protocol model.Protocol) error {
	if err := ValidateProtocol(protocol); err != nil {
		return err
	}

	return s.update(id, func(ep *model.Endpoint) error {
		ep.Protocol = protocol
		return nil
	})
}

// Update applies every change in apply to one endpoint, validates the result
// as a whole and persists once. Nothing is stored if any field is invalid.
func (s *Store) Update(id string, apply func(ep *model.Endpoint)) (model.Endpoint, error) {
	var updated model.Endpoint
	err := s.update(id, func(ep *model.Endpoint) error {
		apply(ep)
		if err := ValidateEndpoint(*ep); err != nil {
			return err
		}
		updated = *ep
		return nil
	})
	if err != nil {
		return model.Endpoint{}, err
	}

	return updated, nil
}

func (s *Store) SetScheduleTime(t model.TimeOfDay) error {
	if _, err := model.ParseTimeOfDay(t.String()); err != nil {
		return &ValidationError{Field: "schedule_time", Value: t.String(), Reason: "not a valid time of day"}
	}

	return s.mutate(func(st *model.State) error {
		st.ScheduleTime = t
		return nil
	})
}

func (s *Store) SetLogPath(path string) error {
	if err := ValidateLocalPath(path); err != nil {
		return &ValidationError{Field: "log_path", Value: `""`, Reason: "must not be empty"}
	}

	return s.mutate(func(st *model.State) error {
		st.LogPath = path
		return nil
	})
}

func (s *Store) update(id string, apply func(ep *model.Endpoint) error) error {
	return s.mutate(func(st *model.State) error {
		i := slices.IndexFunc(st.Endpoints, func(ep model.Endpoint) bool { return ep.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return apply(&st.Endpoints[i])
	})
}

// mutate applies change to a copy, persists the copy and only then swaps it
// in, so a failed save leaves the store exactly as it was.
func (s *Store) mutate(change func(st *model.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := change(&next); err != nil {
		return err
	}

	if err := s.persister.Save(next); err != nil {
		return &PersistError{Err: err}
	}

	s.state = next
	return nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.state.Endpoints, func(ep model.Endpoint) bool { return ep.ID == id })
}
