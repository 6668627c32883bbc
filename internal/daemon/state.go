package daemon

import (
	"context"
	"sync"
	"time"
)

type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// BatchState tracks the batch currently in flight.
type BatchState struct {
	mu        sync.RWMutex
	Trigger   Trigger
	StartedAt time.Time
	Endpoints int
	Done      int
	cancel    context.CancelFunc
}

type BatchSnapshot struct {
	Trigger   Trigger   `json:"trigger"`
	StartedAt time.Time `json:"started_at"`
	Endpoints int       `json:"endpoints"`
	Done      int       `json:"done"`
}

func NewBatchState(trigger Trigger, endpoints int, cancel context.CancelFunc) *BatchState {
	return &BatchState{
		Trigger:   trigger,
		StartedAt: time.Now(),
		Endpoints: endpoints,
		cancel:    cancel,
	}
}

func (s *BatchState) RecordOutcome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Done++
}

func (s *BatchState) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *BatchState) Snapshot() BatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BatchSnapshot{
		Trigger:   s.Trigger,
		StartedAt: s.StartedAt,
		Endpoints: s.Endpoints,
		Done:      s.Done,
	}
}
