package model

import "slices"

// State is everything persisted between runs. Scheduler running state is
// process-local and deliberately absent.
type State struct {
	Endpoints    []Endpoint `json:"endpoints"`
	ScheduleTime TimeOfDay  `json:"schedule_time"`
	LogPath      string     `json:"log_path,omitempty"`
}

func NewState() State {
	return State{
		Endpoints:    []Endpoint{},
		ScheduleTime: DefaultScheduleTime,
	}
}

func (s State) Clone() State {
	s.Endpoints = slices.Clone(s.Endpoints)
	if s.Endpoints == nil {
		s.Endpoints = []Endpoint{}
	}

	return s
}
