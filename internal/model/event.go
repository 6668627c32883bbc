package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventWrite  EventType = "WRITE"
)

// FileEvent is a change notification for a watched file.
type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}
