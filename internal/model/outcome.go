package model

import "time"

type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "SUCCESS"
	OutcomeSkipped   OutcomeStatus = "SKIPPED"
	OutcomeCancelled OutcomeStatus = "CANCELLED"
	OutcomeFailed    OutcomeStatus = "FAILED"
)

type TransferStats struct {
	Transferred int   `json:"transferred"`
	Unchanged   int   `json:"unchanged"`
	Bytes       int64 `json:"bytes"`
}

func (s *TransferStats) Add(o TransferStats) {
	s.Transferred += o.Transferred
	s.Unchanged += o.Unchanged
	s.Bytes += o.Bytes
}

// Outcome is the result of one endpoint within a batch.
type Outcome struct {
	Endpoint    Endpoint      `json:"endpoint"`
	Status      OutcomeStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	Source      string        `json:"source,omitempty"`
	Destination string        `json:"destination,omitempty"`
	Stats       TransferStats `json:"stats"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}
