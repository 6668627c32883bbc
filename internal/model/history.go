package model

import (
	"time"

	"gorm.io/gorm"
)

type History struct {
	gorm.Model
	EndpointID  string        `gorm:"index;not null"`
	Addr        string        `gorm:"not null"`
	Status      OutcomeStatus `gorm:"index;not null"`
	Source      string
	Destination string
	Transferred int
	Unchanged   int
	Bytes       int64
	ErrMsg      string
	StartedAt   time.Time `gorm:"not null"`
	FinishedAt  time.Time `gorm:"not null"`
}
