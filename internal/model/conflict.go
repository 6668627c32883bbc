package model

import "time"

// ConflictStrategy decides what happens when the local copy of a remote file
// was modified after the remote one.
type ConflictStrategy string

const (
	StrategyRemoteWins ConflictStrategy = "REMOTE_WINS"
	StrategyLocalWins  ConflictStrategy = "LOCAL_WINS"
	StrategyBackup     ConflictStrategy = "BACKUP"
)

func (s ConflictStrategy) Valid() bool {
	switch s {
	case StrategyRemoteWins, StrategyLocalWins, StrategyBackup:
		return true
	}
	return false
}

type ConflictInfo struct {
	Path          string
	LocalModTime  time.Time
	RemoteModTime time.Time
	Strategy      ConflictStrategy
	Resolved      bool
	BackupPath    string
}
