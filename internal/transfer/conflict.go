package transfer

import (
	"fmt"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type Resolver struct {
	strategy model.ConflictStrategy
	now      func() time.Time
}

func NewResolver(strategy model.ConflictStrategy) *Resolver {
	if strategy == "" {
		strategy = model.StrategyRemoteWins
	}

	return &Resolver{strategy: strategy, now: time.Now}
}

// DetectConflict reports a conflict when the local copy differs from the
// remote entry and was modified after it.
func (r *Resolver) DetectConflict(localPath string, local os.FileInfo, remote Entry) *model.ConflictInfo {
	if remote.ModTime.IsZero() || !local.ModTime().After(remote.ModTime) {
		return nil
	}

	return &model.ConflictInfo{
		Path:          localPath,
		LocalModTime:  local.ModTime(),
		RemoteModTime: remote.ModTime,
		Strategy:      r.strategy,
	}
}

// Resolve returns true when the remote copy should be downloaded over the local one.
func (r *Resolver) Resolve(conflict *model.ConflictInfo) (bool, error) {
	logger.Log.Warn("local copy modified after remote",
		zap.String("path", conflict.Path),
		zap.String("strategy", string(r.strategy)),
		zap.Time("local_mod", conflict.LocalModTime),
		zap.Time("remote_mod", conflict.RemoteModTime))

	switch r.strategy {
	case model.StrategyRemoteWins:
		conflict.Resolved = true
		return true, nil

	case model.StrategyLocalWins:
		logger.Log.Info("conflict skipped, keeping local copy",
			zap.String("path", conflict.Path))
		conflict.Resolved = false
		return false, nil

	case model.StrategyBackup:
		if err := r.backup(conflict); err != nil {
			return false, err
		}
		conflict.Resolved = true
		return true, nil

	default:
		return false, fmt.Errorf("unknown conflict strategy: %s", r.strategy)
	}
}

func (r *Resolver) backup(conflict *model.ConflictInfo) error {
	timestamp := r.now().Format("20060102_150405")
	ext := filepath.Ext(conflict.Path)
	base := conflict.Path[:len(conflict.Path)-len(ext)]
	backupPath := fmt.Sprintf("%s.conflict_%s%s", base, timestamp, ext)

	if err := os.Rename(conflict.Path, backupPath); err != nil {
		return fmt.Errorf("failed to backup %s: %w", conflict.Path, err)
	}

	conflict.BackupPath = backupPath
	logger.Log.Info("conflict backup created",
		zap.String("original", conflict.Path),
		zap.String("backup", backupPath))

	return nil
}
