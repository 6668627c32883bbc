package transfer

import (
	"context"
	"errors"
	"fmt"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"ftpsched/internal/util"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Entry struct {
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// RemoteFS is the minimal remote surface a protocol adapter provides. The
// tree walk and the update decision live in Mirror and are shared.
type RemoteFS interface {
	Stat(ctx context.Context, remotePath string) (Entry, error)
	List(ctx context.Context, remoteDir string) ([]Entry, error)
	Open(ctx context.Context, remotePath string) (io.ReadCloser, error)
	Close() error
}

// aborter is implemented by adapters whose Close is not safe to call while
// another goroutine is mid-transfer.
type aborter interface {
	Abort()
}

type MirrorOptions struct {
	IgnoreList []string
	Resolver   *Resolver
}

// Mirror implements Conn on top of a RemoteFS.
type Mirror struct {
	fs       RemoteFS
	ignore   []string
	resolver *Resolver
}

func NewMirror(fs RemoteFS, opts MirrorOptions) *Mirror {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewResolver(model.StrategyRemoteWins)
	}

	return &Mirror{fs: fs, ignore: opts.IgnoreList, resolver: resolver}
}

func (m *Mirror) IsDir(ctx context.Context, remotePath string) (bool, error) {
	defer m.abortOnCancel(ctx)()

	e, err := m.fs.Stat(ctx, remotePath)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, &RemoteError{Op: "stat", Path: remotePath, Err: err}
	}

	return e.IsDir, nil
}

// SyncDir walks the remote tree breadth-first and copies files into
// localRoot, creating the local directory layout as it goes. Nothing local
// is ever deleted.
func (m *Mirror) SyncDir(ctx context.Context, localRoot, remotePath string, mode Mode) (model.TransferStats, error) {
	defer m.abortOnCancel(ctx)()

	var stats model.TransferStats
	if err := util.EnsureDir(localRoot); err != nil {
		return stats, &TransferError{Path: localRoot, Err: err}
	}

	root := path.Clean(remotePath)
	queue := []string{root}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		dir := queue[0]
		queue = queue[1:]

		entries, err := m.fs.List(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			return stats, &RemoteError{Op: "list", Path: dir, Err: err}
		}

		for _, e := range entries {
			rel := strings.TrimPrefix(strings.TrimPrefix(e.Path, root), "/")
			if rel == "" || shouldIgnore(rel, m.ignore) {
				continue
			}

			local := filepath.Join(localRoot, filepath.FromSlash(rel))
			if e.IsDir {
				if err := util.EnsureDir(local); err != nil {
					return stats, &TransferError{Path: e.Path, Err: err}
				}
				queue = append(queue, e.Path)
				continue
			}

			fileStats, err := m.fetch(ctx, e, local, mode)
			stats.Add(fileStats)
			if err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

func (m *Mirror) DownloadFile(ctx context.Context, localPath, remotePath string, mode Mode) (model.TransferStats, error) {
	defer m.abortOnCancel(ctx)()

	e, err := m.fs.Stat(ctx, remotePath)
	if err != nil {
		if ctx.Err() != nil {
			return model.TransferStats{}, ctx.Err()
		}
		return model.TransferStats{}, &RemoteError{Op: "stat", Path: remotePath, Err: err}
	}
	if e.IsDir {
		return model.TransferStats{}, &TransferError{Path: remotePath, Err: errors.New("is a directory")}
	}

	return m.fetch(ctx, e, localPath, mode)
}

func (m *Mirror) Close() error {
	return m.fs.Close()
}

func (m *Mirror) fetch(ctx context.Context, e Entry, local string, mode Mode) (model.TransferStats, error) {
	if err := ctx.Err(); err != nil {
		return model.TransferStats{}, err
	}

	if mode == ModeUpdate {
		if info, err := os.Stat(local); err == nil {
			if upToDate(info, e) {
				logger.Log.Debug("unchanged",
					zap.String("remote", e.Path),
					zap.String("local", local))
				return model.TransferStats{Unchanged: 1}, nil
			}

			if conflict := m.resolver.DetectConflict(local, info, e); conflict != nil {
				proceed, err := m.resolver.Resolve(conflict)
				if err != nil {
					return model.TransferStats{}, &TransferError{Path: e.Path, Err: err}
				}
				if !proceed {
					return model.TransferStats{Unchanged: 1}, nil
				}
			}
		}
	}

	rc, err := m.fs.Open(ctx, e.Path)
	if err != nil {
		if ctx.Err() != nil {
			return model.TransferStats{}, ctx.Err()
		}
		return model.TransferStats{}, &TransferError{Path: e.Path, Err: err}
	}

	n, err := util.AtomicWrite(local, &contextReader{ctx: ctx, r: rc})
	closeErr := rc.Close()
	if err != nil {
		if ctx.Err() != nil {
			return model.TransferStats{}, ctx.Err()
		}
		return model.TransferStats{}, &TransferError{Path: e.Path, Err: err}
	}
	if closeErr != nil {
		return model.TransferStats{}, &TransferError{Path: e.Path, Err: fmt.Errorf("failed to finish download: %w", closeErr)}
	}

	if !e.ModTime.IsZero() {
		if err := os.Chtimes(local, e.ModTime, e.ModTime); err != nil {
			logger.Log.Warn("failed to set modification time",
				zap.String("path", local),
				zap.Error(err))
		}
	}

	logger.Log.Debug("downloaded",
		zap.String("remote", e.Path),
		zap.String("local", local),
		zap.Int64("bytes", n))

	return model.TransferStats{Transferred: 1, Bytes: n}, nil
}

// abortOnCancel closes the remote connection when ctx is cancelled, which
// unblocks any network read in progress. The returned func detaches it.
func (m *Mirror) abortOnCancel(ctx context.Context) func() {
	stop := context.AfterFunc(ctx, func() {
		if a, ok := m.fs.(aborter); ok {
			a.Abort()
			return
		}
		_ = m.fs.Close()
	})

	return func() { stop() }
}

func upToDate(local os.FileInfo, remote Entry) bool {
	if local.IsDir() || local.Size() != remote.Size {
		return false
	}

	return remote.ModTime.IsZero() || !remote.ModTime.After(local.ModTime())
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	return r.r.Read(p)
}
