// Package transfer is the file-transfer capability used by sync jobs: dial an
// endpoint, ask whether a remote path is a directory, and mirror a remote
// tree or a single file into local storage.
package transfer

import (
	"context"
	"fmt"
	"ftpsched/internal/model"
)

type Mode int

const (
	// ModeUpdate transfers only entries that are missing locally or differ
	// from the remote copy.
	ModeUpdate Mode = iota
	// ModeOverwrite transfers every entry.
	ModeOverwrite
)

func (m Mode) String() string {
	if m == ModeOverwrite {
		return "overwrite"
	}

	return "update"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "update":
		return ModeUpdate, nil
	case "overwrite":
		return ModeOverwrite, nil
	default:
		return ModeUpdate, fmt.Errorf("unknown mode %q", s)
	}
}

type Credentials struct {
	Username string
	Password string
}

type Target struct {
	Protocol model.Protocol
	Host     string
	Port     int
}

func TargetOf(ep model.Endpoint) Target {
	return Target{Protocol: ep.Scheme(), Host: ep.Host, Port: ep.Port}
}

// Dialer opens one connection per endpoint per run. Connections are never
// shared between endpoints or runs.
type Dialer interface {
	Dial(ctx context.Context, target Target, creds Credentials) (Conn, error)
}

type DialFunc func(ctx context.Context, target Target, creds Credentials) (Conn, error)

func (f DialFunc) Dial(ctx context.Context, target Target, creds Credentials) (Conn, error) {
	return f(ctx, target, creds)
}

// Conn is a connected session. Errors are *RemoteError or *TransferError;
// cancellation is reported as the context's error.
type Conn interface {
	IsDir(ctx context.Context, remotePath string) (bool, error)
	SyncDir(ctx context.Context, localRoot, remotePath string, mode Mode) (model.TransferStats, error)
	// DownloadFile in update mode skips the transfer when localPath is
	// already up to date.
	DownloadFile(ctx context.Context, localPath, remotePath string, mode Mode) (model.TransferStats, error)
	Close() error
}
