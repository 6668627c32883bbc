package transfer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net"
	"path"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// ftpConn is the part of *ftp.ServerConn the adapter uses.
type ftpConn interface {
	CurrentDir() (string, error)
	ChangeDir(path string) error
	List(path string) ([]*ftp.Entry, error)
	Retr(path string) (*ftp.Response, error)
	Quit() error
}

type ftpFS struct {
	conn ftpConn

	mu      sync.Mutex
	sockets []net.Conn
	closed  bool
	once    sync.Once
}

func dialFTP(ctx context.Context, addr string, creds Credentials, timeout time.Duration) (*ftpFS, error) {
	f := &ftpFS{}
	dialer := &net.Dialer{Timeout: timeout}

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(timeout),
		ftp.DialWithDialFunc(func(network, address string) (net.Conn, error) {
			c, err := dialer.DialContext(ctx, network, address)
			if err != nil {
				return nil, err
			}
			f.track(c)
			return c, nil
		}),
	)
	if err != nil {
		f.Abort()
		return nil, err
	}

	if err := conn.Login(creds.Username, creds.Password); err != nil {
		_ = conn.Quit()
		f.Abort()
		return nil, fmt.Errorf("login as %s: %w", creds.Username, err)
	}

	f.conn = conn
	return f, nil
}

func (f *ftpFS) Stat(ctx context.Context, remotePath string) (Entry, error) {
	remotePath = path.Clean(remotePath)

	if cwd, err := f.conn.CurrentDir(); err == nil {
		if err := f.conn.ChangeDir(remotePath); err == nil {
			_ = f.conn.ChangeDir(cwd)
			return Entry{Path: remotePath, Name: path.Base(remotePath), IsDir: true}, nil
		}
	}

	entries, err := f.List(ctx, path.Dir(remotePath))
	if err != nil {
		return Entry{}, err
	}

	name := path.Base(remotePath)
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}

	return Entry{}, fmt.Errorf("%s: %w", remotePath, fs.ErrNotExist)
}

func (f *ftpFS) List(_ context.Context, remoteDir string) ([]Entry, error) {
	raw, err := f.conn.List(remoteDir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e.Name == "." || e.Name == ".." {
			continue
		}

		// Links are followed as files; a link to a directory fails on Retr
		// and is reported like any other transfer error.
		entries = append(entries, Entry{
			Path:    path.Join(remoteDir, e.Name),
			Name:    e.Name,
			IsDir:   e.Type == ftp.EntryTypeFolder,
			Size:    int64(e.Size),
			ModTime: e.Time.Truncate(time.Second),
		})
	}

	return entries, nil
}

func (f *ftpFS) Open(_ context.Context, remotePath string) (io.ReadCloser, error) {
	resp, err := f.conn.Retr(remotePath)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (f *ftpFS) Close() error {
	var err error
	f.once.Do(func() {
		if !f.isClosed() {
			err = f.conn.Quit()
		}
		f.Abort()
	})

	return err
}

// Abort closes the sockets without talking to the server. It is safe to call
// while another goroutine is blocked in a transfer.
func (f *ftpFS) Abort() {
	f.mu.Lock()
	f.closed = true
	sockets := f.sockets
	f.sockets = nil
	f.mu.Unlock()

	for _, c := range sockets {
		_ = c.Close()
	}
}

func (f *ftpFS) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *ftpFS) track(c net.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		_ = c.Close()
		return
	}
	f.sockets = append(f.sockets, c)
}
