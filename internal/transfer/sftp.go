package transfer

import (
	"context"
	"fmt"
	"ftpsched/internal/logger"
	"io"
	"net"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type sftpFS struct {
	ssh    *ssh.Client
	client *sftp.Client
	once   sync.Once
}

func dialSFTP(ctx context.Context, addr string, creds Credentials, timeout time.Duration, knownHostsPath string) (*sftpFS, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if knownHostsPath != "" {
		cb, err := knownhosts.New(knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		logger.Log.Debug("host key verification disabled",
			zap.String("addr", addr))
	}

	cfg := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	dialer := &net.Dialer{Timeout: timeout}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// The handshake itself does not take a context.
	stop := context.AfterFunc(ctx, func() { _ = nc.Close() })
	conn, chans, reqs, err := ssh.NewClientConn(nc, addr, cfg)
	stop()
	if err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("ssh handshake: %w", err)
	}

	sshClient := ssh.NewClient(conn, chans, reqs)
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("start sftp subsystem: %w", err)
	}

	return &sftpFS{ssh: sshClient, client: sftpClient}, nil
}

func (f *sftpFS) Stat(_ context.Context, remotePath string) (Entry, error) {
	remotePath = path.Clean(remotePath)

	info, err := f.client.Stat(remotePath)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Path:    remotePath,
		Name:    path.Base(remotePath),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime().Truncate(time.Second),
	}, nil
}

func (f *sftpFS) List(_ context.Context, remoteDir string) ([]Entry, error) {
	infos, err := f.client.ReadDir(remoteDir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Path:    path.Join(remoteDir, info.Name()),
			Name:    info.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Truncate(time.Second),
		})
	}

	return entries, nil
}

func (f *sftpFS) Open(_ context.Context, remotePath string) (io.ReadCloser, error) {
	return f.client.Open(remotePath)
}

func (f *sftpFS) Close() error {
	var err error
	f.once.Do(func() {
		err = f.client.Close()
		if f.ssh != nil {
			err = f.ssh.Close()
		}
	})

	return err
}
