package transfer

import (
	"context"
	"fmt"
	"ftpsched/internal/model"
	"net"
	"strconv"
	"time"
)

// NetDialer dials real FTP and SFTP servers.
type NetDialer struct {
	Timeout        time.Duration
	KnownHostsPath string
	Mirror         MirrorOptions
}

func (d *NetDialer) Dial(ctx context.Context, target Target, creds Credentials) (Conn, error) {
	addr := net.JoinHostPort(target.Host, strconv.Itoa(target.Port))

	var (
		fs  RemoteFS
		err error
	)
	switch target.Protocol {
	case model.ProtocolFTP, "":
		fs, err = dialFTP(ctx, addr, creds, d.timeout())
	case model.ProtocolSFTP:
		fs, err = dialSFTP(ctx, addr, creds, d.timeout(), d.KnownHostsPath)
	default:
		err = fmt.Errorf("unsupported protocol %q", target.Protocol)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	return NewMirror(fs, d.Mirror), nil
}

func (d *NetDialer) timeout() time.Duration {
	if d.Timeout <= 0 {
		return 30 * time.Second
	}

	return d.Timeout
}
