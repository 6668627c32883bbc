package model

import "fmt"

type Protocol string

const (
	ProtocolFTP  Protocol = "ftp"
	ProtocolSFTP Protocol = "sftp"
)

// Endpoint is one remote file-transfer target. RemotePath and LocalPath may
// carry date placeholders that are expanded at run time.
type Endpoint struct {
	ID         string   `json:"id"`
	Enabled    bool     `json:"enabled"`
	Protocol   Protocol `json:"protocol,omitempty"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	RemotePath string   `json:"remote_path"`
	LocalPath  string   `json:"local_path"`
}

func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Scheme falls back to FTP for entries persisted before the protocol field existed.
func (e Endpoint) Scheme() Protocol {
	if e.Protocol == "" {
		return ProtocolFTP
	}

	return e.Protocol
}
