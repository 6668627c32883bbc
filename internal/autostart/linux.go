package autostart

import (
	"bytes"
	"fmt"
	"ftpsched/internal/util"
	"os"
	"path/filepath"
	"text/template"
)

const unitName = serviceName + ".service"

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=ftpsched scheduled FTP/SFTP downloader
After=network-online.target

[Service]
ExecStart={{.ExecPath}} run
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

type LinuxAutoStarter struct {
	// unitDir overrides ~/.config/systemd/user.
	unitDir string
	run     runFunc
}

func renderUnit(execPath string) ([]byte, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, map[string]string{"ExecPath": execPath}); err != nil {
		return nil, fmt.Errorf("failed to render service file: %w", err)
	}

	return buf.Bytes(), nil
}

func (l *LinuxAutoStarter) servicePath() (string, error) {
	dir := l.unitDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "systemd", "user")
	}

	if err := util.EnsureDir(dir); err != nil {
		return "", err
	}

	return filepath.Join(dir, unitName), nil
}

func (l *LinuxAutoStarter) Install(execPath string) error {
	path, err := l.servicePath()
	if err != nil {
		return err
	}

	unit, err := renderUnit(execPath)
	if err != nil {
		return err
	}

	if _, err := util.AtomicWrite(path, bytes.NewReader(unit)); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	cmds := [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "enable", unitName},
		{"systemctl", "--user", "start", unitName},
	}

	for _, args := range cmds {
		if out, err := l.run(args[0], args[1:]...); err != nil {
			return fmt.Errorf("failed to run %v: %w\n%s", args, err, out)
		}
	}

	return nil
}

func (l *LinuxAutoStarter) Uninstall() error {
	cmds := [][]string{
		{"systemctl", "--user", "stop", unitName},
		{"systemctl", "--user", "disable", unitName},
	}

	for _, args := range cmds {
		_, _ = l.run(args[0], args[1:]...)
	}

	path, err := l.servicePath()
	if err != nil {
		return err
	}

	return util.RemoveIfExists(path)
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.servicePath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}
