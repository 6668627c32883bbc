package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls [][]string
	fail  string
}

func (r *recorder) run(name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.fail != "" && strings.Contains(strings.Join(args, " "), r.fail) {
		return []byte("boom"), errors.New("exit status 1")
	}
	return nil, nil
}

func TestRenderUnit(t *testing.T) {
	unit, err := renderUnit("/usr/local/bin/ftpsched")
	require.NoError(t, err)

	assert.Contains(t, string(unit), "[Service]\nExecStart=/usr/local/bin/ftpsched run\n")
	assert.Contains(t, string(unit), "WantedBy=default.target")
}

func TestLinuxInstallAndUninstall(t *testing.T) {
	rec := &recorder{}
	l := &LinuxAutoStarter{unitDir: t.TempDir(), run: rec.run}

	require.NoError(t, l.Install("/opt/ftpsched"))

	installed, err := l.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)

	data, err := os.ReadFile(filepath.Join(l.unitDir, unitName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ExecStart=/opt/ftpsched run")
	assert.Equal(t, []string{"systemctl", "--user", "start", unitName}, rec.calls[2])

	require.NoError(t, l.Uninstall())
	installed, err = l.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, l.Uninstall())
}

func TestLinuxInstallReportsSystemctlFailure(t *testing.T) {
	rec := &recorder{fail: "enable"}
	l := &LinuxAutoStarter{unitDir: t.TempDir(), run: rec.run}

	err := l.Install("/opt/ftpsched")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, rec.calls, 2)
}

func TestWindowsInstall(t *testing.T) {
	rec := &recorder{}
	w := &WindowsAutoStarter{run: rec.run}

	require.NoError(t, w.Install(`C:\ftpsched.exe`))
	assert.Contains(t, rec.calls[0], `"C:\ftpsched.exe" run`)
	assert.Contains(t, rec.calls[0], taskName)

	installed, err := w.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)
}
