package config

import (
	"ftpsched/internal/model"
	"ftpsched/internal/transfer"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	dir := filepath.Join(home, ".ftpsched")
	assert.DirExists(t, dir)
	assert.Equal(t, 9321, cfg.DaemonPort)
	assert.Equal(t, filepath.Join(dir, "state.json"), cfg.StatePath)
	assert.Equal(t, filepath.Join(dir, "ftpsched.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "log.txt"), cfg.LogPath)
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.DefaultLocalRoot)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, model.StrategyRemoteWins, cfg.ConflictStrategy)
	assert.Empty(t, cfg.IgnoreList)
	assert.Equal(t, "update", cfg.SyncMode)
	assert.Equal(t, transfer.ModeUpdate, cfg.Mode())
	assert.False(t, cfg.AutostartScheduler)
}

func TestLoadFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("FTPSCHED_DAEMON_PORT", "9400")

	dir := filepath.Join(home, ".ftpsched")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
daemon_port: 9399
state_path: /var/lib/ftpsched/state.json
log_path: logs/events.txt
username: mirror
connect_timeout: 5s
conflict_strategy: BACKUP
sync_mode: overwrite
autostart_scheduler: true
ignore_list: ["*.lock"]
`), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9400, cfg.DaemonPort)
	assert.Equal(t, "/var/lib/ftpsched/state.json", cfg.StatePath)
	assert.Equal(t, filepath.Join(dir, "logs", "events.txt"), cfg.LogPath)
	assert.Equal(t, "mirror", cfg.Username)
	assert.Equal(t, "anonymous", cfg.Password)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, model.StrategyBackup, cfg.ConflictStrategy)
	assert.True(t, cfg.AutostartScheduler)
	assert.Equal(t, []string{"*.lock"}, cfg.IgnoreList)
	assert.Equal(t, transfer.ModeOverwrite, cfg.Mode())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".ftpsched")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon_port: [\n"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown conflict strategy", content: "conflict_strategy: REMOTE_WIN\n", wantErr: "conflict_strategy"},
		{name: "lowercase conflict strategy", content: "conflict_strategy: backup\n", wantErr: "conflict_strategy"},
		{name: "unknown sync mode", content: "sync_mode: mirror\n", wantErr: "sync_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)

			dir := filepath.Join(home, ".ftpsched")
			require.NoError(t, os.MkdirAll(dir, 0755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.content), 0644))

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
