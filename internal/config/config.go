package config

import (
	"errors"
	"fmt"
	"ftpsched/internal/model"
	"ftpsched/internal/transfer"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DaemonPort         int                    `mapstructure:"daemon_port"`
	StatePath          string                 `mapstructure:"state_path"`
	DBPath             string                 `mapstructure:"db_path"`
	LogPath            string                 `mapstructure:"log_path"`
	LogRingSize        int                    `mapstructure:"log_ring_size"`
	LogClearOnRun      bool                   `mapstructure:"log_clear_on_run"`
	DefaultLocalRoot   string                 `mapstructure:"default_local_root"`
	Username           string                 `mapstructure:"username"`
	Password           string                 `mapstructure:"password"`
	KnownHostsPath     string                 `mapstructure:"known_hosts"`
	ConnectTimeout     time.Duration          `mapstructure:"connect_timeout"`
	IgnoreList         []string               `mapstructure:"ignore_list"`
	ConflictStrategy   model.ConflictStrategy `mapstructure:"conflict_strategy"`
	SyncMode           string                 `mapstructure:"sync_mode"`
	AutostartScheduler bool                   `mapstructure:"autostart_scheduler"`
}

var Default = Config{
	DaemonPort:       9321,
	StatePath:        "state.json",
	DBPath:           "ftpsched.db",
	LogPath:          "log.txt",
	LogRingSize:      500,
	Username:         "anonymous",
	Password:         "anonymous",
	ConnectTimeout:   30 * time.Second,
	IgnoreList:       []string{},
	ConflictStrategy: model.StrategyRemoteWins,
	SyncMode:         transfer.ModeUpdate.String(),
}

// Dir is the directory holding config.yaml and, unless configured otherwise,
// the state file, the history database and the event log.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	return filepath.Join(home, ".ftpsched"), nil
}

func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("state_path", Default.StatePath)
	v.SetDefault("db_path", Default.DBPath)
	v.SetDefault("log_path", Default.LogPath)
	v.SetDefault("log_ring_size", Default.LogRingSize)
	v.SetDefault("log_clear_on_run", Default.LogClearOnRun)
	v.SetDefault("default_local_root", defaultLocalRoot())
	v.SetDefault("username", Default.Username)
	v.SetDefault("password", Default.Password)
	v.SetDefault("known_hosts", "")
	v.SetDefault("connect_timeout", Default.ConnectTimeout)
	v.SetDefault("ignore_list", Default.IgnoreList)
	v.SetDefault("conflict_strategy", string(Default.ConflictStrategy))
	v.SetDefault("sync_mode", Default.SyncMode)
	v.SetDefault("autostart_scheduler", Default.AutostartScheduler)

	v.SetEnvPrefix("FTPSCHED")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.resolvePaths(configDir)
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.ConflictStrategy.Valid() {
		return fmt.Errorf("invalid conflict_strategy %q: want one of %s, %s, %s", c.ConflictStrategy,
			model.StrategyRemoteWins, model.StrategyLocalWins, model.StrategyBackup)
	}
	if _, err := transfer.ParseMode(c.SyncMode); err != nil {
		return fmt.Errorf("invalid sync_mode: %w", err)
	}

	return nil
}

// Mode is the parsed sync_mode.
func (c *Config) Mode() transfer.Mode {
	m, err := transfer.ParseMode(c.SyncMode)
	if err != nil {
		return transfer.ModeUpdate
	}

	return m
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.StatePath, &c.DBPath, &c.LogPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func defaultLocalRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}

	return filepath.Join(home, "Downloads")
}
