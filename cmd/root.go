package cmd

import (
	"fmt"
	"ftpsched/internal/config"
	"ftpsched/internal/db"
	"ftpsched/internal/logger"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "ftpsched",
	Short: "Download remote FTP/SFTP directories on a daily schedule",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if needsDB(cmd) {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

// needsDB reports whether cmd runs a session in this process rather than
// talking to the daemon.
func needsDB(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "run":
		return true
	case "sync":
		return syncLocal
	default:
		return false
	}
}

func closeDB() {
	if err := db.Close(); err != nil {
		logger.Log.Warn("failed to close history db", zap.Error(err))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
