package cmd

import (
	"context"
	"ftpsched/internal/daemon"
	"ftpsched/internal/logger"
	"ftpsched/internal/repository"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon with the stored endpoints and schedule",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	defer closeDB()

	session, err := daemon.NewSession(cfg, daemon.Options{
		History: repository.NewHistoryRepository(),
	})
	if err != nil {
		return err
	}

	if err := session.Start(); err != nil {
		_ = session.Close()
		return err
	}

	if len(session.Store().Snapshot()) == 0 {
		logger.Log.Info("no endpoints configured, use 'ftpsched endpoint add' to add one")
	}

	srv := daemon.NewServer(session, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("ftpsched daemon started",
		zap.Int("port", cfg.DaemonPort),
		zap.Bool("scheduler", session.SchedulerRunning()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Log.Warn("failed to stop server", zap.Error(err))
	}
	return session.Close()
}

func init() {
	rootCmd.AddCommand(runCmd)
}
