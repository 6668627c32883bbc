package cmd

import (
	"context"
	"fmt"
	"ftpsched/internal/daemon"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"ftpsched/internal/repository"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	syncLocal  bool
	syncCancel bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download all enabled endpoints now",
	Long: "Ask the daemon to run one batch now. Refused while the scheduler is started. " +
		"With --local the batch runs in this process and waits for the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncLocal {
			return syncInProcess()
		}

		if syncCancel {
			if err := request(http.MethodPost, "/sync/cancel", nil, nil); err != nil {
				return err
			}
			fmt.Println("cancelling")
			return nil
		}

		if err := request(http.MethodPost, "/sync", nil, nil); err != nil {
			return err
		}

		fmt.Println("sync started, follow it with 'ftpsched log'")
		return nil
	},
}

func syncInProcess() error {
	defer logger.Sync()
	defer closeDB()

	session, err := daemon.NewSession(cfg, daemon.Options{
		History: repository.NewHistoryRepository(),
	})
	if err != nil {
		return err
	}

	defer func(session *daemon.Session) {
		_ = session.Close()
	}(session)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := session.SyncNow(ctx)
	if err != nil {
		return err
	}

	printOutcomes(report.Outcomes)
	fmt.Printf("done: %d succeeded, %d failed, %d skipped\n",
		report.Count(model.OutcomeSuccess),
		report.Count(model.OutcomeFailed),
		report.Count(model.OutcomeSkipped))

	if report.Cancelled {
		return context.Canceled
	}
	return nil
}

func printOutcomes(outcomes []model.Outcome) {
	for _, o := range outcomes {
		mark := "✓"
		switch o.Status {
		case model.OutcomeFailed:
			mark = "✗"
		case model.OutcomeSkipped, model.OutcomeCancelled:
			mark = "-"
		}

		detail := o.Reason
		if o.Status == model.OutcomeSuccess {
			detail = fmt.Sprintf("%s -> %s (%d files, %d unchanged)",
				o.Source, o.Destination, o.Stats.Transferred, o.Stats.Unchanged)
		}

		fmt.Printf("%s %-9s %-25s %s\n", mark, o.Status, o.Endpoint.Addr(), detail)
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncLocal, "local", false, "run the batch in this process instead of the daemon")
	syncCmd.Flags().BoolVar(&syncCancel, "cancel", false, "cancel the batch the daemon is running")
	rootCmd.AddCommand(syncCmd)
}
