package cmd

import (
	"fmt"
	"ftpsched/internal/daemon"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var st daemon.Status
		if err := request(http.MethodGet, "/status", nil, &st); err != nil {
			return err
		}

		sched := st.Scheduler
		state := "stopped"
		if sched.Running {
			state = "running"
		}

		fmt.Printf("scheduler:  %s (daily at %s)\n", state, sched.ScheduleTime)
		if sched.StartedAt != nil {
			fmt.Printf("uptime:     %s\n", time.Since(*sched.StartedAt).Round(time.Second))
		}
		if sched.NextRun != nil {
			fmt.Printf("next run:   %s\n", sched.NextRun.Format(timeLayout))
		}
		if sched.LastRun != nil {
			fmt.Printf("last run:   %s (%d total)\n", sched.LastRun.Format(timeLayout), sched.TotalRuns)
		}
		fmt.Printf("endpoints:  %d\n", st.Endpoints)
		fmt.Printf("state file: %s\n", st.StatePath)
		fmt.Printf("event log:  %s\n", st.LogPath)

		if st.Batch != nil {
			fmt.Printf("\nbatch in progress (%s): %d/%d endpoints, started %s\n",
				st.Batch.Trigger, st.Batch.Done, st.Batch.Endpoints, st.Batch.StartedAt.Format(timeLayout))
		}

		if r := st.LastReport; r != nil {
			fmt.Printf("\nlast batch %s", r.At.Format(timeLayout))
			if r.Cancelled {
				fmt.Print(" (cancelled)")
			}
			fmt.Println()
			printOutcomes(r.Outcomes)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
