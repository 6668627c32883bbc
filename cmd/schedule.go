package cmd

import (
	"fmt"
	"ftpsched/internal/model"
	"net/http"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show or change the daily run time",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]string
		if err := request(http.MethodGet, "/schedule", nil, &result); err != nil {
			return err
		}

		fmt.Printf("daily at %s\n", result["time"])
		return nil
	},
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set [HH:MM[:SS]]",
	Short: "Set the daily run time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseTimeOfDay(args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := request(http.MethodPut, "/schedule", map[string]string{"time": t.String()}, &result); err != nil {
			return err
		}

		fmt.Printf("schedule set to %s\n", result["time"])
		return nil
	},
}

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start or stop the daily scheduler",
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		var snap model.SchedulerSnapshot
		if err := request(http.MethodPost, "/scheduler/start", nil, &snap); err != nil {
			return err
		}

		fmt.Printf("scheduler started, daily at %s\n", snap.ScheduleTime)
		if snap.NextRun != nil {
			fmt.Printf("next run: %s\n", snap.NextRun.Format(timeLayout))
		}
		return nil
	},
}

var schedulerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the scheduler, cancelling a running batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := request(http.MethodPost, "/scheduler/stop", nil, nil); err != nil {
			return err
		}

		fmt.Println("scheduler stopped")
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleSetCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerStopCmd)
	rootCmd.AddCommand(scheduleCmd, schedulerCmd)
}
