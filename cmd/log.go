package cmd

import (
	"fmt"
	"ftpsched/internal/eventlog"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	logClear bool
	logPath  string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show, clear or move the event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case logClear:
			if err := request(http.MethodDelete, "/log", nil, nil); err != nil {
				return err
			}
			fmt.Println("event log cleared")
			return nil

		case logPath != "":
			if err := request(http.MethodPut, "/log/path", map[string]string{"path": logPath}, nil); err != nil {
				return err
			}
			fmt.Printf("event log now written to %s\n", logPath)
			return nil
		}

		var result struct {
			Path  string          `json:"path"`
			Lines []eventlog.Line `json:"lines"`
		}
		if err := request(http.MethodGet, "/log", nil, &result); err != nil {
			return err
		}

		if len(result.Lines) == 0 {
			fmt.Printf("no events yet (file: %s)\n", result.Path)
			return nil
		}

		for _, l := range result.Lines {
			fmt.Printf("%s %s\n", l.Time.Format("2006-01-02 15:04"), l.Text)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().BoolVar(&logClear, "clear", false, "clear the event log")
	logCmd.Flags().StringVar(&logPath, "path", "", "write the event log to this file from now on")
	rootCmd.AddCommand(logCmd)
}
