package cmd

import (
	"fmt"
	"ftpsched/internal/model"
	"ftpsched/internal/repository"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	historyN        int
	historyEndpoint string
	historyFailed   bool
	historyStats    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past endpoint runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyStats {
			var stats repository.Stats
			if err := request(http.MethodGet, "/history/stats", nil, &stats); err != nil {
				return err
			}
			fmt.Printf("total: %d  success: %d  failed: %d  cancelled: %d\n",
				stats.Total, stats.Success, stats.Failed, stats.Cancelled)
			return nil
		}

		query := url.Values{}
		query.Set("n", strconv.Itoa(historyN))
		if historyEndpoint != "" {
			query.Set("endpoint", historyEndpoint)
		}
		if historyFailed {
			query.Set("failed", "true")
		}

		var histories []model.History
		if err := request(http.MethodGet, "/history?"+query.Encode(), nil, &histories); err != nil {
			return err
		}

		if len(histories) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, h := range histories {
			status := "✓"
			detail := fmt.Sprintf("%s -> %s (%d files)", h.Source, h.Destination, h.Transferred)
			if h.Status != model.OutcomeSuccess {
				status = "✗"
				detail = h.ErrMsg
			}

			fmt.Printf("%s [%s] %-9s %-25s %s\n",
				status,
				h.FinishedAt.Format(timeLayout),
				h.Status,
				h.Addr,
				detail,
			)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().StringVar(&historyEndpoint, "endpoint", "", "only show runs of this endpoint id")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed runs")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show outcome counts instead of entries")
	rootCmd.AddCommand(historyCmd)
}
