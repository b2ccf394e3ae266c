package commands

import (
	"fmt"
	"os"

	"scrapebridge/cmd/bridge-cli/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var trendingCount *int

func init() {
	trendingCount = trendingCmd.Flags().Int("count", 20, "Maximum number of trends to return.")
	rootCmd.AddCommand(trendingCmd)
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Lists the current worldwide trends.",
	Run: func(cmd *cobra.Command, args []string) {
		worker, err := initializedWorker(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer worker.close()

		var result struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Type    string `json:"type"`
			Trends  []struct {
				Name        string `json:"name"`
				URL         string `json:"url"`
				TweetVolume *int   `json:"tweet_volume"`
			} `json:"trends"`
		}
		err = worker.call("trending", map[string]any{
			"count": *trendingCount,
		}, &result)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !result.Success {
			fmt.Fprintf(os.Stderr, "trending rejected (%s): %s\n", result.Type, result.Error)
			os.Exit(1)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Trend", "Volume", "URL"})
		for _, trend := range result.Trends {
			volume := "-"
			if trend.TweetVolume != nil {
				volume = fmt.Sprintf("%d", *trend.TweetVolume)
			}
			t.AppendRow(table.Row{trend.Name, volume, trend.URL})
		}
		t.Render()
	},
}
