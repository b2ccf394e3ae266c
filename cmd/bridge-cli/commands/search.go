package commands

import (
	"fmt"
	"os"

	"scrapebridge/cmd/bridge-cli/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchCount *int

func init() {
	searchCount = searchCmd.Flags().Int("count", 20, "Maximum number of tweets to return.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches for the latest tweets matching a query.",
	Args:  cobra.ExactArgs(1),
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
			Count   int    `json:"count"`
			Tweets  []struct {
				ID        string `json:"id"`
				Text      string `json:"text"`
				Username  string `json:"username"`
				Timestamp string `json:"timestamp"`
				Likes     int    `json:"likes"`
				Retweets  int    `json:"retweets"`
			} `json:"tweets"`
		}
		err = worker.call("search", map[string]any{
			"query": args[0],
			"count": *searchCount,
		}, &result)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !result.Success {
			fmt.Fprintf(os.Stderr, "search rejected (%s): %s\n", result.Type, result.Error)
			os.Exit(1)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Time", "User", "Text", "Likes", "RTs"})
		for _, tweet := range result.Tweets {
			t.AppendRow(table.Row{tweet.Timestamp, "@" + tweet.Username, tweet.Text, tweet.Likes, tweet.Retweets})
		}
		t.Render()
	},
}
