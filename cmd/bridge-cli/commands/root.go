package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var workerPath *string

var rootCmd = &cobra.Command{
	Use:   "bridge-cli",
	Short: "bridge-cli spawns the scraping worker and drives its line protocol.",
}

func init() {
	workerPath = rootCmd.PersistentFlags().String("worker", "bridged", "Path to the worker binary.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
