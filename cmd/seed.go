package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed <file.csv>",
	Short: "Import a baseline collection from a CSV file",
	Long: `Imports a card-id/quantity CSV and treats it exactly like a snapshot
event: it replaces the stored collection, establishes the baseline and
replays any queued deltas. Header names are matched tolerantly
(arena_id/grpid/titleid/id and quantity/qty/count/owned).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.tracker.EnsureMetadata(context.Background())
		rows, err := a.tracker.Seed(context.Background(), args[0])
		if err != nil {
			return err
		}
		a.logger.Info("Seed imported", zap.String("file", args[0]), zap.Int("rows", rows))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(seedCmd)
}
