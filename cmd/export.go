package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the CSV and JSON exports now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.tracker.EnsureMetadata(context.Background())
		rows, err := a.tracker.ExportNow(context.Background())
		if err != nil {
			return err
		}
		a.logger.Info("Export written",
			zap.Int("rows", rows),
			zap.String("csv", a.cfg.Tracker.CSVPath()),
			zap.String("json", a.cfg.Tracker.JSONPath()),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)
}
