package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"collection-tracker/core/logger"
	"collection-tracker/feature/status"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runOnce bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tracker daemon",
	Long: `Starts the tailer loop: polls the Arena log, reconciles events into
the local database and keeps the CSV/JSON exports up to date. With
--once it refreshes metadata, renders one export and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if a.cfg.Server.Enabled && !runOnce {
			handler := status.NewHandler(a.cfg.Server, a.tracker, logger.WithComponent(a.logger, "status"))
			srv := handler.App()
			go func() {
				a.logger.Info("Starting status server", zap.String("port", a.cfg.Server.Port))
				if err := srv.Listen(":" + a.cfg.Server.Port); err != nil {
					a.logger.Error("Status server failed", zap.Error(err))
				}
			}()
			defer func() { _ = srv.Shutdown() }()
		}

		return a.tracker.Run(ctx, runOnce)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "refresh metadata, export once and exit")
	RootCmd.AddCommand(runCmd)
}
