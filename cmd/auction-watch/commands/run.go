package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/pkg/metrics"
)

const pushJob = "auction_watch"

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one pass over every tracked auction and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		monitor, err := a.monitor()
		if err != nil {
			return err
		}

		report, passErr := monitor.RunPass(ctx)
		if url := a.cfg.PushgatewayURL; url != "" {
			// Push even when the context is cancelled so the last state is visible.
			pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := metrics.Push(pushCtx, url, pushJob, a.registry); err != nil {
				a.logger.Warn("Failed to push metrics", zap.String("url", url), zap.Error(err))
			}
		}
		if passErr != nil {
			return fmt.Errorf("run pass: %w", passErr)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d new, %d changed, %d unchanged, %d failed\n",
			report.Count(entity.StateNew),
			report.Count(entity.StateChanged),
			report.Count(entity.StateUnchanged),
			len(report.Failures()),
		)
		return nil
	},
}
