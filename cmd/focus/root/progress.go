package root

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/client"
	"pomodoro/internal/ui"
)

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show level, XP, streak and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, cache := openLedger()
			ctx, cancel := requestContext()
			defer cancel()

			view, err := ledger.Progress(ctx)
			switch {
			case err == nil:
				if err := cache.StoreProgress(view, time.Now()); err != nil {
					logger.Warn("cache progress", "error", err)
				}
			case errors.Is(err, client.ErrLedgerUnavailable):
				data, loadErr := cache.Load()
				if loadErr != nil || data.Progress == nil {
					return err
				}
				offlineNotice(cmd, cache)
				view = *data.Progress
			default:
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconTomato, "Focus Progress"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.ProgressPanel(view))
			if err == nil {
				if summary, err := ledger.Summary(ctx, 1); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), ui.GoalLine(summary))
				} else {
					logger.Warn("load daily goal", "error", err)
				}
			}
			return nil
		},
	}
}
