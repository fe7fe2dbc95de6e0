package root

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/client"
	"pomodoro/internal/ui"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change interval lengths and the daily goal",
	}
	cmd.AddCommand(newSettingsGetCmd(), newSettingsSetCmd())
	return cmd
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the interval lengths stored in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, cache := openLedger()
			ctx, cancel := requestContext()
			defer cancel()

			settings, err := ledger.Settings(ctx)
			switch {
			case err == nil:
				if err := cache.StoreSettings(settings, time.Now()); err != nil {
					logger.Warn("cache settings", "error", err)
				}
			case errors.Is(err, client.ErrLedgerUnavailable):
				data, loadErr := cache.Load()
				if loadErr != nil || data.Settings == nil {
					return err
				}
				offlineNotice(cmd, cache)
				settings = *data.Settings
			default:
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.SettingsPanel(settings))
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var (
		work   time.Duration
		short  time.Duration
		long   time.Duration
		cycles int
		goal   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change interval lengths or the daily goal",
		Example: "  focus settings set --work 50m --break 10m\n" +
			"  focus settings set --cycles 3\n" +
			"  focus settings set --goal 2h",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("work") && !flags.Changed("break") && !flags.Changed("long-break") &&
				!flags.Changed("cycles") && !flags.Changed("goal") {
				return errors.New("nothing to change: pass --work, --break, --long-break, --cycles or --goal")
			}

			ledger, cache := openLedger()
			ctx, cancel := requestContext()
			defer cancel()

			settings, err := ledger.Settings(ctx)
			if err != nil {
				return err
			}
			if flags.Changed("work") {
				settings.WorkSeconds = int(work / time.Second)
			}
			if flags.Changed("break") {
				settings.BreakSeconds = int(short / time.Second)
			}
			if flags.Changed("long-break") {
				settings.LongBreakSeconds = int(long / time.Second)
			}
			if flags.Changed("cycles") {
				settings.CyclesBeforeLongBreak = cycles
			}
			if flags.Changed("goal") {
				settings.DailyGoalMinutes = int(goal / time.Minute)
			}

			updated, err := ledger.UpdateSettings(ctx, settings)
			if err != nil {
				return err
			}
			if err := cache.StoreSettings(updated, time.Now()); err != nil {
				logger.Warn("cache settings", "error", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Settings saved"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.SettingsPanel(updated))
			return nil
		},
	}

	cmd.Flags().DurationVar(&work, "work", 0, "work phase length")
	cmd.Flags().DurationVar(&short, "break", 0, "short break length")
	cmd.Flags().DurationVar(&long, "long-break", 0, "long break length")
	cmd.Flags().IntVar(&cycles, "cycles", 0, "work phases before a long break")
	cmd.Flags().DurationVar(&goal, "goal", 0, "daily focus goal, 0 to clear")
	return cmd
}
