package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"pomodoro/internal/ui"
)

func newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and when they were earned",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, _ := openLedger()
			ctx, cancel := requestContext()
			defer cancel()

			achievements, err := ledger.Achievements(ctx)
			if err != nil {
				return err
			}

			earned := 0
			for _, achievement := range achievements {
				if achievement.Earned {
					earned++
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconTrophy, fmt.Sprintf("Achievements (%d/%d)", earned, len(achievements))))
			for _, achievement := range achievements {
				fmt.Fprintln(cmd.OutOrStdout(), ui.AchievementLine(achievement))
			}
			return nil
		},
	}
}
