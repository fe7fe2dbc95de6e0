package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"pomodoro/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		days  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent work sessions and daily focus time",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, _ := openLedger()
			ctx, cancel := requestContext()
			defer cancel()

			summary, err := ledger.Summary(ctx, days)
			if err != nil {
				return err
			}
			sessions, err := ledger.History(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconClock, "Focus History"))
			fmt.Fprintln(out, ui.GoalLine(summary))
			fmt.Fprintln(out, ui.LabelValue("All time", fmt.Sprintf("%s in %d session(s)", ui.FormatClock(summary.TotalSeconds), summary.TotalSessions)))
			fmt.Fprintln(out, "")

			busiest := 0
			for _, day := range summary.Days {
				if day.Seconds > busiest {
					busiest = day.Seconds
				}
			}
			fmt.Fprintln(out, ui.H2.Render("Daily"))
			for _, day := range summary.Days {
				fmt.Fprintf(out, "%s %s %s\n", ui.Muted.Render(day.Date), ui.Bar(day.Seconds, busiest, 24),
					ui.Muted.Render(fmt.Sprintf("%s (%d)", ui.FormatClock(day.Seconds), day.Sessions)))
			}

			if len(sessions) == 0 {
				return nil
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.H2.Render("Recent sessions"))
			for _, session := range sessions {
				fmt.Fprintf(out, "- %s %s\n",
					session.EndedAt.Local().Format("2006-01-02 15:04"),
					ui.Muted.Render(ui.FormatClock(session.DurationSeconds)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent sessions to list")
	cmd.Flags().IntVar(&days, "days", 7, "number of days to summarize")
	return cmd
}
