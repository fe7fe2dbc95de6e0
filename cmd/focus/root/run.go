package root

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pomodoro/internal/client"
	"pomodoro/internal/idle"
	"pomodoro/internal/timer"
	"pomodoro/internal/ui"
)

var keyCommands = map[string]client.Command{
	"":      client.CommandToggle,
	"s":     client.CommandToggle,
	"start": client.CommandStart,
	"p":     client.CommandPause,
	"pause": client.CommandPause,
	"n":     client.CommandSkip,
	"skip":  client.CommandSkip,
	"r":     client.CommandReset,
	"reset": client.CommandReset,
	"a":     client.CommandToggleAutoStart,
	"q":     client.CommandQuit,
	"quit":  client.CommandQuit,
}

// bell rings the terminal bell when a phase ends on its own.
type bell struct {
	out io.Writer
}

func (b bell) PhaseEnded(_, _ timer.Phase) {
	fmt.Fprint(b.out, "\a")
}

func newRunCmd() *cobra.Command {
	var startNow bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interval timer",
		Long: "Run the interval timer. Type a key and press enter: " +
			"enter/s toggle, p pause, n skip, r reset, a toggle auto-start, q quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, cache := openLedger()
			out := cmd.OutOrStdout()

			syncer := client.NewSyncer(ledger, cache, client.SyncerOptions{
				Schedule: clientCfg.SyncSchedule,
				Timeout:  clientCfg.RequestTimeout,
				Logger:   logger,
			})
			runtime := client.NewRuntime(syncer, cache, client.RuntimeOptions{
				AutoStart: clientCfg.AutoStart,
				Idle:      idle.Checker{Provider: idle.NewProvider(), Threshold: clientCfg.IdleAfter},
				Signals:   bell{out: out},
				Logger:    logger,
				Render: func(status client.Status) {
					fmt.Fprint(out, "\r\033[K"+ui.StatusLine(status))
				},
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go readKeys(cmd.InOrStdin(), runtime)
			if startNow {
				runtime.Send(client.CommandStart)
			}

			err := runtime.Run(ctx)
			fmt.Fprintln(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&clientCfg.AutoStart, "auto-start", clientCfg.AutoStart, "start the next phase automatically")
	cmd.Flags().DurationVar(&clientCfg.IdleAfter, "idle-after", clientCfg.IdleAfter, "pause work after this much input inactivity (0 disables)")
	cmd.Flags().StringVar(&clientCfg.SyncSchedule, "sync", clientCfg.SyncSchedule, "cron spec for ledger health checks")
	cmd.Flags().BoolVar(&startNow, "start", false, "start the first work phase immediately")
	return cmd
}

func readKeys(in io.Reader, runtime *client.Runtime) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, ok := keyCommands[strings.ToLower(strings.TrimSpace(scanner.Text()))]
		if !ok {
			continue
		}
		if !runtime.Send(cmd) || cmd == client.CommandQuit {
			return
		}
	}
}
