package root

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/client"
	"pomodoro/internal/config"
	"pomodoro/internal/logging"
	"pomodoro/internal/ui"
)

const Version = "0.1.0"

var (
	clientCfg = config.LoadClient()
	logger    = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "focus",
	Short:         "Focus timer with a shared progress ledger",
	Long:          "focus runs work/break intervals in the terminal and reports completed work sessions to the ledger server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(os.Stderr, clientCfg.LogLevel, "text")
		slog.SetDefault(logger)
	},
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&clientCfg.LedgerURL, "ledger-url", clientCfg.LedgerURL, "ledger server base URL")
	flags.StringVar(&clientCfg.CachePath, "cache", clientCfg.CachePath, "path of the local ledger cache")
	flags.DurationVar(&clientCfg.RequestTimeout, "timeout", clientCfg.RequestTimeout, "ledger request timeout")
	flags.StringVar(&clientCfg.LogLevel, "log-level", clientCfg.LogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(),
		newProgressCmd(),
		newSettingsCmd(),
		newAchievementsCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func openLedger() (*client.LedgerClient, *client.Cache) {
	return client.NewLedgerClient(clientCfg.LedgerURL, clientCfg.RequestTimeout), client.NewCache(clientCfg.CachePath)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), clientCfg.RequestTimeout+time.Second)
}

func offlineNotice(cmd *cobra.Command, cache *client.Cache) {
	data, err := cache.Load()
	if err != nil || data.FetchedAt.IsZero() {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn.Render(ui.IconWarn+" ledger unreachable"))
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn.Render(fmt.Sprintf("%s ledger unreachable, showing data cached at %s",
		ui.IconWarn, data.FetchedAt.Local().Format("2006-01-02 15:04"))))
}
