package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/logger"
)

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "postcraft",
	Short: "Plan, generate and publish equipment rental social content",
	Long: `postcraft plans social media content from the rental catalog, writes it with
Gemini, stores it in Sanity and the Notion content calendar, and publishes
approved calendar entries to Facebook.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		output := cfg.LogFile
		if output == "" {
			output = "stderr"
		}
		if err := logger.Init(logger.Config{
			Level:  cfg.LogLevel,
			Output: output,
			Pretty: cfg.LogPretty,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	catalogCmd.AddCommand(catalogSyncCmd)
	settingsCmd.AddCommand(settingsSeedCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(deletePostCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
