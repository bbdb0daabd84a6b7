package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/social"
)

var (
	scheduleLoop     bool
	scheduleInterval time.Duration
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Publish calendar entries marked Ready for Scheduling to Facebook",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Copy engagement metrics of posts from three days ago into Notion",
	Args:  cobra.NoArgs,
	RunE:  runTrack,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write this month's performance report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var deletePostCmd = &cobra.Command{
	Use:   "delete-post POST_ID",
	Short: "Delete a post from the Facebook page",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeletePost,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleLoop, "loop", false, "Keep running until interrupted")
	scheduleCmd.Flags().DurationVar(&scheduleInterval, "interval", 5*time.Minute, "Time between runs with --loop")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ScopeSchedule); err != nil {
		return err
	}
	ctx := cmd.Context()

	poster := newFacebook(cfg)
	if _, err := poster.ValidateToken(ctx); err != nil {
		return fmt.Errorf("facebook token check failed: %w", err)
	}

	scheduler := social.NewScheduler(newNotion(cfg), poster)
	if scheduleLoop {
		logger.Get().Info().Dur("interval", scheduleInterval).Msg("Starting scheduler loop")
		return scheduler.Run(ctx, scheduleInterval)
	}

	summary, err := scheduler.RunOnce(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(summary)
}

func runTrack(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ScopeTrack); err != nil {
		return err
	}

	updated, err := social.NewTracker(newNotion(cfg), newFacebook(cfg)).Track(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Updated metrics for %d post(s)\n", updated)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ScopeReport); err != nil {
		return err
	}

	path, err := social.NewReporter(newNotion(cfg), cfg.ReportsPath).Generate(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runDeletePost(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ScopeSchedule); err != nil {
		return err
	}
	if err := newFacebook(cfg).DeletePost(cmd.Context(), args[0]); err != nil {
		return err
	}
	logger.Get().Info().Str("post_id", args[0]).Msg("Deleted Facebook post")
	return nil
}
