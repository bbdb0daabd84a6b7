package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postcraft/internal/api"
	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/social"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operator HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&strategyName, "strategy", "weighted", "Planning strategy: weighted or random")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ScopeServe); err != nil {
		return err
	}
	log := logger.Get()
	ctx := cmd.Context()

	pipeline, err := buildPipeline(ctx, cfg, strategyName)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	svc := api.Services{
		Archive:    pipeline.archive,
		Generator:  pipeline.generator,
		Analyzer:   pipeline.planner,
		JobTimeout: cfg.JobTimeout,
	}
	if cfg.Validate(config.ScopeSchedule) == nil {
		svc.Scheduler = social.NewScheduler(pipeline.calendar, newFacebook(cfg))
	} else {
		log.Warn().Msg("Facebook is not configured, schedule endpoint disabled")
	}

	handlers := api.NewHandlers(svc)
	app := api.NewApp(cfg, handlers)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	handlers.Wait()

	log.Info().Msg("Server exited properly")
	return nil
}
