package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/generator"
	"github.com/bilgisen/postcraft/internal/logger"
)

var (
	numIdeas           int
	inputText          string
	analyzePerformance bool
	strategyName       string
	clearHistory       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of content ideas and store them in the CMS and Notion",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&numIdeas, "num-ideas", "n", 3, "Number of ideas to generate")
	generateCmd.Flags().StringVar(&inputText, "input-text", "", "Extra context passed to the model")
	generateCmd.Flags().BoolVar(&analyzePerformance, "analyze-performance", false, "Analyze recent content before planning")
	generateCmd.Flags().StringVar(&strategyName, "strategy", "weighted", "Planning strategy: weighted or random")
	generateCmd.Flags().BoolVar(&clearHistory, "clear-history", false, "Forget previously generated titles before the run")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ScopeGenerate); err != nil {
		return err
	}
	if numIdeas < 1 {
		return fmt.Errorf("--num-ideas must be at least 1")
	}

	ctx := cmd.Context()
	pipeline, err := buildPipeline(ctx, cfg, strategyName)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if clearHistory {
		if err := pipeline.guard.ClearGenerated(ctx); err != nil {
			return fmt.Errorf("clearing generated titles: %w", err)
		}
		logger.Get().Info().Msg("Cleared generated title history")
	}

	result, err := pipeline.generator.Generate(ctx, generator.Request{
		NumIdeas:           numIdeas,
		InputText:          inputText,
		AnalyzePerformance: analyzePerformance,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
