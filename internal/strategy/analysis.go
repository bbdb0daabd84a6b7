package strategy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
)

const analysisWindow = 30 * 24 * time.Hour

// AnalyzeContentPerformance compares the last 30 days of generated content with
// the configured pillar weights. It is informational only.
func (e *Engine) AnalyzeContentPerformance(ctx context.Context) models.PerformanceReport {
	report := models.PerformanceReport{
		PillarDistribution:   map[string]int{},
		PlatformDistribution: map[string]int{},
		Recommendations:      []string{},
	}

	rows, err := e.catalog.RecentContent(ctx, e.now().Add(-analysisWindow))
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error analyzing content performance")
		report.Error = err.Error()
		return report
	}

	report.TotalContent = len(rows)
	byKey := make(map[string]int)
	for _, row := range rows {
		pillar := row.Pillar
		if pillar == "" {
			pillar = "unknown"
		}
		report.PillarDistribution[pillar]++
		byKey[models.NormalizeKey(pillar)]++

		platform := row.Platform
		if platform == "" {
			platform = "unknown"
		}
		report.PlatformDistribution[platform]++
	}

	if report.TotalContent == 0 {
		return report
	}

	keys := make([]string, 0, len(e.settings.ContentStrategy.PillarWeights))
	for k := range e.settings.ContentStrategy.PillarWeights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		target := e.settings.ContentStrategy.PillarWeights[key]
		actual := float64(byKey[models.NormalizeKey(key)]) / float64(report.TotalContent)
		if actual < target*0.8 {
			name := key
			if p, ok := models.ParsePillar(key); ok {
				name = string(p)
			}
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Increase %s content (current: %.1f%%, target: %.1f%%)", name, actual*100, target*100))
		}
	}
	return report
}
