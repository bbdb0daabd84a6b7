package strategy

import (
	"context"
	"sync"

	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/settings"
)

// RandomPlanner draws pillar, platform and category uniformly and scores plans
// uniformly in [50, 100]. Equipment targeting and analysis are shared with Engine.
type RandomPlanner struct {
	*Engine

	categoriesOnce sync.Once
	categories     []string
}

func NewRandomPlanner(catalog Catalog, s *settings.Settings, opts ...Option) *RandomPlanner {
	return &RandomPlanner{Engine: NewEngine(catalog, s, opts...)}
}

func (r *RandomPlanner) PlanStrategicContent(ctx context.Context, count int) []models.ContentPlan {
	if count <= 0 {
		return []models.ContentPlan{}
	}

	categories := r.availableCategories(ctx)
	plans := make([]models.ContentPlan, 0, count)
	for i := 0; i < count; i++ {
		pillar := models.Pillars[r.intN(len(models.Pillars))]
		category := categories[r.intN(len(categories))]
		seasonalContext := r.seasonalContext(pillar)

		plans = append(plans, models.ContentPlan{
			Pillar:            pillar,
			TargetPlatform:    models.Platforms[r.intN(len(models.Platforms))],
			EquipmentCategory: category,
			SeasonalContext:   seasonalContext,
			PriorityScore:     50 + r.float64()*50,
			BusinessRationale: r.rationale(pillar, category, seasonalContext),
		})
	}

	sortByPriority(plans)
	return plans
}

func (r *RandomPlanner) availableCategories(ctx context.Context) []string {
	r.categoriesOnce.Do(func() {
		categories, err := r.catalog.Categories(ctx)
		if err != nil {
			logger.Get().Error().Err(err).Msg("Error fetching categories")
		}
		if len(categories) == 0 {
			logger.Get().Warn().Msg("No equipment categories available, using fallback")
			categories = fallbackCategories
		}
		r.categories = categories
	})
	return r.categories
}
