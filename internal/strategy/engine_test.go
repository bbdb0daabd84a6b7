package strategy

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/settings"
)

type fakeCatalog struct {
	equipment  []models.Equipment
	count      int
	categories []string
	recent     []cms.ContentSummary
	err        error

	categoryCalls int
	since         time.Time
}

func (f *fakeCatalog) AvailableEquipmentInCategory(_ context.Context, _ string) ([]models.Equipment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Equipment(nil), f.equipment...), nil
}

func (f *fakeCatalog) CountAvailable(_ context.Context, _ string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func (f *fakeCatalog) Categories(_ context.Context) ([]string, error) {
	f.categoryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeCatalog) RecentContent(_ context.Context, since time.Time) ([]cms.ContentSummary, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return f.recent, nil
}

func seeded() Option {
	return WithRand(rand.New(rand.NewPCG(1, 2)))
}

func ptr(f float64) *float64 { return &f }

func testSettings() *settings.Settings {
	return &settings.Settings{
		ContentStrategy: settings.ContentStrategy{
			PillarWeights: map[string]float64{
				"equipmentSpotlight": 0.3,
				"project_showcase":   0.2,
				"seasonalContent":    0.2,
				"safetyTraining":     0.1,
				"educationalContent": 0.1,
				"customerSuccess":    0.1,
			},
			PlatformPreferences: map[string]float64{"facebook": 50, "instagram": 30, "blog": 20},
			EquipmentSelectionRules: settings.EquipmentSelectionRules{
				MaxEquipmentPerPost: 2,
			},
		},
		Seasonal: settings.Seasonal{
			CurrentSeason: "Winter",
			SeasonalContentThemes: map[string][]string{
				"winter": {"Snow Ready", "Cold Weather Prep"},
			},
			SeasonalEquipmentPriority: map[string][]string{
				"winter": {"snow-removal", "heaters"},
			},
			SeasonalBoosts: settings.SeasonalBoosts{CurrentSeasonBoost: ptr(1.5)},
		},
	}
}

func TestPlanStrategicContentCountAndOrder(t *testing.T) {
	engine := NewEngine(&fakeCatalog{count: 4}, testSettings(), seeded())

	for _, n := range []int{1, 5, 25} {
		plans := engine.PlanStrategicContent(context.Background(), n)
		require.Len(t, plans, n)
		assert.True(t, sort.SliceIsSorted(plans, func(i, j int) bool {
			return plans[i].PriorityScore > plans[j].PriorityScore
		}))
		for _, p := range plans {
			assert.GreaterOrEqual(t, p.PriorityScore, 0.0)
			assert.LessOrEqual(t, p.PriorityScore, 100.0)
			assert.NotEmpty(t, p.EquipmentCategory)
			assert.NotEmpty(t, p.BusinessRationale)
		}
	}
}

func TestPlanStrategicContentNonPositiveCount(t *testing.T) {
	engine := NewEngine(&fakeCatalog{}, testSettings(), seeded())

	assert.Empty(t, engine.PlanStrategicContent(context.Background(), 0))
	assert.Empty(t, engine.PlanStrategicContent(context.Background(), -3))
	assert.NotNil(t, engine.PlanStrategicContent(context.Background(), 0))
}

func TestPriorityScoreBounds(t *testing.T) {
	tests := []struct {
		name    string
		weight  float64
		boost   float64
		count   int
		newGear bool
	}{
		{"zero weight", 0, 1, 0, false},
		{"huge weight", 1e9, 1, 50, true},
		{"huge boost", 1, 1e6, 20, true},
		{"negative boost", 1, -5, 0, false},
		{"nan weight", math.NaN(), 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			s.ContentStrategy.PillarWeights = map[string]float64{"seasonalContent": tt.weight}
			s.Seasonal.SeasonalBoosts.CurrentSeasonBoost = ptr(tt.boost)
			s.ContentStrategy.EquipmentSelectionRules.PrioritizeNewEquipment = tt.newGear
			engine := NewEngine(&fakeCatalog{count: tt.count}, s, seeded())

			score := engine.priorityScore(context.Background(), models.PillarSeasonalContent, "Heaters", "Snow Ready")
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestPriorityScoreFormula(t *testing.T) {
	s := testSettings()
	s.ContentStrategy.EquipmentSelectionRules.PrioritizeNewEquipment = true
	engine := NewEngine(&fakeCatalog{count: 6}, s, seeded())

	// 50 + 0.3*40 + 6/2 + 5
	score := engine.priorityScore(context.Background(), models.PillarEquipmentSpotlight, "Excavation", "Winter Context")
	assert.InDelta(t, 70.0, score, 1e-9)

	// (50 + 0.2*40) * 1.5 + 3 + 5, clamped
	score = engine.priorityScore(context.Background(), models.PillarSeasonalContent, "Heaters", "Snow Ready")
	assert.InDelta(t, 95.0, score, 1e-9)
}

func TestPriorityScoreCountFailureTreatedAsZero(t *testing.T) {
	engine := NewEngine(&fakeCatalog{err: errors.New("cms down")}, testSettings(), seeded())

	score := engine.priorityScore(context.Background(), models.PillarEquipmentSpotlight, "Excavation", "Winter Context")
	assert.InDelta(t, 62.0, score, 1e-9)
}

func TestAllZeroWeightsStillPlan(t *testing.T) {
	s := testSettings()
	s.ContentStrategy.PillarWeights = map[string]float64{}
	s.ContentStrategy.PlatformPreferences = map[string]float64{}
	engine := NewEngine(&fakeCatalog{}, s, seeded())

	plans := engine.PlanStrategicContent(context.Background(), 200)
	require.Len(t, plans, 200)

	seen := make(map[models.Pillar]bool)
	for _, p := range plans {
		seen[p.Pillar] = true
		if _, ruled := pillarPlatformRules[p.Pillar]; !ruled {
			assert.Equal(t, models.PlatformFacebook, p.TargetPlatform)
		}
	}
	assert.Len(t, seen, len(models.Pillars))
}

func TestPlatformRules(t *testing.T) {
	engine := NewEngine(&fakeCatalog{}, testSettings(), seeded())

	for i := 0; i < 100; i++ {
		assert.Contains(t, []models.Platform{models.PlatformInstagram, models.PlatformFacebook},
			engine.selectPlatform(models.PillarProjectShowcase))
		assert.Contains(t, []models.Platform{models.PlatformBlog, models.PlatformFacebook},
			engine.selectPlatform(models.PillarSafetyTraining))
	}
}

func TestSeasonalCategoriesFollowPriority(t *testing.T) {
	engine := NewEngine(&fakeCatalog{}, testSettings(), seeded())

	for i := 0; i < 50; i++ {
		assert.Contains(t, []string{"Snow Removal", "Heaters"}, engine.selectCategory(models.PillarSeasonalContent))
	}
	assert.Equal(t, []string{"Landscaping"}, seasonalCategories([]string{"landscaping", "unknown"}, pillarCategories[models.PillarProjectShowcase]))
}

func TestSeasonalContext(t *testing.T) {
	engine := NewEngine(&fakeCatalog{}, testSettings(), seeded())

	assert.Equal(t, "Winter Context", engine.seasonalContext(models.PillarMaintenanceTips))
	assert.Contains(t, []string{"Snow Ready", "Cold Weather Prep"}, engine.seasonalContext(models.PillarSeasonalContent))
}

func TestGetEquipmentTargets(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{equipment: []models.Equipment{
		{ID: "a", PopularityScore: 10, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "b", PopularityScore: 90, CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "c", PopularityScore: 50, CreatedAt: now},
		{ID: "d", PopularityScore: 90, CreatedAt: now},
	}}

	t.Run("most popular first", func(t *testing.T) {
		s := testSettings()
		engine := NewEngine(catalog, s, seeded())
		target := engine.GetEquipmentTargets(context.Background(), models.ContentPlan{EquipmentCategory: "Excavation"})
		assert.Equal(t, []string{"b", "d"}, target.EquipmentIDs)
		assert.Equal(t, "Excavation", target.Category)
		assert.Equal(t, cms.AvailabilityFilter, target.AvailabilityFilter)
	})

	t.Run("newest breaks ties", func(t *testing.T) {
		s := testSettings()
		s.ContentStrategy.EquipmentSelectionRules.PrioritizeNewEquipment = true
		engine := NewEngine(catalog, s, seeded())
		target := engine.GetEquipmentTargets(context.Background(), models.ContentPlan{EquipmentCategory: "Excavation", SeasonalContext: "Winter Context"})
		assert.Equal(t, []string{"d", "b"}, target.EquipmentIDs)
		assert.Contains(t, target.PriorityReasons, "Recently added equipment")
		assert.Contains(t, target.PriorityReasons, "Seasonal relevance for Winter Context")
	})

	t.Run("underutilized first", func(t *testing.T) {
		s := testSettings()
		s.ContentStrategy.EquipmentSelectionRules.PrioritizeUnderutilized = true
		s.ContentStrategy.EquipmentSelectionRules.MaxEquipmentPerPost = 10
		engine := NewEngine(catalog, s, seeded())
		target := engine.GetEquipmentTargets(context.Background(), models.ContentPlan{EquipmentCategory: "Excavation"})
		assert.Equal(t, []string{"a", "c", "b", "d"}, target.EquipmentIDs)
	})
}

func TestGetEquipmentTargetsCatalogFailure(t *testing.T) {
	engine := NewEngine(&fakeCatalog{err: errors.New("timeout")}, testSettings(), seeded())

	target := engine.GetEquipmentTargets(context.Background(), models.ContentPlan{EquipmentCategory: "Pumps"})
	assert.True(t, target.Empty())
	assert.NotNil(t, target.EquipmentIDs)
	assert.Equal(t, []string{"Default equipment selection"}, target.PriorityReasons)
}

func TestRandomPlanner(t *testing.T) {
	catalog := &fakeCatalog{categories: []string{"Pumps", "Heaters"}}
	planner := NewRandomPlanner(catalog, testSettings(), seeded())

	plans := planner.PlanStrategicContent(context.Background(), 30)
	require.Len(t, plans, 30)
	for _, p := range plans {
		assert.Contains(t, []string{"Pumps", "Heaters"}, p.EquipmentCategory)
		assert.GreaterOrEqual(t, p.PriorityScore, 50.0)
		assert.LessOrEqual(t, p.PriorityScore, 100.0)
	}
	assert.True(t, sort.SliceIsSorted(plans, func(i, j int) bool {
		return plans[i].PriorityScore > plans[j].PriorityScore
	}))

	planner.PlanStrategicContent(context.Background(), 3)
	assert.Equal(t, 1, catalog.categoryCalls)
}

func TestRandomPlannerFallbackCategories(t *testing.T) {
	planner := NewRandomPlanner(&fakeCatalog{err: errors.New("boom")}, testSettings(), seeded())

	for _, p := range planner.PlanStrategicContent(context.Background(), 10) {
		assert.Contains(t, fallbackCategories, p.EquipmentCategory)
	}
}

func TestAnalyzeContentPerformance(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog := &fakeCatalog{recent: []cms.ContentSummary{
		{Pillar: "equipment_spotlight", Platform: "facebook"},
		{Pillar: "equipment_spotlight", Platform: "facebook"},
		{Pillar: "equipmentSpotlight", Platform: "instagram"},
		{Pillar: "safety_training", Platform: "blog"},
		{Pillar: "", Platform: ""},
	}}
	engine := NewEngine(catalog, testSettings(), seeded(), WithClock(func() time.Time { return now }))

	report := engine.AnalyzeContentPerformance(context.Background())
	assert.Empty(t, report.Error)
	assert.Equal(t, 5, report.TotalContent)
	assert.Equal(t, 2, report.PillarDistribution["equipment_spotlight"])
	assert.Equal(t, 1, report.PillarDistribution["unknown"])
	assert.Equal(t, 2, report.PlatformDistribution["facebook"])
	assert.Equal(t, now.Add(-30*24*time.Hour), catalog.since)

	assert.Equal(t, []string{
		"Increase customer_success content (current: 0.0%, target: 10.0%)",
		"Increase educational_content content (current: 0.0%, target: 10.0%)",
		"Increase project_showcase content (current: 0.0%, target: 20.0%)",
		"Increase seasonal_content content (current: 0.0%, target: 20.0%)",
	}, report.Recommendations)
}

func TestAnalyzeContentPerformanceError(t *testing.T) {
	engine := NewEngine(&fakeCatalog{err: errors.New("query failed")}, testSettings(), seeded())

	report := engine.AnalyzeContentPerformance(context.Background())
	assert.Equal(t, "query failed", report.Error)
	assert.Zero(t, report.TotalContent)
	assert.Empty(t, report.Recommendations)
}
