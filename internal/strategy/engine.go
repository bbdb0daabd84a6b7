package strategy

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/settings"
)

// Catalog is the read side of the CMS used for planning.
type Catalog interface {
	AvailableEquipmentInCategory(ctx context.Context, category string) ([]models.Equipment, error)
	CountAvailable(ctx context.Context, category string) (int, error)
	Categories(ctx context.Context) ([]string, error)
	RecentContent(ctx context.Context, since time.Time) ([]cms.ContentSummary, error)
}

// Planner produces content plans and resolves them to equipment.
type Planner interface {
	PlanStrategicContent(ctx context.Context, count int) []models.ContentPlan
	GetEquipmentTargets(ctx context.Context, plan models.ContentPlan) models.EquipmentTarget
}

// Engine plans content from the configured pillar weights, platform rules and season.
type Engine struct {
	catalog  Catalog
	settings *settings.Settings
	now      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Engine)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(catalog Catalog, s *settings.Settings, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		settings: s,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlanStrategicContent returns exactly count plans sorted by descending priority.
func (e *Engine) PlanStrategicContent(ctx context.Context, count int) []models.ContentPlan {
	log := logger.Get()
	if count <= 0 {
		return []models.ContentPlan{}
	}
	log.Info().Int("count", count).Msg("Planning strategic content")

	plans := make([]models.ContentPlan, 0, count)
	for i := 0; i < count; i++ {
		pillar := e.selectPillar()
		platform := e.selectPlatform(pillar)
		category := e.selectCategory(pillar)
		seasonalContext := e.seasonalContext(pillar)

		plan := models.ContentPlan{
			Pillar:            pillar,
			TargetPlatform:    platform,
			EquipmentCategory: category,
			SeasonalContext:   seasonalContext,
			PriorityScore:     e.priorityScore(ctx, pillar, category, seasonalContext),
			BusinessRationale: e.rationale(pillar, category, seasonalContext),
		}
		plans = append(plans, plan)

		log.Info().
			Int("plan", i+1).
			Str("pillar", string(pillar)).
			Str("platform", string(platform)).
			Str("category", category).
			Float64("score", plan.PriorityScore).
			Msg("Planned content")
	}

	sortByPriority(plans)
	return plans
}

func sortByPriority(plans []models.ContentPlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].PriorityScore > plans[j].PriorityScore
	})
}

func (e *Engine) selectPillar() models.Pillar {
	weights := make([]float64, len(models.Pillars))
	boost := math.Max(0, e.settings.Seasonal.CurrentBoost())
	for i, p := range models.Pillars {
		w := sanitizeWeight(e.settings.PillarWeight(p))
		if p == models.PillarSeasonalContent {
			w *= boost
		}
		weights[i] = w
	}

	idx := e.weightedIndex(weights)
	if idx < 0 {
		return models.Pillars[e.intN(len(models.Pillars))]
	}
	return models.Pillars[idx]
}

func (e *Engine) selectPlatform(pillar models.Pillar) models.Platform {
	if rules, ok := pillarPlatformRules[pillar]; ok {
		weights := make([]float64, len(rules))
		for i, r := range rules {
			weights[i] = r.weight
		}
		return rules[e.weightedIndex(weights)].platform
	}

	weights := make([]float64, len(models.Platforms))
	for i, p := range models.Platforms {
		weights[i] = sanitizeWeight(e.settings.PlatformPreference(p))
	}
	idx := e.weightedIndex(weights)
	if idx < 0 {
		return models.PlatformFacebook
	}
	return models.Platforms[idx]
}

func (e *Engine) selectCategory(pillar models.Pillar) string {
	allowed := pillarCategories[pillar]
	if len(allowed) == 0 {
		allowed = fallbackCategories
	}

	if pillar == models.PillarSeasonalContent {
		if seasonal := seasonalCategories(e.settings.Seasonal.EquipmentPriority(), allowed); len(seasonal) > 0 {
			return seasonal[e.intN(len(seasonal))]
		}
	}
	return allowed[e.intN(len(allowed))]
}

// seasonalCategories maps season priority keywords to categories present in allowed,
// keeping priority order.
func seasonalCategories(priorities, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, c := range allowed {
		allowedSet[c] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, kw := range priorities {
		category, ok := seasonKeywordCategories[strings.ToLower(strings.TrimSpace(kw))]
		if !ok {
			continue
		}
		if _, ok := allowedSet[category]; !ok {
			continue
		}
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	return out
}

func (e *Engine) seasonalContext(pillar models.Pillar) string {
	themes := e.settings.Seasonal.Themes()
	if pillar == models.PillarSeasonalContent && len(themes) > 0 {
		return themes[e.intN(len(themes))]
	}
	return titleCase(e.settings.Seasonal.Season()) + " Context"
}

func (e *Engine) isSeasonalTheme(context string) bool {
	for _, theme := range e.settings.Seasonal.Themes() {
		if strings.EqualFold(theme, context) {
			return true
		}
	}
	return false
}

func (e *Engine) priorityScore(ctx context.Context, pillar models.Pillar, category, seasonalContext string) float64 {
	weight := clamp(sanitizeWeight(e.settings.PillarWeight(pillar)), 0, 1)
	score := 50 + weight*40

	if pillar == models.PillarSeasonalContent || e.isSeasonalTheme(seasonalContext) {
		score *= e.settings.Seasonal.CurrentBoost()
	}

	count, err := e.catalog.CountAvailable(ctx, category)
	if err != nil {
		logger.Get().Warn().Err(err).Str("category", category).Msg("Failed to count available equipment")
		count = 0
	}
	score += float64(min(max(count, 0), 20)) / 2

	if e.settings.ContentStrategy.EquipmentSelectionRules.PrioritizeNewEquipment {
		score += 5
	}

	if math.IsNaN(score) {
		return 50
	}
	return clamp(score, 0, 100)
}

func (e *Engine) rationale(pillar models.Pillar, category, seasonalContext string) string {
	parts := []string{"Strategic content generation"}
	if r, ok := pillarRationales[pillar]; ok {
		parts[0] = r
	}
	if category != "" {
		parts = append(parts, "Focus on "+category+" equipment for targeted impact")
	}
	season := e.settings.Seasonal.Season()
	if strings.Contains(strings.ToLower(seasonalContext), season) {
		parts = append(parts, "Leverage "+season+" demand patterns")
	}
	return strings.Join(parts, "; ")
}

// GetEquipmentTargets selects available equipment in the plan's category.
// A catalog failure yields an empty target the caller must skip.
func (e *Engine) GetEquipmentTargets(ctx context.Context, plan models.ContentPlan) models.EquipmentTarget {
	rules := e.settings.ContentStrategy.EquipmentSelectionRules

	list, err := e.catalog.AvailableEquipmentInCategory(ctx, plan.EquipmentCategory)
	if err != nil {
		logger.Get().Error().Err(err).Str("category", plan.EquipmentCategory).Msg("Error getting equipment targets")
		return models.EquipmentTarget{
			Category:           plan.EquipmentCategory,
			EquipmentIDs:       []string{},
			AvailabilityFilter: cms.AvailabilityFilter,
			PriorityReasons:    []string{"Default equipment selection"},
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.PopularityScore != b.PopularityScore {
			if rules.PrioritizeUnderutilized {
				return a.PopularityScore < b.PopularityScore
			}
			return a.PopularityScore > b.PopularityScore
		}
		if rules.PrioritizeNewEquipment {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return false
	})

	if limit := rules.MaxPerPost(); len(list) > limit {
		list = list[:limit]
	}
	ids := make([]string, 0, len(list))
	for _, eq := range list {
		ids = append(ids, eq.ID)
	}

	var reasons []string
	if rules.PrioritizeNewEquipment {
		reasons = append(reasons, "Recently added equipment")
	}
	if rules.PrioritizeUnderutilized {
		reasons = append(reasons, "Underutilized equipment needing promotion")
	}
	if plan.SeasonalContext != "" {
		reasons = append(reasons, "Seasonal relevance for "+plan.SeasonalContext)
	}

	return models.EquipmentTarget{
		Category:           plan.EquipmentCategory,
		EquipmentIDs:       ids,
		AvailabilityFilter: cms.AvailabilityFilter,
		PriorityReasons:    reasons,
	}
}

// weightedIndex draws an index proportional to weights, -1 when they sum to zero.
func (e *Engine) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsInf(total, 0) {
		return -1
	}

	e.mu.Lock()
	r := e.rng.Float64() * total
	e.mu.Unlock()

	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	// rounding left r past the end; take the last non-zero weight
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}

func (e *Engine) intN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(n)
}

func (e *Engine) float64() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func sanitizeWeight(w float64) float64 {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
