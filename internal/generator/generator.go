package generator

import (
	"context"
	"errors"
	"time"

	"github.com/bilgisen/postcraft/internal/ai"
	"github.com/bilgisen/postcraft/internal/cache"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/notion"
	"github.com/bilgisen/postcraft/internal/retry"
	"github.com/bilgisen/postcraft/internal/safety"
	"github.com/bilgisen/postcraft/internal/settings"
	"github.com/bilgisen/postcraft/internal/strategy"
)

var (
	// ErrNoEquipment is recorded when a plan resolves to no catalog items.
	ErrNoEquipment = errors.New("no equipment matched the plan")
	// ErrNoUsableIdea is recorded when the model answered but no idea passed validation.
	ErrNoUsableIdea = errors.New("model returned no usable idea")
	// ErrDuplicate is recorded when the idea title was generated before.
	ErrDuplicate = errors.New("idea was already generated")
)

// Status is the terminal state of one idea.
type Status string

const (
	StatusGenerated     Status = "generated"
	StatusPartial       Status = "partial"
	StatusNoEquipment   Status = "no_equipment"
	StatusDuplicate     Status = "duplicate"
	StatusUnsafe        Status = "unsafe"
	StatusFailed        Status = "failed"
	StatusPersistFailed Status = "persist_failed"
)

// Catalog resolves equipment IDs to full catalog records.
type Catalog interface {
	EquipmentByIDs(ctx context.Context, ids []string) ([]models.Equipment, error)
}

type ImageEnhancer interface {
	EnhanceEquipmentImages(ctx context.Context, equipment []models.Equipment, pillar models.Pillar, platform models.Platform, contentContext string) ([]models.ImageEntry, error)
	ValidateImages(images []models.ImageEntry) []models.ImageEntry
	OptimizeForPlatform(images []models.ImageEntry, platform models.Platform) []models.ImageEntry
}

type SafetyChecker interface {
	Check(ctx context.Context, title, body string) (safety.Result, error)
}

type Persister interface {
	Persist(ctx context.Context, record *models.ContentRecord) error
}

// IdeaHistory lists calendar entries the model should not repeat.
type IdeaHistory interface {
	ExistingIdeas(ctx context.Context, limit int) ([]notion.Page, error)
}

// Analyzer is implemented by planners that can report on recent content.
type Analyzer interface {
	AnalyzeContentPerformance(ctx context.Context) models.PerformanceReport
}

// Deps are the collaborators of a Generator. Guard and History are optional.
type Deps struct {
	Planner   strategy.Planner
	Catalog   Catalog
	Text      ai.TextModel
	Images    ImageEnhancer
	Safety    SafetyChecker
	Persister Persister
	Guard     cache.TitleGuard
	History   IdeaHistory
	Settings  *settings.Settings
}

type Options struct {
	Guidelines     string
	Retry          retry.Policy
	Method         string
	TextModelName  string
	ImageModelName string
	// GuardTTL is how long a generated title blocks repeats.
	GuardTTL time.Duration
}

type Request struct {
	NumIdeas           int
	InputText          string
	AnalyzePerformance bool
}

// IdeaOutcome records what happened to one planned idea.
type IdeaOutcome struct {
	Plan     models.ContentPlan `json:"plan"`
	Title    string             `json:"title,omitempty"`
	Status   Status             `json:"status"`
	RecordID string             `json:"record_id,omitempty"`
	Err      error              `json:"-"`
	Error    string             `json:"error,omitempty"`
}

// BatchResult holds the persisted records and one outcome per plan, in plan order.
type BatchResult struct {
	Records     []*models.ContentRecord   `json:"records"`
	Outcomes    []IdeaOutcome             `json:"outcomes"`
	Performance *models.PerformanceReport `json:"performance,omitempty"`
}

// Count returns how many outcomes have the given status.
func (b *BatchResult) Count(status Status) int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

type Generator struct {
	deps    Deps
	opts    Options
	post    *ai.PostProcessor
	now     func() time.Time
	history []ai.ExistingIdea
}

func New(deps Deps, opts Options) *Generator {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.Default()
	}
	if opts.Method == "" {
		opts.Method = "strategic"
	}
	if opts.Guidelines == "" {
		opts.Guidelines = settings.DefaultContentGuidelines
	}
	return &Generator{
		deps: deps,
		opts: opts,
		post: ai.NewPostProcessor(),
		now:  time.Now,
	}
}

// Generate plans NumIdeas ideas and runs each through the pipeline one at a time.
// A failed idea is recorded in the outcomes and never stops the batch; the error is
// non-nil only when ctx is cancelled.
func (g *Generator) Generate(ctx context.Context, req Request) (*BatchResult, error) {
	log := logger.Get()
	start := g.now()
	result := &BatchResult{Records: []*models.ContentRecord{}, Outcomes: []IdeaOutcome{}}

	if req.AnalyzePerformance {
		if analyzer, ok := g.deps.Planner.(Analyzer); ok {
			report := analyzer.AnalyzeContentPerformance(ctx)
			result.Performance = &report
			log.Info().
				Int("total_content", report.TotalContent).
				Strs("recommendations", report.Recommendations).
				Msg("Analyzed recent content performance")
		}
	}

	g.history = g.loadHistory(ctx)

	plans := g.deps.Planner.PlanStrategicContent(ctx, req.NumIdeas)
	log.Info().Int("requested", req.NumIdeas).Int("plans", len(plans)).Msg("Planned content batch")

	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("processed", i).Msg("Generation cancelled")
			return result, err
		}

		record, outcome := g.processIdea(ctx, plan, req.InputText)
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if record != nil {
			result.Records = append(result.Records, record)
			g.history = append(g.history, ai.ExistingIdea{Title: record.Title, Copy: record.Body})
		}
	}

	log.Info().
		Int("generated", len(result.Records)).
		Int("no_equipment", result.Count(StatusNoEquipment)).
		Int("failed", result.Count(StatusFailed)+result.Count(StatusPersistFailed)+result.Count(StatusUnsafe)).
		Dur("duration", g.now().Sub(start)).
		Msg("Finished content batch")
	return result, nil
}

func (g *Generator) loadHistory(ctx context.Context) []ai.ExistingIdea {
	if g.deps.History == nil {
		return nil
	}
	pages, err := g.deps.History.ExistingIdeas(ctx, 20)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("Could not load existing ideas, continuing without them")
		return nil
	}
	ideas := make([]ai.ExistingIdea, 0, len(pages))
	for _, p := range pages {
		if p.Title != "" {
			ideas = append(ideas, ai.ExistingIdea{Title: p.Title, Copy: p.Copy})
		}
	}
	return ideas
}
