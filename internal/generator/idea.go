package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bilgisen/postcraft/internal/ai"
	"github.com/bilgisen/postcraft/internal/imagegen"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/persist"
	"github.com/bilgisen/postcraft/internal/retry"
)

const safePrefix = "SAFE: "

// processIdea runs one plan from equipment targeting to persistence.
// The record is nil unless the CMS accepted it.
func (g *Generator) processIdea(ctx context.Context, plan models.ContentPlan, inputText string) (*models.ContentRecord, IdeaOutcome) {
	outcome := IdeaOutcome{Plan: plan}
	log := logger.Get().With().
		Str("pillar", string(plan.Pillar)).
		Str("platform", string(plan.TargetPlatform)).
		Str("category", plan.EquipmentCategory).
		Logger()

	target := g.deps.Planner.GetEquipmentTargets(ctx, plan)
	if target.Empty() {
		log.Warn().Strs("reasons", target.PriorityReasons).Msg("No equipment for plan, skipping idea")
		outcome.Status, outcome.Err = StatusNoEquipment, ErrNoEquipment
		return nil, outcome
	}

	equipment, err := g.deps.Catalog.EquipmentByIDs(ctx, target.EquipmentIDs)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch equipment data")
		outcome.Status, outcome.Err = StatusFailed, fmt.Errorf("fetching equipment: %w", err)
		return nil, outcome
	}
	if len(equipment) == 0 {
		log.Warn().Strs("ids", target.EquipmentIDs).Msg("Targeted equipment not found in catalog")
		outcome.Status, outcome.Err = StatusNoEquipment, ErrNoEquipment
		return nil, outcome
	}

	prompt := ai.BuildIdeaPrompt(ai.IdeaRequest{
		Count:         1,
		Guidelines:    g.opts.Guidelines,
		Plan:          plan,
		Equipment:     equipment,
		InputText:     inputText,
		ExistingIdeas: g.history,
	})

	idea, images, err := g.generate(ctx, log, plan, equipment, prompt)
	if err != nil {
		log.Error().Err(err).Msg("Text generation failed, abandoning idea")
		outcome.Status, outcome.Err = StatusFailed, err
		return nil, outcome
	}
	outcome.Title = idea.Title
	log = log.With().Str("idea", idea.Title).Logger()

	if g.isDuplicate(ctx, log, idea.Title) {
		outcome.Status, outcome.Err = StatusDuplicate, ErrDuplicate
		return nil, outcome
	}

	title, body := idea.Title, idea.Body
	check, err := g.deps.Safety.Check(ctx, title, body)
	if err != nil {
		log.Error().Err(err).Strs("issues", check.Issues).Msg("Unsafe content without a safe alternative, dropping idea")
		outcome.Status, outcome.Err = StatusUnsafe, err
		return nil, outcome
	}
	if !check.Safe {
		title, body = safePrefix+title, check.SafeAlternative
		log.Warn().Strs("issues", check.Issues).Msg("Replaced unsafe content with safe alternative")
	}

	body = ai.Truncate(body, g.deps.Settings.MaxContentLength(plan.TargetPlatform))
	images = g.deps.Images.OptimizeForPlatform(g.deps.Images.ValidateImages(images), plan.TargetPlatform)

	record := g.assemble(plan, idea, title, body, equipment, images, check.Issues)
	outcome.Title = record.Title
	outcome.RecordID = record.ID

	if err := g.deps.Persister.Persist(ctx, record); err != nil {
		if errors.Is(err, persist.ErrCMSWrite) {
			outcome.Status, outcome.Err = StatusPersistFailed, err
			return nil, outcome
		}
		outcome.Status, outcome.Err = StatusPartial, err
	} else {
		outcome.Status = StatusGenerated
	}

	g.remember(ctx, log, idea.Title)
	log.Info().Str("record", record.ID).Int("images", len(record.Images)).Msg("Generated content")
	return record, outcome
}

// generate runs text generation and image enhancement concurrently.
// Image failures are tolerated; a text failure cancels the image work.
func (g *Generator) generate(ctx context.Context, log zerolog.Logger, plan models.ContentPlan, equipment []models.Equipment, prompt string) (models.ContentIdea, []models.ImageEntry, error) {
	var (
		idea   models.ContentIdea
		images []models.ImageEntry
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		idea, err = retry.Do(egCtx, g.opts.Retry, func(ctx context.Context) (models.ContentIdea, error) {
			return g.generateText(ctx, plan, prompt)
		})
		return err
	})
	eg.Go(func() error {
		entries, err := g.deps.Images.EnhanceEquipmentImages(egCtx, equipment, plan.Pillar, plan.TargetPlatform, plan.SeasonalContext)
		if err != nil {
			log.Warn().Err(err).Msg("Image enhancement failed, continuing without images")
			return nil
		}
		images = entries
		return nil
	})

	if err := eg.Wait(); err != nil {
		return models.ContentIdea{}, nil, err
	}
	return idea, images, nil
}

func (g *Generator) generateText(ctx context.Context, plan models.ContentPlan, prompt string) (models.ContentIdea, error) {
	resp, err := g.deps.Text.GenerateText(ctx, prompt)
	if err != nil {
		return models.ContentIdea{}, err
	}
	ideas, err := ai.ParseIdeas(resp)
	if err != nil {
		return models.ContentIdea{}, err
	}
	for _, idea := range ideas {
		if err := g.post.ProcessIdea(&idea, plan.Pillar); err != nil {
			logger.Get().Debug().Err(err).Msg("Discarding invalid idea")
			continue
		}
		return idea, nil
	}
	return models.ContentIdea{}, ErrNoUsableIdea
}

func (g *Generator) assemble(plan models.ContentPlan, idea models.ContentIdea, title, body string, equipment []models.Equipment, images []models.ImageEntry, issues []string) *models.ContentRecord {
	refs := make([]models.EquipmentRef, 0, len(equipment))
	for _, eq := range equipment {
		refs = append(refs, models.EquipmentRef{ID: eq.ID, Name: eq.Name})
	}

	pillar := plan.Pillar
	if p, ok := models.ParsePillar(idea.Pillar); ok {
		pillar = p
	}

	summary := imagegen.Summarize(images)
	meta := models.GenerationMetadata{
		GeneratedAt:    g.now().UTC(),
		Method:         g.opts.Method,
		TextModel:      g.opts.TextModelName,
		ImageModel:     g.opts.ImageModelName,
		EnhancedImages: summary.Enhanced,
		OriginalImages: summary.Original,
	}

	return &models.ContentRecord{
		ID:               uuid.NewString(),
		Title:            title,
		Body:             body,
		Pillar:           pillar,
		Keywords:         idea.Keywords,
		Platform:         plan.TargetPlatform,
		Plan:             plan,
		RelatedEquipment: refs,
		Images:           images,
		SafetyIssues:     issues,
		Metadata:         meta,
	}
}

func (g *Generator) isDuplicate(ctx context.Context, log zerolog.Logger, title string) bool {
	if g.deps.Guard == nil {
		return false
	}
	seen, err := g.deps.Guard.IsGenerated(ctx, title)
	if err != nil {
		log.Warn().Err(err).Msg("Duplicate check failed, continuing")
		return false
	}
	if seen {
		log.Info().Msg("Idea title was generated before, skipping")
	}
	return seen
}

func (g *Generator) remember(ctx context.Context, log zerolog.Logger, title string) {
	if g.deps.Guard == nil {
		return
	}
	if err := g.deps.Guard.MarkGenerated(ctx, title, g.opts.GuardTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to remember generated title")
	}
}
