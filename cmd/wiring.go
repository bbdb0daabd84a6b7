package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postcraft/internal/ai"
	"github.com/bilgisen/postcraft/internal/cache"
	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/commerce"
	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/generator"
	"github.com/bilgisen/postcraft/internal/imagegen"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/notion"
	"github.com/bilgisen/postcraft/internal/objectstore"
	"github.com/bilgisen/postcraft/internal/persist"
	"github.com/bilgisen/postcraft/internal/retry"
	"github.com/bilgisen/postcraft/internal/safety"
	"github.com/bilgisen/postcraft/internal/settings"
	"github.com/bilgisen/postcraft/internal/social"
	"github.com/bilgisen/postcraft/internal/storage"
	"github.com/bilgisen/postcraft/internal/strategy"
)

func newCMS(cfg *config.Config) *cms.Client {
	return cms.NewClient(cms.Config{
		ProjectID:  cfg.SanityProjectID,
		Dataset:    cfg.SanityDataset,
		Token:      cfg.SanityToken,
		APIVersion: cfg.SanityAPIVersion,
		UseCDN:     cfg.SanityUseCDN,
		Timeout:    cfg.HTTPTimeout,
	})
}

func newNotion(cfg *config.Config) *notion.Client {
	return notion.NewClient(notion.Config{
		Token:      cfg.NotionToken,
		DatabaseID: cfg.NotionDatabaseID,
		Timeout:    cfg.HTTPTimeout,
	})
}

func newFacebook(cfg *config.Config) *social.FacebookPoster {
	return social.NewFacebookPoster(social.FacebookConfig{
		PageToken:    cfg.FacebookPageToken,
		PageID:       cfg.FacebookPageID,
		GraphVersion: cfg.FacebookGraphVersion,
		Timeout:      cfg.HTTPTimeout,
	})
}

func newCommerce(cfg *config.Config) *commerce.Client {
	return commerce.NewClient(commerce.Config{
		URL:            cfg.WooURL,
		ConsumerKey:    cfg.WooConsumerKey,
		ConsumerSecret: cfg.WooConsumerSecret,
		Timeout:        cfg.HTTPTimeout,
	})
}

// planner is what the generator and the performance endpoint need from a strategy.
type planner interface {
	strategy.Planner
	generator.Analyzer
}

// contentPipeline holds the generation stack for one process.
type contentPipeline struct {
	generator *generator.Generator
	planner   planner
	archive   *storage.Storage
	calendar  *notion.Client
	guard     cache.TitleGuard
}

func (p *contentPipeline) Close() {
	if err := p.guard.Close(); err != nil {
		logger.Get().Error().Err(err).Msg("Error closing title guard")
	}
}

// buildPipeline connects every service the generate flow needs. Settings must
// already be seeded in the CMS.
func buildPipeline(ctx context.Context, cfg *config.Config, strategyName string) (*contentPipeline, error) {
	log := logger.Get()

	gemini, err := ai.NewGeminiClient(ctx, ai.Config{
		APIKey:     cfg.AIApiKey,
		TextModel:  cfg.AITextModel,
		ImageModel: cfg.AIImageModel,
		Timeout:    cfg.AITimeout,
	})
	if err != nil {
		return nil, err
	}

	cmsClient := newCMS(cfg)
	loader := settings.NewLoader(cmsClient)
	s, err := loader.LoadAll(ctx)
	if errors.Is(err, settings.ErrNoActiveDocument) {
		return nil, fmt.Errorf("%w (run `postcraft settings seed` first)", err)
	}
	if err != nil {
		return nil, err
	}

	var plan planner
	switch strategyName {
	case "", "weighted":
		plan = strategy.NewEngine(cmsClient, s)
	case "random":
		plan = strategy.NewRandomPlanner(cmsClient, s)
	default:
		return nil, fmt.Errorf("unknown strategy %q (want weighted or random)", strategyName)
	}

	guidelines := loader.ContentPrompt(ctx)
	checker := safety.NewValidator(gemini,
		safety.WithGuidelines(guidelines),
		safety.WithAlternativeTemplate(loader.SafeAlternativePrompt(ctx)))

	archive, err := storage.NewStorage(cfg.ProcessedPath)
	if err != nil {
		return nil, err
	}

	calendar := newNotion(cfg)
	opts := []persist.Option{persist.WithArchive(archive)}
	if cfg.ObjectStoreEnabled() {
		store, err := objectstore.New(ctx, objectstore.FromConfig(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("Object store unavailable, images will be uploaded as CMS assets")
		} else {
			opts = append(opts, persist.WithObjectStore(store))
		}
	}

	guard, err := cache.NewGuard(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, duplicate guard limited to this run")
		guard = cache.NewMemoryGuard()
	}

	images := imagegen.NewGenerator(gemini, s,
		imagegen.WithHTTPClient(resty.New().SetTimeout(cfg.HTTPTimeout).SetRetryCount(2)),
		imagegen.WithBrandName(cfg.BrandName))

	gen := generator.New(generator.Deps{
		Planner:   plan,
		Catalog:   cmsClient,
		Text:      gemini,
		Images:    images,
		Safety:    checker,
		Persister: persist.NewPipeline(cmsClient, calendar, opts...),
		Guard:     guard,
		History:   calendar,
		Settings:  s,
	}, generator.Options{
		Guidelines:     guidelines,
		Retry:          retry.FromConfig(cfg, "text-generation"),
		Method:         "strategic-" + strategyOrDefault(strategyName),
		TextModelName:  gemini.TextModelName(),
		ImageModelName: gemini.ImageModelName(),
		GuardTTL:       cfg.CacheTTL,
	})

	return &contentPipeline{
		generator: gen,
		planner:   plan,
		archive:   archive,
		calendar:  calendar,
		guard:     guard,
	}, nil
}

func strategyOrDefault(name string) string {
	if name == "" {
		return "weighted"
	}
	return name
}
