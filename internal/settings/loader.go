package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/logger"
)

var (
	// ErrNotLoaded is returned by accessors before a successful LoadAll.
	ErrNotLoaded = errors.New("settings not loaded")
	// ErrNoActiveDocument is returned when a document type has no active document.
	ErrNoActiveDocument = errors.New("no active settings document")
)

// Document types
const (
	TypeContentStrategy = "contentStrategy"
	TypeSeasonal        = "seasonalSettings"
	TypeImageGeneration = "imageGenerationSettings"
	TypePlatforms       = "platformSettings"
)

const activeDocumentQuery = `*[_type == $type && active == true][0]`

// Store is the subset of the CMS client the settings package needs
type Store interface {
	Query(ctx context.Context, groq string, params map[string]any, out any) (bool, error)
	Mutate(ctx context.Context, mutations ...cms.Mutation) (*cms.MutateResult, error)
}

// Loader fetches the four singleton settings documents from the CMS.
type Loader struct {
	store Store

	mu              sync.RWMutex
	contentStrategy *ContentStrategy
	seasonal        *Seasonal
	imageGeneration *ImageGeneration
	platforms       *Platforms
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// LoadAll fetches every document in order. Documents loaded before a failure
// stay populated. Transport errors abort the load without retrying.
func (l *Loader) LoadAll(ctx context.Context) (*Settings, error) {
	log := logger.Get()
	log.Info().Msg("Loading settings documents from CMS")

	var cs ContentStrategy
	if err := l.fetch(ctx, TypeContentStrategy, &cs); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.contentStrategy = &cs
	l.mu.Unlock()

	var seasonal Seasonal
	if err := l.fetch(ctx, TypeSeasonal, &seasonal); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.seasonal = &seasonal
	l.mu.Unlock()

	var img ImageGeneration
	if err := l.fetch(ctx, TypeImageGeneration, &img); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.imageGeneration = &img
	l.mu.Unlock()

	var platforms Platforms
	if err := l.fetch(ctx, TypePlatforms, &platforms); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.platforms = &platforms
	l.mu.Unlock()

	log.Info().
		Str("season", seasonal.Season()).
		Int("pillar_weights", len(cs.PillarWeights)).
		Msg("Settings loaded")

	return l.Settings()
}

func (l *Loader) fetch(ctx context.Context, docType string, out any) error {
	found, err := l.store.Query(ctx, activeDocumentQuery, map[string]any{"type": docType}, out)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", docType, err)
	}
	if !found {
		logger.Get().Error().Str("type", docType).Msg("No active settings document")
		return fmt.Errorf("%w: %s", ErrNoActiveDocument, docType)
	}
	return nil
}

// Refresh clears every document and loads them again.
func (l *Loader) Refresh(ctx context.Context) (*Settings, error) {
	l.mu.Lock()
	l.contentStrategy = nil
	l.seasonal = nil
	l.imageGeneration = nil
	l.platforms = nil
	l.mu.Unlock()
	return l.LoadAll(ctx)
}

func (l *Loader) ContentStrategy() (ContentStrategy, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.contentStrategy == nil {
		return ContentStrategy{}, fmt.Errorf("%w: %s", ErrNotLoaded, TypeContentStrategy)
	}
	return *l.contentStrategy, nil
}

func (l *Loader) Seasonal() (Seasonal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.seasonal == nil {
		return Seasonal{}, fmt.Errorf("%w: %s", ErrNotLoaded, TypeSeasonal)
	}
	return *l.seasonal, nil
}

func (l *Loader) ImageGeneration() (ImageGeneration, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.imageGeneration == nil {
		return ImageGeneration{}, fmt.Errorf("%w: %s", ErrNotLoaded, TypeImageGeneration)
	}
	return *l.imageGeneration, nil
}

func (l *Loader) Platforms() (Platforms, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.platforms == nil {
		return Platforms{}, fmt.Errorf("%w: %s", ErrNotLoaded, TypePlatforms)
	}
	return *l.platforms, nil
}

// Settings returns a snapshot of all four documents.
func (l *Loader) Settings() (*Settings, error) {
	cs, err := l.ContentStrategy()
	if err != nil {
		return nil, err
	}
	seasonal, err := l.Seasonal()
	if err != nil {
		return nil, err
	}
	img, err := l.ImageGeneration()
	if err != nil {
		return nil, err
	}
	platforms, err := l.Platforms()
	if err != nil {
		return nil, err
	}
	return &Settings{
		ContentStrategy: cs,
		Seasonal:        seasonal,
		ImageGeneration: img,
		Platforms:       platforms,
	}, nil
}
