package settings

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/logger"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

var defaultFiles = []struct {
	docType string
	file    string
}{
	{TypeContentStrategy, "defaults/content_strategy.yaml"},
	{TypeSeasonal, "defaults/seasonal_settings.yaml"},
	{TypeImageGeneration, "defaults/image_generation_settings.yaml"},
	{TypePlatforms, "defaults/platform_settings.yaml"},
}

// Defaults decodes the embedded default documents into a Settings value.
func Defaults() (*Settings, error) {
	var s Settings
	targets := map[string]any{
		TypeContentStrategy: &s.ContentStrategy,
		TypeSeasonal:        &s.Seasonal,
		TypeImageGeneration: &s.ImageGeneration,
		TypePlatforms:       &s.Platforms,
	}
	for _, f := range defaultFiles {
		data, err := defaultsFS.ReadFile(f.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.file, err)
		}
		if err := yaml.Unmarshal(data, targets[f.docType]); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.file, err)
		}
	}
	return &s, nil
}

// SeedResult reports what Seed did for one document type
type SeedResult struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// Seed creates the embedded default documents in the CMS. A type that already
// has an active document is left untouched.
func (l *Loader) Seed(ctx context.Context) ([]SeedResult, error) {
	log := logger.Get()
	var results []SeedResult
	var errs []error

	for _, f := range defaultFiles {
		var existing struct {
			ID string `json:"_id"`
		}
		found, err := l.store.Query(ctx, activeDocumentQuery+`{_id}`, map[string]any{"type": f.docType}, &existing)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to check %s: %w", f.docType, err))
			continue
		}
		if found {
			log.Info().Str("type", f.docType).Str("id", existing.ID).Msg("Active settings document exists, skipping")
			results = append(results, SeedResult{Type: f.docType, ID: existing.ID})
			continue
		}

		doc, err := defaultDocument(f.file)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		res, err := l.store.Mutate(ctx, cms.Create(doc))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s: %w", f.docType, err))
			continue
		}
		if !res.Succeeded() {
			errs = append(errs, fmt.Errorf("%w: %s", cms.ErrMutationRejected, f.docType))
			continue
		}

		id, _ := doc["_id"].(string)
		log.Info().Str("type", f.docType).Str("id", id).Msg("Created default settings document")
		results = append(results, SeedResult{Type: f.docType, ID: id, Created: true})
	}

	return results, errors.Join(errs...)
}

func defaultDocument(file string) (map[string]any, error) {
	data, err := defaultsFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	doc["_id"] = uuid.NewString()
	doc["active"] = true
	doc["createdAt"] = now
	doc["updatedAt"] = now
	return doc, nil
}
