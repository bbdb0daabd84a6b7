package commerce

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/logger"
)

// mutationBatch caps the documents written per CMS transaction.
const mutationBatch = 50

type Source interface {
	Categories(ctx context.Context) (map[int]string, error)
	Products(ctx context.Context, page int) ([]Product, error)
}

type Mutator interface {
	Mutate(ctx context.Context, mutations ...cms.Mutation) (*cms.MutateResult, error)
}

// SyncResult counts what a catalog sync did.
type SyncResult struct {
	Products int
	Written  int
	Invalid  []error
}

// Syncer copies the store catalog into CMS equipment documents.
type Syncer struct {
	source Source
	cms    Mutator
}

func NewSyncer(source Source, cms Mutator) *Syncer {
	return &Syncer{source: source, cms: cms}
}

// Sync fetches every published product and writes it with createOrReplace.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	log := logger.Component("catalog")
	start := time.Now()

	categories, err := s.source.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching categories: %w", err)
	}
	log.Info().Int("categories", len(categories)).Msg("Fetched store categories")

	result := &SyncResult{}
	var pending []cms.Mutation
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if _, err := s.cms.Mutate(ctx, pending...); err != nil {
			return fmt.Errorf("error writing equipment: %w", err)
		}
		result.Written += len(pending)
		pending = pending[:0]
		return nil
	}

	for page := 1; ; page++ {
		products, err := s.source.Products(ctx, page)
		if err != nil {
			return result, fmt.Errorf("error fetching products page %d: %w", page, err)
		}
		if len(products) == 0 {
			break
		}
		result.Products += len(products)

		for _, p := range products {
			if err := ValidateProduct(p); err != nil {
				result.Invalid = append(result.Invalid, fmt.Errorf("invalid product %d: %w", p.ID, err))
				continue
			}
			pending = append(pending, cms.CreateOrReplace(ToEquipment(p, categories)))
			if len(pending) >= mutationBatch {
				if err := flush(); err != nil {
					return result, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	if len(result.Invalid) > 0 {
		log.Warn().Errs("validation_errors", result.Invalid).Msg("Skipped invalid products")
	}
	log.Info().
		Int("products", result.Products).
		Int("written", result.Written).
		Dur("duration", time.Since(start)).
		Msg("Catalog sync finished")
	return result, nil
}
