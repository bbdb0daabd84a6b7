package persist

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/bilgisen/postcraft/internal/cms"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/notion"
)

var (
	// ErrCMSWrite marks a record that never reached the CMS. Nothing else was written.
	ErrCMSWrite = errors.New("cms write failed")
	// ErrNotionMirror marks a record saved to the CMS but missing from the calendar.
	ErrNotionMirror = errors.New("notion mirror failed")
)

type CMS interface {
	Save(ctx context.Context, doc any) (*cms.MutateResult, error)
	UploadImage(ctx context.Context, data []byte, mimeType, filename string) (*cms.Asset, error)
}

type Calendar interface {
	CreateIdeaPage(ctx context.Context, idea notion.Idea) (string, error)
}

type ObjectStore interface {
	Key(name, mimeType string) string
	Put(ctx context.Context, key string, data []byte, mimeType string) (string, error)
}

type Archive interface {
	SaveRecord(ctx context.Context, record *models.ContentRecord) error
}

// Pipeline writes a finished record to the CMS, then Notion, then the local archive.
// Each store is written at most once and there is no rollback across stores.
type Pipeline struct {
	cms      CMS
	calendar Calendar
	store    ObjectStore
	archive  Archive
	rng      *rand.Rand
	now      func() time.Time
}

type Option func(*Pipeline)

// WithObjectStore hosts enhanced images in a bucket instead of CMS assets.
func WithObjectStore(s ObjectStore) Option {
	return func(p *Pipeline) { p.store = s }
}

func WithArchive(a Archive) Option {
	return func(p *Pipeline) { p.archive = a }
}

func WithRand(r *rand.Rand) Option {
	return func(p *Pipeline) { p.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(c CMS, calendar Calendar, opts ...Option) *Pipeline {
	p := &Pipeline{
		cms:      c,
		calendar: calendar,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x706f7374)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Persist stores record and fills in its CMSID, NotionPageID and FilePath.
// The error wraps ErrCMSWrite or ErrNotionMirror; archive failures are only logged.
func (p *Pipeline) Persist(ctx context.Context, record *models.ContentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	log := logger.Get().With().Str("record", record.ID).Str("title", record.Title).Logger()

	record.Images = p.hostImages(ctx, record.Images)

	if _, err := p.cms.Save(ctx, toDocument(record)); err != nil {
		log.Error().Err(err).Msg("Failed to save content to CMS, skipping Notion")
		return fmt.Errorf("%w: %w", ErrCMSWrite, err)
	}
	record.CMSID = record.ID
	log.Info().Msg("Saved content to CMS")

	var mirrorErr error
	if p.calendar != nil {
		pageID, err := p.calendar.CreateIdeaPage(ctx, p.calendarIdea(record))
		if err != nil {
			log.Error().Err(err).Msg("Failed to mirror content to Notion")
			mirrorErr = fmt.Errorf("%w: %w", ErrNotionMirror, err)
		} else {
			record.NotionPageID = pageID
			log.Info().Str("page_id", pageID).Msg("Mirrored content to Notion")
		}
	}

	if p.archive != nil {
		if err := p.archive.SaveRecord(ctx, record); err != nil {
			log.Warn().Err(err).Msg("Failed to archive content locally")
		}
	}

	return mirrorErr
}

// hostImages uploads enhanced bytes so every entry ends up with a URL.
// An enhanced image that cannot be hosted falls back to its source photo, and
// is dropped only when it has none.
func (p *Pipeline) hostImages(ctx context.Context, images []models.ImageEntry) []models.ImageEntry {
	hosted := make([]models.ImageEntry, 0, len(images))
	for _, img := range images {
		if len(img.Data) == 0 {
			if img.URL != "" {
				hosted = append(hosted, img)
			}
			continue
		}

		mimeType := img.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}

		if p.store != nil {
			url, err := p.store.Put(ctx, p.store.Key(img.EquipmentName, mimeType), img.Data, mimeType)
			if err == nil {
				img.URL = url
				img.Data = nil
				hosted = append(hosted, img)
				continue
			}
			logger.Get().Warn().Err(err).Str("equipment", img.EquipmentName).Msg("Object store upload failed, trying CMS assets")
		}

		asset, err := p.cms.UploadImage(ctx, img.Data, mimeType, fmt.Sprintf("%s-%s", img.EquipmentID, uuid.NewString()[:8]))
		if err != nil {
			if img.SourceURL == "" {
				logger.Get().Warn().Err(err).Str("equipment", img.EquipmentName).Msg("Failed to host enhanced image, dropping it")
				continue
			}
			logger.Get().Warn().Err(err).Str("equipment", img.EquipmentName).Msg("Failed to host enhanced image, using original photo")
			hosted = append(hosted, originalPhoto(img))
			continue
		}
		img.AssetID = asset.ID
		img.URL = asset.URL
		img.Data = nil
		hosted = append(hosted, img)
	}
	return hosted
}

func originalPhoto(img models.ImageEntry) models.ImageEntry {
	img.Kind = models.ImageOriginal
	img.URL = img.SourceURL
	img.Data = nil
	img.MIMEType = ""
	img.EnhancementPrompt = ""
	img.EnhancementDescription = "Using original equipment photo"
	return img
}

// calendarIdea proposes a post date one to two weeks out.
func (p *Pipeline) calendarIdea(r *models.ContentRecord) notion.Idea {
	urls := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return notion.Idea{
		Title:     r.Title,
		Body:      r.Body,
		Pillar:    r.Pillar.Label(),
		Platform:  string(r.Platform),
		Status:    notion.StatusAISuggestion,
		PostDate:  p.now().AddDate(0, 0, 7+p.rng.IntN(8)),
		ImageURLs: urls,
	}
}
