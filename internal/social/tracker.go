package social

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/notion"
)

// metricsDelay is how long a post collects engagement before it is measured.
const metricsDelay = 3 * 24 * time.Hour

type MetricsSource interface {
	PostMetrics(ctx context.Context, postID string) (notion.Metrics, error)
}

// Tracker copies engagement numbers from Facebook into the calendar.
type Tracker struct {
	calendar Calendar
	source   MetricsSource
	now      func() time.Time
}

func NewTracker(calendar Calendar, source MetricsSource) *Tracker {
	return &Tracker{calendar: calendar, source: source, now: time.Now}
}

// Track updates posts dated three days ago that have no metrics yet and
// returns how many were updated.
func (t *Tracker) Track(ctx context.Context) (int, error) {
	day := t.now().Add(-metricsDelay)
	pages, err := t.calendar.PostedOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("loading posted content: %w", err)
	}
	logger.Get().Info().Int("items", len(pages)).Str("day", day.Format("2006-01-02")).Msg("Tracking post performance")

	updated := 0
	for _, page := range pages {
		if page.PostID == "" {
			logger.Get().Warn().Str("page_id", page.ID).Msg("Posted item has no post id, skipping")
			continue
		}
		metrics, err := t.source.PostMetrics(ctx, page.PostID)
		if err != nil {
			logger.Get().Error().Err(err).Str("post_id", page.PostID).Msg("Failed to fetch post metrics")
			continue
		}
		if err := t.calendar.UpdateMetrics(ctx, page.ID, metrics); err != nil {
			logger.Get().Error().Err(err).Str("page_id", page.ID).Msg("Failed to update metrics")
			continue
		}
		updated++
	}
	return updated, nil
}
