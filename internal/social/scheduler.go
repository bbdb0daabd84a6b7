package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/notion"
)

// MaxMessageLength is the longest copy the scheduler will publish.
const MaxMessageLength = 2000

// minScheduleLead is the earliest the Graph API accepts a scheduled post.
const minScheduleLead = 10 * time.Minute

var ErrInvalidContent = errors.New("invalid content")

// Calendar is the part of the Notion calendar the publishing jobs use.
type Calendar interface {
	ReadyForScheduling(ctx context.Context) ([]notion.Page, error)
	Scheduled(ctx context.Context) ([]notion.Page, error)
	PostedOn(ctx context.Context, day time.Time) ([]notion.Page, error)
	PostedSince(ctx context.Context, since time.Time) ([]notion.Page, error)
	UpdateStatus(ctx context.Context, pageID, status, postID string) error
	UpdateMetrics(ctx context.Context, pageID string, m notion.Metrics) error
}

type Publisher interface {
	CreatePost(ctx context.Context, post Post) (string, error)
	PostStatus(ctx context.Context, postID string) (*PostStatus, error)
}

// Scheduler moves calendar entries from "Ready for Scheduling" to Facebook.
type Scheduler struct {
	calendar  Calendar
	publisher Publisher
	now       func() time.Time
}

func NewScheduler(calendar Calendar, publisher Publisher) *Scheduler {
	return &Scheduler{calendar: calendar, publisher: publisher, now: time.Now}
}

// RunSummary counts what one scheduler pass did.
type RunSummary struct {
	Ready     int `json:"ready"`
	Posted    int `json:"posted"`
	Scheduled int `json:"scheduled"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Promoted  int `json:"promoted"`
}

// ValidatePage checks that an entry can be published.
func ValidatePage(p notion.Page) error {
	if strings.TrimSpace(p.Copy) == "" {
		return fmt.Errorf("%w: copy is empty", ErrInvalidContent)
	}
	if n := len([]rune(p.Copy)); n > MaxMessageLength {
		return fmt.Errorf("%w: copy is %d characters, limit is %d", ErrInvalidContent, n, MaxMessageLength)
	}
	for _, u := range p.ImageURLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%w: image url %q", ErrInvalidContent, u)
		}
	}
	return nil
}

// RunOnce publishes ready entries and promotes scheduled posts that went live.
func (s *Scheduler) RunOnce(ctx context.Context) (RunSummary, error) {
	log := logger.Component("scheduler")
	var summary RunSummary

	ready, err := s.calendar.ReadyForScheduling(ctx)
	if err != nil {
		return summary, fmt.Errorf("loading ready content: %w", err)
	}
	summary.Ready = len(ready)
	log.Info().Int("items", len(ready)).Msg("Found items ready for scheduling")

	for _, page := range ready {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.publish(ctx, page, &summary)
	}

	if err := s.promoteScheduled(ctx, &summary); err != nil {
		return summary, err
	}

	log.Info().
		Int("posted", summary.Posted).
		Int("scheduled", summary.Scheduled).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("promoted", summary.Promoted).
		Msg("Scheduler run finished")
	return summary, nil
}

func (s *Scheduler) publish(ctx context.Context, page notion.Page, summary *RunSummary) {
	log := logger.Component("scheduler").With().Str("page_id", page.ID).Str("title", page.Title).Logger()

	if err := ValidatePage(page); err != nil {
		log.Warn().Err(err).Msg("Skipping invalid content")
		summary.Skipped++
		return
	}

	platform := page.Platform
	if platform == "" {
		platform = "Facebook"
	}
	if !strings.EqualFold(platform, "facebook") {
		log.Info().Str("platform", platform).Msg("Skipping non-Facebook content")
		summary.Skipped++
		return
	}

	post := Post{Message: page.Copy, ImageURLs: page.ImageURLs}
	status := notion.StatusPosted
	if page.PostDate.After(s.now().Add(minScheduleLead)) {
		post.ScheduledAt = page.PostDate
		status = notion.StatusScheduled
	}

	postID, err := s.publisher.CreatePost(ctx, post)
	if err != nil {
		log.Error().Err(err).Msg("Failed to publish post")
		summary.Failed++
		return
	}

	if err := s.calendar.UpdateStatus(ctx, page.ID, status, postID); err != nil {
		// The post exists on Facebook; the calendar is now behind.
		log.Error().Err(err).Str("post_id", postID).Msg("Published but failed to update calendar status")
		summary.Failed++
		return
	}

	if status == notion.StatusScheduled {
		summary.Scheduled++
		log.Info().Str("post_id", postID).Time("publish_at", page.PostDate).Msg("Scheduled post")
	} else {
		summary.Posted++
		log.Info().Str("post_id", postID).Msg("Posted immediately")
	}
}

func (s *Scheduler) promoteScheduled(ctx context.Context, summary *RunSummary) error {
	scheduled, err := s.calendar.Scheduled(ctx)
	if err != nil {
		return fmt.Errorf("loading scheduled content: %w", err)
	}

	for _, page := range scheduled {
		if page.PostID == "" {
			continue
		}
		status, err := s.publisher.PostStatus(ctx, page.PostID)
		if err != nil {
			logger.Get().Warn().Err(err).Str("post_id", page.PostID).Msg("Could not get post status")
			continue
		}
		if !status.IsPublished {
			continue
		}
		if err := s.calendar.UpdateStatus(ctx, page.ID, notion.StatusPosted, page.PostID); err != nil {
			logger.Get().Error().Err(err).Str("page_id", page.ID).Msg("Failed to mark post as posted")
			continue
		}
		summary.Promoted++
	}
	return nil
}

// Run calls RunOnce every interval until ctx is cancelled. Failed passes are logged.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Get().Error().Err(err).Msg("Scheduler run failed")
		}
		select {
		case <-ctx.Done():
			logger.Get().Info().Msg("Scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
