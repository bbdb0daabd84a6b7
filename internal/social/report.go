package social

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/notion"
)

type Reporter struct {
	calendar Calendar
	dir      string
	now      func() time.Time
}

func NewReporter(calendar Calendar, dir string) *Reporter {
	return &Reporter{calendar: calendar, dir: dir, now: time.Now}
}

// Generate writes this month's report and returns its path.
func (r *Reporter) Generate(ctx context.Context) (string, error) {
	now := r.now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	pages, err := r.calendar.PostedSince(ctx, firstOfMonth)
	if err != nil {
		return "", fmt.Errorf("loading posted content: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("monthly_report_%s.md", now.Format("2006-01")))
	if err := os.WriteFile(path, []byte(BuildReport(pages, now)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info().Str("path", path).Int("posts", len(pages)).Msg("Saved monthly report")
	return path, nil
}

// BuildReport renders posts, sorted by likes, as a markdown summary.
func BuildReport(pages []notion.Page, month time.Time) string {
	if len(pages) == 0 {
		return "# Monthly Performance Report\n\nNo posts with performance data found for this month.\n"
	}

	var total notion.Metrics
	for _, p := range pages {
		m := metricsOf(p)
		total.Likes += m.Likes
		total.Comments += m.Comments
		total.Reach += m.Reach
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Social Media Performance Report: %s\n\n", month.Format("January 2006"))
	b.WriteString("## 1. Executive Summary\n\n")
	fmt.Fprintf(&b, "- **Total Posts:** %d\n", len(pages))
	fmt.Fprintf(&b, "- **Total Likes:** %d\n", total.Likes)
	fmt.Fprintf(&b, "- **Total Comments:** %d\n", total.Comments)
	fmt.Fprintf(&b, "- **Total Reach:** %d\n\n", total.Reach)

	b.WriteString("## 2. Top 3 Performing Posts (by Likes)\n\n")
	for i, p := range pages[:min(3, len(pages))] {
		m := metricsOf(p)
		fmt.Fprintf(&b, "### %d. %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "- **Likes:** %d\n", m.Likes)
		fmt.Fprintf(&b, "- **Comments:** %d\n", m.Comments)
		fmt.Fprintf(&b, "- **Reach:** %d\n\n", m.Reach)
	}

	b.WriteString("## 3. Key Takeaways & Recommendations\n\n")
	b.WriteString(pillarBreakdown(pages))
	return b.String()
}

func metricsOf(p notion.Page) notion.Metrics {
	if p.Metrics == nil {
		return notion.Metrics{}
	}
	return *p.Metrics
}

// pillarBreakdown lists average likes per content pillar in first-seen order.
func pillarBreakdown(pages []notion.Page) string {
	type agg struct{ posts, likes int }
	var order []string
	byPillar := map[string]*agg{}
	for _, p := range pages {
		name := p.Pillar
		if name == "" {
			name = "Uncategorised"
		}
		a, ok := byPillar[name]
		if !ok {
			a = &agg{}
			byPillar[name] = a
			order = append(order, name)
		}
		a.posts++
		a.likes += metricsOf(p).Likes
	}

	var b strings.Builder
	for _, name := range order {
		a := byPillar[name]
		fmt.Fprintf(&b, "- %s: %d post(s), %.1f likes on average\n", name, a.posts, float64(a.likes)/float64(a.posts))
	}
	return b.String()
}
