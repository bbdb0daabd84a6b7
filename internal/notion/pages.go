package notion

import (
	"context"
	"strings"
	"time"
)

// Content calendar property names.
const (
	PropName     = "Name"
	PropStatus   = "Status"
	PropPillar   = "Content Pillar"
	PropPostDate = "Post Date"
	PropCopy     = "Copy"
	PropPlatform = "Platform"
	PropPostID   = "Post ID"
	PropCreative = "Creative"
	PropLikes    = "Likes"
	PropComments = "Comments"
	PropReach    = "Reach"
)

// Status values of the calendar workflow.
const (
	StatusAISuggestion = "AI Suggestion"
	StatusReady        = "Ready for Scheduling"
	StatusScheduled    = "Scheduled"
	StatusPosted       = "Posted"
)

// Idea is a new calendar entry.
type Idea struct {
	Title     string
	Body      string
	Pillar    string
	Platform  string
	Status    string
	PostDate  time.Time
	ImageURLs []string
}

type Metrics struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Reach    int `json:"reach"`
}

// Page is a calendar entry with its properties flattened.
type Page struct {
	ID        string
	Title     string
	Status    string
	Pillar    string
	Platform  string
	Copy      string
	PostID    string
	PostDate  time.Time
	ImageURLs []string
	// Metrics is nil until performance numbers have been recorded.
	Metrics *Metrics
}

type richText struct {
	PlainText string `json:"plain_text"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

type namedOption struct {
	Name string `json:"name"`
}

type fileObject struct {
	Type     string `json:"type"`
	External struct {
		URL string `json:"url"`
	} `json:"external"`
	File struct {
		URL string `json:"url"`
	} `json:"file"`
}

type property struct {
	Type     string       `json:"type"`
	Title    []richText   `json:"title"`
	RichText []richText   `json:"rich_text"`
	Select   *namedOption `json:"select"`
	Status   *namedOption `json:"status"`
	Date     *struct {
		Start string `json:"start"`
	} `json:"date"`
	Files  []fileObject `json:"files"`
	Number *float64     `json:"number"`
}

type rawPage struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

func (r rawPage) parse() Page {
	p := Page{
		ID:       r.ID,
		Title:    joinText(r.Properties[PropName].Title),
		Copy:     joinText(r.Properties[PropCopy].RichText),
		PostID:   joinText(r.Properties[PropPostID].RichText),
		Status:   optionName(r.Properties[PropStatus]),
		Pillar:   optionName(r.Properties[PropPillar]),
		Platform: optionName(r.Properties[PropPlatform]),
	}

	if d := r.Properties[PropPostDate].Date; d != nil && d.Start != "" {
		p.PostDate = parseDate(d.Start)
	}

	for _, f := range r.Properties[PropCreative].Files {
		switch {
		case f.Type == "external" && f.External.URL != "":
			p.ImageURLs = append(p.ImageURLs, f.External.URL)
		case f.File.URL != "":
			p.ImageURLs = append(p.ImageURLs, f.File.URL)
		}
	}

	if likes := r.Properties[PropLikes].Number; likes != nil {
		p.Metrics = &Metrics{Likes: int(*likes)}
		if n := r.Properties[PropComments].Number; n != nil {
			p.Metrics.Comments = int(*n)
		}
		if n := r.Properties[PropReach].Number; n != nil {
			p.Metrics.Reach = int(*n)
		}
	}
	return p
}

func joinText(parts []richText) string {
	var b strings.Builder
	for _, t := range parts {
		if t.PlainText != "" {
			b.WriteString(t.PlainText)
		} else {
			b.WriteString(t.Text.Content)
		}
	}
	return b.String()
}

// optionName reads select and status properties alike.
func optionName(p property) string {
	if p.Status != nil {
		return p.Status.Name
	}
	if p.Select != nil {
		return p.Select.Name
	}
	return ""
}

func parseDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func statusEquals(status string) map[string]any {
	return map[string]any{"property": PropStatus, "status": map[string]string{"equals": status}}
}

// ExistingIdeas returns the most recently edited calendar entries, newest first.
func (c *Client) ExistingIdeas(ctx context.Context, limit int) ([]Page, error) {
	return c.QueryDatabase(ctx, Query{
		Sorts: []map[string]any{{"timestamp": "last_edited_time", "direction": "descending"}},
		Limit: limit,
	})
}

// ReadyForScheduling returns entries approved for publishing.
func (c *Client) ReadyForScheduling(ctx context.Context) ([]Page, error) {
	return c.QueryDatabase(ctx, Query{Filter: statusEquals(StatusReady)})
}

// Scheduled returns entries handed to a platform with a future publish time.
func (c *Client) Scheduled(ctx context.Context) ([]Page, error) {
	return c.QueryDatabase(ctx, Query{Filter: statusEquals(StatusScheduled)})
}

// PostedOn returns posted entries dated on day that have no metrics yet.
func (c *Client) PostedOn(ctx context.Context, day time.Time) ([]Page, error) {
	return c.QueryDatabase(ctx, Query{Filter: map[string]any{"and": []map[string]any{
		statusEquals(StatusPosted),
		{"property": PropPostDate, "date": map[string]string{"equals": day.Format("2006-01-02")}},
		{"property": PropLikes, "number": map[string]bool{"is_empty": true}},
	}}})
}

// PostedSince returns posted entries with metrics dated on or after since, most liked first.
func (c *Client) PostedSince(ctx context.Context, since time.Time) ([]Page, error) {
	return c.QueryDatabase(ctx, Query{
		Filter: map[string]any{"and": []map[string]any{
			statusEquals(StatusPosted),
			{"property": PropPostDate, "date": map[string]string{"on_or_after": since.Format("2006-01-02")}},
			{"property": PropLikes, "number": map[string]bool{"is_not_empty": true}},
		}},
		Sorts: []map[string]any{{"property": PropLikes, "direction": "descending"}},
	})
}
