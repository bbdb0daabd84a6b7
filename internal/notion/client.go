package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postcraft/internal/logger"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
	pageSize       = 100
	// Notion rejects rich text objects longer than this.
	maxTextLength = 2000
)

type Config struct {
	Token      string
	DatabaseID string
	Timeout    time.Duration
	BaseURL    string
}

// Client wraps the Notion REST API for the content calendar database.
type Client struct {
	client     *resty.Client
	databaseID string
}

// APIError is an error object returned by Notion
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(timeout).
			SetAuthToken(cfg.Token).
			SetHeader("Notion-Version", apiVersion).
			SetHeader("Content-Type", "application/json"),
		databaseID: cfg.DatabaseID,
	}
}

func newAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}

type queryResponse struct {
	Results    []rawPage `json:"results"`
	HasMore    bool      `json:"has_more"`
	NextCursor string    `json:"next_cursor"`
}

// Query is a database query body without pagination fields.
type Query struct {
	Filter map[string]any   `json:"filter,omitempty"`
	Sorts  []map[string]any `json:"sorts,omitempty"`
	// Limit caps the number of pages returned, 0 meaning all.
	Limit int `json:"-"`
}

// QueryDatabase returns every page matching q, following pagination cursors.
func (c *Client) QueryDatabase(ctx context.Context, q Query) ([]Page, error) {
	var (
		pages  []Page
		cursor string
	)
	for {
		body := map[string]any{"page_size": pageSize}
		if q.Limit > 0 && q.Limit-len(pages) < pageSize {
			body["page_size"] = q.Limit - len(pages)
		}
		if q.Filter != nil {
			body["filter"] = q.Filter
		}
		if len(q.Sorts) > 0 {
			body["sorts"] = q.Sorts
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			Post("/databases/" + c.databaseID + "/query")
		if err != nil {
			return nil, fmt.Errorf("notion query failed: %w", err)
		}
		if resp.IsError() {
			return nil, newAPIError(resp)
		}

		var out queryResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("failed to parse notion query response: %w", err)
		}
		for _, raw := range out.Results {
			pages = append(pages, raw.parse())
		}

		if !out.HasMore || out.NextCursor == "" || (q.Limit > 0 && len(pages) >= q.Limit) {
			break
		}
		cursor = out.NextCursor
	}

	logger.Get().Debug().Int("pages", len(pages)).Msg("Queried Notion database")
	return pages, nil
}

// CreateIdeaPage adds a generated idea to the content calendar and returns the page id.
func (c *Client) CreateIdeaPage(ctx context.Context, idea Idea) (string, error) {
	status := idea.Status
	if status == "" {
		status = StatusAISuggestion
	}

	props := map[string]any{
		PropName:   titleProp(idea.Title),
		PropStatus: map[string]any{"status": map[string]string{"name": status}},
		PropCopy:   richTextProp(idea.Body),
	}
	if idea.Pillar != "" {
		props[PropPillar] = selectProp(idea.Pillar)
	}
	if idea.Platform != "" {
		props[PropPlatform] = selectProp(idea.Platform)
	}
	if !idea.PostDate.IsZero() {
		props[PropPostDate] = map[string]any{"date": map[string]string{"start": idea.PostDate.Format("2006-01-02")}}
	}
	if len(idea.ImageURLs) > 0 {
		files := make([]map[string]any, 0, len(idea.ImageURLs))
		for i, u := range idea.ImageURLs {
			files = append(files, map[string]any{
				"type":     "external",
				"name":     fmt.Sprintf("image-%d", i+1),
				"external": map[string]string{"url": u},
			})
		}
		props[PropCreative] = map[string]any{"files": files}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"parent":     map[string]string{"database_id": c.databaseID},
			"properties": props,
		}).
		Post("/pages")
	if err != nil {
		return "", fmt.Errorf("notion create page failed: %w", err)
	}
	if resp.IsError() {
		return "", newAPIError(resp)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return "", fmt.Errorf("failed to parse notion page response: %w", err)
	}
	return created.ID, nil
}

// UpdateStatus sets the Status property and, when postID is non-empty, the Post ID.
func (c *Client) UpdateStatus(ctx context.Context, pageID, status, postID string) error {
	props := map[string]any{
		PropStatus: map[string]any{"status": map[string]string{"name": status}},
	}
	if postID != "" {
		props[PropPostID] = richTextProp(postID)
	}
	return c.updatePage(ctx, pageID, props)
}

// UpdateMetrics writes engagement numbers to the page.
func (c *Client) UpdateMetrics(ctx context.Context, pageID string, m Metrics) error {
	return c.updatePage(ctx, pageID, map[string]any{
		PropLikes:    map[string]int{"number": m.Likes},
		PropComments: map[string]int{"number": m.Comments},
		PropReach:    map[string]int{"number": m.Reach},
	})
}

func (c *Client) updatePage(ctx context.Context, pageID string, props map[string]any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"properties": props}).
		Patch("/pages/" + pageID)
	if err != nil {
		return fmt.Errorf("notion update page failed: %w", err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}

func titleProp(s string) map[string]any {
	return map[string]any{"title": textObjects(s)}
}

func richTextProp(s string) map[string]any {
	return map[string]any{"rich_text": textObjects(s)}
}

func selectProp(name string) map[string]any {
	return map[string]any{"select": map[string]string{"name": name}}
}

// textObjects splits s into rich text objects within Notion's length limit.
func textObjects(s string) []map[string]any {
	runes := []rune(s)
	out := make([]map[string]any, 0, len(runes)/maxTextLength+1)
	for len(runes) > maxTextLength {
		out = append(out, textObject(string(runes[:maxTextLength])))
		runes = runes[maxTextLength:]
	}
	return append(out, textObject(string(runes)))
}

func textObject(s string) map[string]any {
	return map[string]any{"type": "text", "text": map[string]string{"content": s}}
}
