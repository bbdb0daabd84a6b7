package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/notion"
)

const defaultGraphURL = "https://graph.facebook.com"

// ErrNoPostID is returned when the Graph API accepted a request but returned no id.
var ErrNoPostID = errors.New("facebook returned no post id")

type FacebookConfig struct {
	PageToken    string
	PageID       string
	GraphVersion string
	BaseURL      string
	Timeout      time.Duration
}

// Post is a page post. A non-zero ScheduledAt publishes it later.
type Post struct {
	Message     string
	ImageURLs   []string
	Link        string
	ScheduledAt time.Time
}

// PostStatus is the publishing state of a post.
type PostStatus struct {
	ID                   string `json:"id"`
	Message              string `json:"message"`
	CreatedTime          string `json:"created_time"`
	IsPublished          bool   `json:"is_published"`
	ScheduledPublishTime int64  `json:"scheduled_publish_time"`
	StatusType           string `json:"status_type"`
}

// GraphError is an error object returned by the Graph API
type GraphError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("facebook returned status %d (%s %d): %s", e.StatusCode, e.Type, e.Code, e.Message)
}

// FacebookPoster publishes to a single Facebook page.
type FacebookPoster struct {
	client *resty.Client
	pageID string
}

func NewFacebookPoster(cfg FacebookConfig) *FacebookPoster {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGraphURL
	}
	version := cfg.GraphVersion
	if version == "" {
		version = "v18.0"
	}

	return &FacebookPoster{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/"+version).
			SetTimeout(timeout).
			SetQueryParam("access_token", cfg.PageToken),
		pageID: cfg.PageID,
	}
}

func newGraphError(resp *resty.Response) error {
	var body struct {
		Error GraphError `json:"error"`
	}
	graphErr := &GraphError{}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Message != "" {
		graphErr = &body.Error
	} else {
		graphErr.Message = strings.TrimSpace(resp.String())
	}
	graphErr.StatusCode = resp.StatusCode()
	return graphErr
}

func (f *FacebookPoster) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("facebook request failed: %w", err)
	}
	if resp.IsError() {
		return newGraphError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse facebook response: %w", err)
	}
	return nil
}

// ValidateToken checks the page token and returns the page name.
func (f *FacebookPoster) ValidateToken(ctx context.Context) (string, error) {
	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := f.do(f.client.R().SetContext(ctx), resty.MethodGet, "/me", &me); err != nil {
		return "", err
	}
	logger.Get().Info().Str("page", me.Name).Msg("Facebook token validated")
	return me.Name, nil
}

// UploadPhoto adds an unpublished photo for use in an album post.
func (f *FacebookPoster) UploadPhoto(ctx context.Context, imageURL, caption string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	req := f.client.R().SetContext(ctx).SetFormData(map[string]string{
		"url":       imageURL,
		"caption":   caption,
		"published": "false",
	})
	if err := f.do(req, resty.MethodPost, "/"+f.pageID+"/photos", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", ErrNoPostID
	}
	return out.ID, nil
}

// CreatePost publishes text, a single photo, or an album depending on the images.
func (f *FacebookPoster) CreatePost(ctx context.Context, post Post) (string, error) {
	form := map[string]string{}
	path := "/" + f.pageID + "/feed"

	switch len(post.ImageURLs) {
	case 0:
		form["message"] = post.Message
		if post.Link != "" {
			form["link"] = post.Link
		}
	case 1:
		path = "/" + f.pageID + "/photos"
		form["url"] = post.ImageURLs[0]
		form["caption"] = post.Message
	default:
		media := make([]map[string]string, 0, len(post.ImageURLs))
		for _, u := range post.ImageURLs {
			id, err := f.UploadPhoto(ctx, u, "")
			if err != nil {
				return "", fmt.Errorf("uploading album photo %s: %w", u, err)
			}
			media = append(media, map[string]string{"media_fbid": id})
		}
		attached, err := json.Marshal(media)
		if err != nil {
			return "", err
		}
		form["message"] = post.Message
		form["attached_media"] = string(attached)
	}

	if !post.ScheduledAt.IsZero() {
		form["scheduled_publish_time"] = strconv.FormatInt(post.ScheduledAt.Unix(), 10)
		form["published"] = "false"
	}

	var out struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := f.do(f.client.R().SetContext(ctx).SetFormData(form), resty.MethodPost, path, &out); err != nil {
		return "", err
	}

	id := out.PostID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return "", ErrNoPostID
	}
	logger.Get().Info().Str("post_id", id).Int("images", len(post.ImageURLs)).Msg("Facebook post created")
	return id, nil
}

func (f *FacebookPoster) PostStatus(ctx context.Context, postID string) (*PostStatus, error) {
	var status PostStatus
	req := f.client.R().SetContext(ctx).
		SetQueryParam("fields", "id,message,created_time,is_published,scheduled_publish_time,status_type")
	if err := f.do(req, resty.MethodGet, "/"+postID, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (f *FacebookPoster) DeletePost(ctx context.Context, postID string) error {
	return f.do(f.client.R().SetContext(ctx), resty.MethodDelete, "/"+postID, nil)
}

type summaryCount struct {
	Summary struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

// PostMetrics reads reactions, comments and unique impressions for a post.
// Reach is left at zero when insights are unavailable for the post.
func (f *FacebookPoster) PostMetrics(ctx context.Context, postID string) (notion.Metrics, error) {
	var counts struct {
		Reactions summaryCount `json:"reactions"`
		Comments  summaryCount `json:"comments"`
	}
	req := f.client.R().SetContext(ctx).
		SetQueryParam("fields", "reactions.summary(total_count),comments.summary(total_count)")
	if err := f.do(req, resty.MethodGet, "/"+postID, &counts); err != nil {
		return notion.Metrics{}, err
	}
	metrics := notion.Metrics{
		Likes:    counts.Reactions.Summary.TotalCount,
		Comments: counts.Comments.Summary.TotalCount,
	}

	var insights struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value json.Number `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	req = f.client.R().SetContext(ctx).SetQueryParam("metric", "post_impressions_unique")
	if err := f.do(req, resty.MethodGet, "/"+postID+"/insights", &insights); err != nil {
		logger.Get().Warn().Err(err).Str("post_id", postID).Msg("Post insights unavailable")
		return metrics, nil
	}
	for _, d := range insights.Data {
		if d.Name == "post_impressions_unique" && len(d.Values) > 0 {
			if n, err := d.Values[0].Value.Int64(); err == nil {
				metrics.Reach = int(n)
			}
		}
	}
	return metrics, nil
}
