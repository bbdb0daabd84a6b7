package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: srv.URL})
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

const pageJSON = `{
	"id": "page-1",
	"properties": {
		"Name": {"type": "title", "title": [{"plain_text": "Trencher "}, {"text": {"content": "Tuesday"}}]},
		"Status": {"type": "status", "status": {"name": "Posted"}},
		"Content Pillar": {"type": "select", "select": {"name": "Equipment Spotlight"}},
		"Platform": {"type": "select", "select": {"name": "Facebook"}},
		"Copy": {"type": "rich_text", "rich_text": [{"plain_text": "Dig it."}]},
		"Post ID": {"type": "rich_text", "rich_text": []},
		"Post Date": {"type": "date", "date": {"start": "2026-10-01"}},
		"Creative": {"type": "files", "files": [
			{"type": "external", "external": {"url": "https://cdn/a.png"}},
			{"type": "file", "file": {"url": "https://s3/b.png"}}
		]},
		"Likes": {"type": "number", "number": 12},
		"Comments": {"type": "number", "number": 3},
		"Reach": {"type": "number", "number": null}
	}
}`

func TestQueryDatabasePaginates(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/databases/db1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Notion-Version"))

		body := decodeBody(t, r)
		assert.EqualValues(t, pageSize, body["page_size"])
		if calls == 1 {
			assert.NotContains(t, body, "start_cursor")
			_, _ = io.WriteString(w, `{"results": [`+pageJSON+`], "has_more": true, "next_cursor": "c2"}`)
			return
		}
		assert.Equal(t, "c2", body["start_cursor"])
		_, _ = io.WriteString(w, `{"results": [{"id": "page-2", "properties": {}}], "has_more": false, "next_cursor": null}`)
	})

	pages, err := client.QueryDatabase(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 2, calls)

	p := pages[0]
	assert.Equal(t, "page-1", p.ID)
	assert.Equal(t, "Trencher Tuesday", p.Title)
	assert.Equal(t, StatusPosted, p.Status)
	assert.Equal(t, "Equipment Spotlight", p.Pillar)
	assert.Equal(t, "Facebook", p.Platform)
	assert.Equal(t, "Dig it.", p.Copy)
	assert.Empty(t, p.PostID)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), p.PostDate)
	assert.Equal(t, []string{"https://cdn/a.png", "https://s3/b.png"}, p.ImageURLs)
	require.NotNil(t, p.Metrics)
	assert.Equal(t, Metrics{Likes: 12, Comments: 3}, *p.Metrics)

	assert.Nil(t, pages[1].Metrics)
	assert.Empty(t, pages[1].Title)
}

func TestQueryDatabaseLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.EqualValues(t, 1, body["page_size"])
		_, _ = io.WriteString(w, `{"results": [{"id": "a"}], "has_more": true, "next_cursor": "c2"}`)
	})

	pages, err := client.ExistingIdeas(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestCreateIdeaPage(t *testing.T) {
	long := strings.Repeat("é", maxTextLength+5)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pages", r.URL.Path)

		body := decodeBody(t, r)
		assert.Equal(t, map[string]any{"database_id": "db1"}, body["parent"])

		props := body["properties"].(map[string]any)
		status := props[PropStatus].(map[string]any)["status"].(map[string]any)
		assert.Equal(t, StatusAISuggestion, status["name"])

		copyParts := props[PropCopy].(map[string]any)["rich_text"].([]any)
		assert.Len(t, copyParts, 2)

		date := props[PropPostDate].(map[string]any)["date"].(map[string]any)
		assert.Equal(t, "2026-11-02", date["start"])

		files := props[PropCreative].(map[string]any)["files"].([]any)
		require.Len(t, files, 1)
		assert.Equal(t, "external", files[0].(map[string]any)["type"])

		pillar := props[PropPillar].(map[string]any)["select"].(map[string]any)
		assert.Equal(t, "Safety Training", pillar["name"])

		_, _ = io.WriteString(w, `{"object": "page", "id": "new-page"}`)
	})

	id, err := client.CreateIdeaPage(context.Background(), Idea{
		Title:     "Harness basics",
		Body:      long,
		Pillar:    "Safety Training",
		Platform:  "Blog",
		PostDate:  time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC),
		ImageURLs: []string{"https://cdn/x.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-page", id)
}

func TestUpdateStatusAndMetrics(t *testing.T) {
	var bodies []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/pages/page-1", r.URL.Path)
		bodies = append(bodies, decodeBody(t, r))
		_, _ = io.WriteString(w, `{"id": "page-1"}`)
	})

	require.NoError(t, client.UpdateStatus(context.Background(), "page-1", StatusScheduled, "fb_123"))
	require.NoError(t, client.UpdateStatus(context.Background(), "page-1", StatusPosted, ""))
	require.NoError(t, client.UpdateMetrics(context.Background(), "page-1", Metrics{Likes: 5, Comments: 1, Reach: 40}))
	require.Len(t, bodies, 3)

	first := bodies[0]["properties"].(map[string]any)
	assert.Contains(t, first, PropPostID)
	second := bodies[1]["properties"].(map[string]any)
	assert.NotContains(t, second, PropPostID)
	third := bodies[2]["properties"].(map[string]any)
	assert.EqualValues(t, 40, third[PropReach].(map[string]any)["number"])
}

func TestPostedOnFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		raw, _ := json.Marshal(body["filter"])
		assert.Contains(t, string(raw), `"equals":"2026-10-16"`)
		assert.Contains(t, string(raw), `"is_empty":true`)
		assert.Contains(t, string(raw), `"equals":"Posted"`)
		_, _ = io.WriteString(w, `{"results": [], "has_more": false}`)
	})

	pages, err := client.PostedOn(context.Background(), time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"object": "error", "status": 400, "code": "validation_error", "message": "Status is not a property"}`)
	})

	_, err := client.ReadyForScheduling(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "Status is not a property", apiErr.Message)
}
