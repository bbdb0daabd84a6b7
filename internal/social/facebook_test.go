package social

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoster(t *testing.T, handler http.HandlerFunc) *FacebookPoster {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFacebookPoster(FacebookConfig{PageToken: "tok", PageID: "page1", GraphVersion: "v19.0", BaseURL: srv.URL})
}

func TestCreateTextPost(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v19.0/page1/feed", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Hello", r.PostForm.Get("message"))
		assert.Equal(t, "https://example.com", r.PostForm.Get("link"))
		assert.Empty(t, r.PostForm.Get("published"))
		_, _ = io.WriteString(w, `{"id": "page1_42"}`)
	})

	id, err := poster.CreatePost(context.Background(), Post{Message: "Hello", Link: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "page1_42", id)
}

func TestCreateScheduledPhotoPost(t *testing.T) {
	at := time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC)
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v19.0/page1/photos", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://cdn/a.png", r.PostForm.Get("url"))
		assert.Equal(t, "Caption", r.PostForm.Get("caption"))
		assert.Equal(t, "false", r.PostForm.Get("published"))
		assert.Equal(t, "1793545200", r.PostForm.Get("scheduled_publish_time"))
		_, _ = io.WriteString(w, `{"id": "photo9", "post_id": "page1_77"}`)
	})

	id, err := poster.CreatePost(context.Background(), Post{Message: "Caption", ImageURLs: []string{"https://cdn/a.png"}, ScheduledAt: at})
	require.NoError(t, err)
	assert.Equal(t, "page1_77", id)
}

func TestCreateAlbumPost(t *testing.T) {
	uploads := 0
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/v19.0/page1/photos":
			uploads++
			assert.Equal(t, "false", r.PostForm.Get("published"))
			_, _ = io.WriteString(w, `{"id": "m`+string(rune('0'+uploads))+`"}`)
		case "/v19.0/page1/feed":
			var media []map[string]string
			require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("attached_media")), &media))
			assert.Equal(t, []map[string]string{{"media_fbid": "m1"}, {"media_fbid": "m2"}}, media)
			assert.Equal(t, "Two pics", r.PostForm.Get("message"))
			_, _ = io.WriteString(w, `{"id": "page1_88"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	id, err := poster.CreatePost(context.Background(), Post{Message: "Two pics", ImageURLs: []string{"https://cdn/a.png", "https://cdn/b.png"}})
	require.NoError(t, err)
	assert.Equal(t, "page1_88", id)
	assert.Equal(t, 2, uploads)
}

func TestCreatePostGraphError(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"message": "Invalid OAuth access token.", "type": "OAuthException", "code": 190}}`)
	})

	_, err := poster.CreatePost(context.Background(), Post{Message: "x"})
	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, http.StatusBadRequest, graphErr.StatusCode)
	assert.Equal(t, 190, graphErr.Code)
	assert.Equal(t, "OAuthException", graphErr.Type)
}

func TestCreatePostWithoutID(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := poster.CreatePost(context.Background(), Post{Message: "x"})
	assert.ErrorIs(t, err, ErrNoPostID)
}

func TestValidateTokenAndStatus(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v19.0/me":
			_, _ = io.WriteString(w, `{"id": "page1", "name": "Rent-It Rentals"}`)
		case "/v19.0/page1_5":
			assert.Contains(t, r.URL.Query().Get("fields"), "is_published")
			_, _ = io.WriteString(w, `{"id": "page1_5", "is_published": true, "status_type": "added_photos"}`)
		}
	})

	name, err := poster.ValidateToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rent-It Rentals", name)

	status, err := poster.PostStatus(context.Background(), "page1_5")
	require.NoError(t, err)
	assert.True(t, status.IsPublished)
	assert.Equal(t, "added_photos", status.StatusType)
}

func TestDeletePost(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v19.0/page1_5", r.URL.Path)
		_, _ = io.WriteString(w, `{"success": true}`)
	})

	require.NoError(t, poster.DeletePost(context.Background(), "page1_5"))
}

func TestPostMetrics(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v19.0/page1_5":
			_, _ = io.WriteString(w, `{"reactions": {"summary": {"total_count": 14}}, "comments": {"summary": {"total_count": 3}}}`)
		case "/v19.0/page1_5/insights":
			assert.Equal(t, "post_impressions_unique", r.URL.Query().Get("metric"))
			_, _ = io.WriteString(w, `{"data": [{"name": "post_impressions_unique", "values": [{"value": 310}]}]}`)
		}
	})

	m, err := poster.PostMetrics(context.Background(), "page1_5")
	require.NoError(t, err)
	assert.Equal(t, 14, m.Likes)
	assert.Equal(t, 3, m.Comments)
	assert.Equal(t, 310, m.Reach)
}

func TestPostMetricsWithoutInsights(t *testing.T) {
	poster := newTestPoster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v19.0/page1_5/insights" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error": {"message": "missing read_insights", "type": "OAuthException", "code": 10}}`)
			return
		}
		_, _ = io.WriteString(w, `{"reactions": {"summary": {"total_count": 2}}, "comments": {"summary": {"total_count": 0}}}`)
	})

	m, err := poster.PostMetrics(context.Background(), "page1_5")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Likes)
	assert.Zero(t, m.Reach)
}
