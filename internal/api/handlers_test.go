package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/generator"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/social"
	"github.com/bilgisen/postcraft/internal/storage"
)

const adminKey = "0123456789abcdef"

type fakeGenerator struct {
	mu       sync.Mutex
	requests []generator.Request
	release  chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req generator.Request) (*generator.BatchResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return &generator.BatchResult{}, nil
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) AnalyzeContentPerformance(context.Context) models.PerformanceReport {
	return models.PerformanceReport{TotalContent: 4, Recommendations: []string{"Post more safety content"}}
}

type fakeScheduler struct {
	summary social.RunSummary
	err     error
}

func (f *fakeScheduler) RunOnce(context.Context) (social.RunSummary, error) {
	return f.summary, f.err
}

type testEnv struct {
	app       *fiber.App
	handlers  *Handlers
	archive   *storage.Storage
	generator *fakeGenerator
}

func newTestEnv(t *testing.T, scheduler ScheduleRunner) *testEnv {
	t.Helper()
	archive, err := storage.NewStorage(t.TempDir())
	require.NoError(t, err)

	gen := &fakeGenerator{}
	h := NewHandlers(Services{
		Archive:   archive,
		Generator: gen,
		Analyzer:  fakeAnalyzer{},
		Scheduler: scheduler,
	})
	cfg := &config.Config{HTTPTimeout: 5 * time.Second, AdminAPIKey: adminKey}
	return &testEnv{app: NewApp(cfg, h), handlers: h, archive: archive, generator: gen}
}

func (e *testEnv) do(t *testing.T, method, path, body string, admin bool) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if admin {
		req.Header.Set("X-API-Key", adminKey)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, out := env.do(t, http.MethodGet, "/api/v1/health", "", false)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, false, out["generating"])
}

func TestContentEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.archive.SaveRecord(ctx, &models.ContentRecord{ID: "rec-1", Title: "Trencher Tuesday"}))

	resp, out := env.do(t, http.MethodGet, "/api/v1/content?page=1&page_size=10", "", false)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["total"])
	assert.EqualValues(t, 10, out["page_size"])

	resp, out = env.do(t, http.MethodGet, "/api/v1/content/rec-1", "", false)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Trencher Tuesday", out["title"])

	resp, _ = env.do(t, http.MethodGet, "/api/v1/content/missing", "", false)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/content?page_size=500", "", false)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteContent(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.archive.SaveRecord(context.Background(), &models.ContentRecord{ID: "rec-1"}))

	resp, _ := env.do(t, http.MethodDelete, "/api/v1/admin/content/rec-1", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, out := env.do(t, http.MethodDelete, "/api/v1/admin/content/rec-1", "", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "deleted", out["status"])

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/content/rec-1", "", true)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGenerateRunsInBackground(t *testing.T) {
	env := newTestEnv(t, nil)
	env.generator.release = make(chan struct{})

	resp, out := env.do(t, http.MethodPost, "/api/v1/admin/generate", `{"num_ideas": 2, "input_text": "spring promo"}`, true)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "started", out["status"])

	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/generate", `{"num_ideas": 1}`, true)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	close(env.generator.release)
	env.handlers.Wait()

	require.Len(t, env.generator.requests, 1)
	assert.Equal(t, generator.Request{NumIdeas: 2, InputText: "spring promo"}, env.generator.requests[0])
	assert.False(t, env.handlers.running.Load())
}

func TestGenerateValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/admin/generate", `{"num_ideas": 11}`, true)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/generate", `{"num_ideas": 0}`, true)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/generate", `{"num_ideas": 2}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, env.generator.requests)
}

func TestPerformance(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, out := env.do(t, http.MethodGet, "/api/v1/admin/performance", "", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, out["total_content"])
}

func TestRunSchedule(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, http.MethodPost, "/api/v1/admin/schedule/run", "", true)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	env = newTestEnv(t, &fakeScheduler{summary: social.RunSummary{Ready: 2, Posted: 1, Scheduled: 1}})
	resp, out := env.do(t, http.MethodPost, "/api/v1/admin/schedule/run", "", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["scheduled"])

	env = newTestEnv(t, &fakeScheduler{err: errors.New("notion down")})
	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/schedule/run", "", true)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, out := env.do(t, http.MethodGet, "/api/v2/nothing", "", false)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Endpoint not found", out["error"])
}
