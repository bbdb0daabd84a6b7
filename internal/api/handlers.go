package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/postcraft/internal/generator"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/middleware"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/social"
	"github.com/bilgisen/postcraft/internal/storage"
)

const defaultJobTimeout = 30 * time.Minute

// Archive is the local record store served by the content endpoints.
type Archive interface {
	ListRecords(ctx context.Context, page, pageSize int) ([]*models.ContentRecord, error)
	GetRecordByID(ctx context.Context, id string) (*models.ContentRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

type BatchGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.BatchResult, error)
}

type PerformanceAnalyzer interface {
	AnalyzeContentPerformance(ctx context.Context) models.PerformanceReport
}

type ScheduleRunner interface {
	RunOnce(ctx context.Context) (social.RunSummary, error)
}

// Services are the collaborators behind the HTTP API. Scheduler may be nil
// when no Facebook page is configured.
type Services struct {
	Archive   Archive
	Generator BatchGenerator
	Analyzer  PerformanceAnalyzer
	Scheduler ScheduleRunner
	// JobTimeout bounds a background generation run.
	JobTimeout time.Duration
}

type Handlers struct {
	svc     Services
	started time.Time

	running atomic.Bool
	jobs    sync.WaitGroup
}

func NewHandlers(svc Services) *Handlers {
	if svc.JobTimeout == 0 {
		svc.JobTimeout = defaultJobTimeout
	}
	return &Handlers{svc: svc, started: time.Now()}
}

// Wait blocks until background jobs have finished.
func (h *Handlers) Wait() {
	h.jobs.Wait()
}

// GenerateRequest is the body of POST /admin/generate
type GenerateRequest struct {
	NumIdeas           int    `json:"num_ideas" validate:"required,min=1,max=10"`
	InputText          string `json:"input_text" validate:"max=4000"`
	AnalyzePerformance bool   `json:"analyze_performance"`
}

// ListQuery holds pagination parameters
type ListQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"version":    "1.0.0",
		"time":       time.Now().Format(time.RFC3339),
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"generating": h.running.Load(),
	})
}

// ListContent handles GET /api/v1/content
func (h *Handlers) ListContent(c *fiber.Ctx) error {
	q := c.Locals(middleware.ValidatedKey).(*ListQuery)
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}

	records, err := h.svc.Archive.ListRecords(c.UserContext(), q.Page, q.PageSize)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error listing content")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list content",
		})
	}

	return c.JSON(fiber.Map{
		"page":      q.Page,
		"page_size": q.PageSize,
		"total":     len(records),
		"items":     records,
	})
}

// GetContent handles GET /api/v1/content/:id
func (h *Handlers) GetContent(c *fiber.Ctx) error {
	id := c.Params("id")
	record, err := h.svc.Archive.GetRecordByID(c.UserContext(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Content not found",
		})
	}
	if err != nil {
		logger.Get().Error().Err(err).Str("id", id).Msg("Error getting content")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get content",
		})
	}
	return c.JSON(record)
}

// DeleteContent handles DELETE /api/v1/admin/content/:id
func (h *Handlers) DeleteContent(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.svc.Archive.DeleteRecord(c.UserContext(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Content not found",
		})
	}
	if err != nil {
		logger.Get().Error().Err(err).Str("id", id).Msg("Error deleting content")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete content",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "deleted",
		"message": "Content deleted from the local archive",
	})
}

// Generate handles POST /api/v1/admin/generate. The batch runs in the background
// and only one batch runs at a time.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	log := logger.Get()
	req := c.Locals(middleware.ValidatedKey).(*GenerateRequest)

	if !h.running.CompareAndSwap(false, true) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A generation batch is already running",
		})
	}

	batch := generator.Request{
		NumIdeas:           req.NumIdeas,
		InputText:          req.InputText,
		AnalyzePerformance: req.AnalyzePerformance,
	}

	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		defer h.running.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), h.svc.JobTimeout)
		defer cancel()

		start := time.Now()
		result, err := h.svc.Generator.Generate(ctx, batch)
		if err != nil {
			log.Error().Err(err).Int("num_ideas", batch.NumIdeas).Msg("Background generation stopped")
			return
		}
		log.Info().
			Int("generated", len(result.Records)).
			Int("requested", batch.NumIdeas).
			Dur("duration", time.Since(start)).
			Msg("Background generation finished")
	}()

	log.Info().
		Str("ip", c.IP()).
		Int("num_ideas", req.NumIdeas).
		Msg("Background generation started")

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":    "started",
		"num_ideas": req.NumIdeas,
	})
}

// Performance handles GET /api/v1/admin/performance
func (h *Handlers) Performance(c *fiber.Ctx) error {
	return c.JSON(h.svc.Analyzer.AnalyzeContentPerformance(c.UserContext()))
}

// RunSchedule handles POST /api/v1/admin/schedule/run
func (h *Handlers) RunSchedule(c *fiber.Ctx) error {
	if h.svc.Scheduler == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Publishing is not configured",
		})
	}

	summary, err := h.svc.Scheduler.RunOnce(c.UserContext())
	if err != nil {
		logger.Get().Error().Err(err).Msg("Scheduler run failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Scheduler run failed",
			"summary": summary,
		})
	}
	return c.JSON(summary)
}
