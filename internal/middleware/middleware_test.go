package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Count int    `json:"count" validate:"required,min=1,max=10"`
	Note  string `json:"note" validate:"max=5"`
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAdminOnly(t *testing.T) {
	app := fiber.New()
	app.Get("/secret", AdminOnly("0123456789abcdef"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong", "nope", fiber.StatusForbidden},
		{"valid", "0123456789abcdef", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdminOnlyWithoutConfiguredKey(t *testing.T) {
	app := fiber.New()
	app.Get("/secret", AdminOnly(""), func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set(APIKeyHeader, "anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestValidateBody(t *testing.T) {
	app := fiber.New()
	app.Post("/items", ValidateBody[body](), func(c *fiber.Ctx) error {
		b := c.Locals(ValidatedKey).(*body)
		return c.JSON(fiber.Map{"count": b.Count})
	})

	post := func(payload string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString(payload))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"count": 3}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, decode(t, resp)["count"])

	resp = post(`{"count": 11, "note": "too long"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, map[string]any{"Count": "max", "Note": "max"}, out["fields"])

	resp = post(`{"count":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidateQuery(t *testing.T) {
	type query struct {
		Page int `query:"page" validate:"omitempty,min=1"`
	}
	app := fiber.New()
	app.Get("/list", ValidateQuery[query](), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": c.Locals(ValidatedKey).(*query).Page})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/list?page=2", nil))
	require.NoError(t, err)
	assert.EqualValues(t, 2, decode(t, resp)["page"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/list?page=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", decode(t, resp)["error"])
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	app := fiber.New()
	app.Use(NewLogger(LoggerConfig{Logger: &log, Fields: []string{"method", "path", "status"}}))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ping", line["path"])
	assert.EqualValues(t, 200, line["status"])
	assert.NotContains(t, line, "ip")
}
