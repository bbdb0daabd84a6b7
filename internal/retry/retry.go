package retry

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"google.golang.org/genai"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/logger"
)

// Policy describes a bounded exponential backoff applied to errors accepted by Retryable.
type Policy struct {
	Name        string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool

	// OnRetry is called before each scheduled retry with the attempt that failed.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Default retries overload errors three times, 2s doubling up to 30s.
func Default() Policy {
	return Policy{
		Name:        "default",
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Retryable:   IsOverloaded,
	}
}

func FromConfig(cfg *config.Config, name string) Policy {
	p := Default()
	p.Name = name
	if cfg.RetryMaxAttempts > 0 {
		p.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelay > 0 {
		p.BaseDelay = cfg.RetryBaseDelay
	}
	if cfg.RetryMaxDelay > 0 {
		p.MaxDelay = cfg.RetryMaxDelay
	}
	return p
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Millisecond
	}
	if p.MaxDelay <= p.BaseDelay {
		p.MaxDelay = p.BaseDelay << (p.MaxAttempts + 1)
	}
	if p.Retryable == nil {
		p.Retryable = IsOverloaded
	}
	return p
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
// The last error is returned unchanged so callers can inspect it with errors.Is/As.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalized()
	log := logger.Get()

	policy := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return err != nil && p.Retryable(err)
		}).
		WithBackoff(p.BaseDelay, p.MaxDelay).
		WithMaxRetries(p.MaxAttempts - 1).
		ReturnLastFailure().
		OnRetryScheduled(func(e failsafe.ExecutionScheduledEvent[T]) {
			log.Warn().
				Err(e.LastError()).
				Str("policy", p.Name).
				Int("attempt", e.Attempts()).
				Int("max_attempts", p.MaxAttempts).
				Dur("delay", e.Delay).
				Msg("Upstream overloaded, retrying")
			if p.OnRetry != nil {
				p.OnRetry(e.Attempts(), e.Delay, e.LastError())
			}
		}).
		Build()

	return failsafe.With[T](policy).WithContext(ctx).Get(func() (T, error) {
		return fn(ctx)
	})
}

var overloadMarkers = []string{
	"overloaded",
	"unavailable",
	"resource_exhausted",
	"rate limit",
	"too many requests",
}

var overloadCodes = regexp.MustCompile(`\b(429|503)\b`)

// IsOverloaded reports whether err signals an overloaded or rate-limited upstream.
// Typed API errors are classified by code and status only.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusServiceUnavailable, apiErr.Code == http.StatusTooManyRequests:
			return true
		case apiErr.Status == "UNAVAILABLE", apiErr.Status == "RESOURCE_EXHAUSTED":
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range overloadMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return overloadCodes.MatchString(msg)
}
