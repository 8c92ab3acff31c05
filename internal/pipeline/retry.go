package pipeline

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/model"
)

// RetryConfig defines retry behavior for source fetches
type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialDelay      time.Duration `koanf:"initial_delay"`
	MaxDelay          time.Duration `koanf:"max_delay"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
	Jitter            bool          `koanf:"jitter"`
}

// DefaultRetryConfig is used for remote sources.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      time.Second,
	MaxDelay:          30 * time.Second,
	BackoffMultiplier: 2.0,
	Jitter:            true,
}

// RetrySource retries transient fetch failures of the wrapped source with
// exponential backoff. Local files, bad requests and 4xx answers fail at once.
type RetrySource struct {
	next   DataSource
	cfg    RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewRetrySource wraps next. A MaxAttempts below 1 means one attempt.
func NewRetrySource(next DataSource, cfg RetryConfig) *RetrySource {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	return &RetrySource{
		next:   next,
		cfg:    cfg,
		sleep:  sleepCtx,
		logger: logging.WithComponent("retry"),
	}
}

// Fetch calls the wrapped source until it succeeds, returns a permanent
// error or the attempts are used up.
func (r *RetrySource) Fetch(ctx context.Context, src model.Source) (*model.Dataset, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		ds, err := r.next.Fetch(ctx, src)
		if err == nil {
			return ds, nil
		}
		lastErr = err
		if attempt == r.cfg.MaxAttempts || ctx.Err() != nil || !isRetryable(err) {
			break
		}

		delay := r.calculateDelay(attempt)
		r.logger.Warn().
			Err(err).
			Str("source", src.URL).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Fetch failed, retrying")
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// calculateDelay calculates the delay before the next attempt
func (r *RetrySource) calculateDelay(attempt int) time.Duration {
	delay := float64(r.cfg.InitialDelay) * math.Pow(r.cfg.BackoffMultiplier, float64(attempt-1))
	if r.cfg.MaxDelay > 0 && delay > float64(r.cfg.MaxDelay) {
		delay = float64(r.cfg.MaxDelay)
	}
	if r.cfg.Jitter && delay > 0 {
		// up to 10% either way
		delay += delay * 0.1 * (2*rand.Float64() - 1) //nolint:gosec // backoff jitter
	}
	return time.Duration(delay)
}

// isRetryable reports whether err is worth another attempt: timeouts,
// 429 and 5xx answers.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return errorType(err) == "network_timeout"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
