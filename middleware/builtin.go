package middleware

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sweetpotato0/reportflow/errors"
	"github.com/sweetpotato0/reportflow/pkg/logging"
)

// RequestLogger logs every turn with its outcome.
type RequestLogger struct{}

func NewRequestLogger() *RequestLogger { return &RequestLogger{} }

func (m *RequestLogger) Name() string { return "RequestLogger" }

func (m *RequestLogger) Execute(ctx *Context, next Handler) error {
	logger := logging.WithComponent("pipeline")
	start := time.Now()
	err := next(ctx)
	if err != nil {
		logger.Error("turn failed",
			"user_id", ctx.UserID,
			"duration", time.Since(start),
			"error", err)
		return err
	}
	logger.Info("turn processed",
		"user_id", ctx.UserID,
		"report", ctx.Report,
		"status", int(ctx.Status),
		"duration", time.Since(start))
	return nil
}

// InputValidator rejects turns the pipeline should never see.
type InputValidator struct {
	maxLen int
}

// NewInputValidator creates the validator; maxLen caps input runes (default
// 2000).
func NewInputValidator(maxLen int) *InputValidator {
	if maxLen <= 0 {
		maxLen = 2000
	}
	return &InputValidator{maxLen: maxLen}
}

func (m *InputValidator) Name() string { return "InputValidator" }

func (m *InputValidator) Execute(ctx *Context, next Handler) error {
	if ctx.UserID == "" {
		return fmt.Errorf("%w: user id is required", errors.ErrInvalidInput)
	}
	if strings.TrimSpace(ctx.Input) == "" {
		return fmt.Errorf("%w: message is empty", errors.ErrInvalidInput)
	}
	if utf8.RuneCountInString(ctx.Input) > m.maxLen {
		return fmt.Errorf("%w: message exceeds %d characters", errors.ErrInvalidInput, m.maxLen)
	}
	return next(ctx)
}

// RateLimiter caps turns per user within a sliding window.
type RateLimiter struct {
	max    int
	window time.Duration

	mu    sync.Mutex
	seen  map[string][]time.Time
	nowFn func() time.Time
}

// NewRateLimiter allows max turns per user per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		max:    max,
		window: window,
		seen:   make(map[string][]time.Time),
		nowFn:  time.Now,
	}
}

func (m *RateLimiter) Name() string { return "RateLimiter" }

func (m *RateLimiter) Execute(ctx *Context, next Handler) error {
	now := m.nowFn()
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	times := m.seen[ctx.UserID]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= m.max {
		m.seen[ctx.UserID] = kept
		m.mu.Unlock()
		return fmt.Errorf("%w: rate limit exceeded", errors.ErrUnavailable)
	}
	m.seen[ctx.UserID] = append(kept, now)
	m.mu.Unlock()

	return next(ctx)
}
