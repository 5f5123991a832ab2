// Package analytics records one row per processed turn for offline analysis
// of intent quality and status distributions. Writes are fire-and-forget;
// a failing sink never blocks or fails a turn.
package analytics

import (
	"context"
	"time"

	"github.com/sweetpotato0/reportflow/report"
)

// Record is one processed turn.
type Record struct {
	UserID    string        `json:"user_id"`
	Input     string        `json:"input"`
	Response  string        `json:"response"`
	Report    report.ID     `json:"report"`
	Status    report.Status `json:"status"`
	Fields    report.Fields `json:"fields"`
	// PromptTokens counts the inbound message, for cost attribution.
	PromptTokens int           `json:"prompt_tokens"`
	Latency      time.Duration `json:"latency"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Sink receives records.
type Sink interface {
	Write(ctx context.Context, rec *Record) error
}

// Nop discards everything; the default when analytics is not configured.
type Nop struct{}

func (Nop) Write(ctx context.Context, rec *Record) error { return nil }
