// Package extract turns a free-text turn into a raw parameter map for a
// resolved report. Each field family is its own small schema-constrained
// model call; the calls fan out on the shared worker pool and a failed field
// degrades to its default instead of failing the turn.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sweetpotato0/reportflow/abbrev"
	"github.com/sweetpotato0/reportflow/llm"
	"github.com/sweetpotato0/reportflow/message"
	"github.com/sweetpotato0/reportflow/pkg/logging"
	"github.com/sweetpotato0/reportflow/pool"
	"github.com/sweetpotato0/reportflow/report"
)

// Extractor runs per-field extraction for one report schema.
type Extractor struct {
	client   llm.Client
	pool     *pool.Pool
	entities *abbrev.Entities
	now      func() time.Time
	logger   *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source used to resolve relative periods.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithEntities enables alias resolution for categorical answers the schema
// vocabulary does not already cover.
func WithEntities(entities *abbrev.Entities) Option {
	return func(e *Extractor) { e.entities = entities }
}

func New(client llm.Client, p *pool.Pool, opts ...Option) *Extractor {
	e := &Extractor{
		client: client,
		pool:   p,
		now:    time.Now,
		logger: logging.WithComponent("extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func renderHistory(msgs []*message.Message) string {
	if len(msgs) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Extract returns the validated field map for the current message. Fields the
// message does not mention come back as schema defaults; merging with prior
// turns is the caller's concern.
func (e *Extractor) Extract(ctx context.Context, id report.ID, history []*message.Message, input string) (report.Fields, error) {
	schema, ok := report.Definition(id)
	if !ok {
		return report.Fields{}, fmt.Errorf("extract: unknown report %q", id)
	}

	var (
		mu     sync.Mutex
		fields = report.Fields{}
	)
	set := func(name, value string) {
		mu.Lock()
		fields[name] = value
		mu.Unlock()
	}

	hist := renderHistory(history)
	var tasks []pool.Task

	if schema.HasDateRange() {
		tasks = append(tasks, func(ctx context.Context) error {
			from, to := e.extractDates(ctx, hist, input)
			set(report.FieldFromDate, from)
			set(report.FieldToDate, to)
			return nil
		})
	}

	for _, spec := range schema.Fields {
		switch {
		case spec.IsDate:
			// handled by the pair task above
		case spec.Name == report.FieldUser:
			tasks = append(tasks, func(ctx context.Context) error {
				set(report.FieldUser, e.extractUser(ctx, hist, input))
				return nil
			})
		case spec.Name == report.FieldTop:
			tasks = append(tasks, func(ctx context.Context) error {
				set(report.FieldTop, e.extractTop(ctx, input))
				return nil
			})
		case spec.Enum != nil:
			spec := spec
			tasks = append(tasks, func(ctx context.Context) error {
				set(spec.Name, e.extractEnum(ctx, id, spec, hist, input))
				return nil
			})
		}
	}

	if err := e.pool.Run(ctx, tasks...); err != nil {
		return nil, err
	}
	return report.Validate(id, fields), nil
}

func (e *Extractor) extractDates(ctx context.Context, history, input string) (string, string) {
	sys, err := datePrompt.Render(map[string]any{"history": history, "input": input})
	if err != nil {
		return report.Unspecified, report.Unspecified
	}

	relatives := []string{
		report.Unspecified, relToday, relYesterday, relThisWeek, relLastWeek,
		relThisMonth, relLastMonth, relThisYear, relLastYear,
	}
	jsonSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"relative":  map[string]any{"type": "string", "enum": relatives},
			"from_date": map[string]any{"type": "string"},
			"to_date":   map[string]any{"type": "string"},
		},
		"required":             []string{"relative", "from_date", "to_date"},
		"additionalProperties": false,
	}

	raw, err := e.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("date_range", jsonSchema))
	if err != nil {
		e.logger.Warn("date extraction failed", "error", err)
		return report.Unspecified, report.Unspecified
	}
	var out struct {
		Relative string `json:"relative"`
		FromDate string `json:"from_date"`
		ToDate   string `json:"to_date"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		e.logger.Warn("date extraction returned malformed JSON", "error", err)
		return report.Unspecified, report.Unspecified
	}

	if out.Relative != "" && out.Relative != report.Unspecified {
		return resolveRelative(out.Relative, e.now())
	}
	return report.NormalizeDate(out.FromDate), report.NormalizeDate(out.ToDate)
}

func (e *Extractor) extractEnum(ctx context.Context, id report.ID, spec report.FieldSpec, history, input string) string {
	var aliases []string
	for canonical, abbrs := range spec.Aliases {
		aliases = append(aliases, strings.Join(abbrs, ", ")+" -> "+canonical)
	}
	sys, err := enumPrompt.Render(map[string]any{
		"field":   spec.Name,
		"values":  strings.Join(spec.Enum, ", "),
		"aliases": strings.Join(aliases, "; "),
		"def":     spec.Default,
		"history": history,
		"input":   input,
	})
	if err != nil {
		return spec.Default
	}

	jsonSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			spec.Name: map[string]any{"type": "string", "enum": spec.Enum},
		},
		"required":             []string{spec.Name},
		"additionalProperties": false,
	}

	raw, err := e.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema(spec.Name+"_extract", jsonSchema))
	if err != nil {
		e.logger.Warn("enum extraction failed", "field", spec.Name, "error", err)
		return spec.Default
	}
	var out map[string]string
	if err := llm.DecodeJSON(raw, &out); err != nil {
		e.logger.Warn("enum extraction returned malformed JSON", "field", spec.Name, "error", err)
		return spec.Default
	}
	if v, ok := out[spec.Name]; ok && v != "" {
		return e.canonicalize(ctx, id, spec, v)
	}
	return spec.Default
}

// canonicalize keeps enum members and glossary aliases as-is (validation
// resolves those) and routes anything else through the entity index, so a
// stray answer like "virtual games" lands on "Virtual Sports" instead of
// collapsing to the default.
func (e *Extractor) canonicalize(ctx context.Context, id report.ID, spec report.FieldSpec, v string) string {
	if e.entities == nil {
		return v
	}
	lowered := strings.ToLower(v)
	for _, member := range spec.Enum {
		if strings.ToLower(member) == lowered {
			return v
		}
	}
	for _, aliases := range spec.Aliases {
		for _, a := range aliases {
			if strings.ToLower(a) == lowered {
				return v
			}
		}
	}
	if canonical, ok := e.entities.Resolve(ctx, id, spec.Name, v); ok {
		return canonical
	}
	return v
}

func (e *Extractor) extractUser(ctx context.Context, history, input string) string {
	sys, err := userPrompt.Render(map[string]any{"history": history, "input": input})
	if err != nil {
		return report.Unspecified
	}

	jsonSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user": map[string]any{"type": "string"},
		},
		"required":             []string{"user"},
		"additionalProperties": false,
	}

	raw, err := e.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("user_extract", jsonSchema))
	if err != nil {
		e.logger.Warn("user extraction failed", "error", err)
		return report.Unspecified
	}
	var out struct {
		User string `json:"user"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		e.logger.Warn("user extraction returned malformed JSON", "error", err)
		return report.Unspecified
	}
	return SanitizeUser(out.User)
}

var topNumber = regexp.MustCompile(`\b(\d{1,4})\b`)

// extractTop prefers a number literally present in the message over the
// model's answer; the model only arbitrates when the text has none.
func (e *Extractor) extractTop(ctx context.Context, input string) string {
	if m := topNumber.FindStringSubmatch(input); m != nil {
		return m[1]
	}

	sys, err := topPrompt.Render(map[string]any{"input": input})
	if err != nil {
		return report.DefaultTop
	}
	jsonSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"top": map[string]any{"type": "string"},
		},
		"required":             []string{"top"},
		"additionalProperties": false,
	}
	raw, err := e.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("top_extract", jsonSchema))
	if err != nil {
		e.logger.Warn("top extraction failed", "error", err)
		return report.DefaultTop
	}
	var out struct {
		Top string `json:"top"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return report.DefaultTop
	}
	if out.Top == "" || out.Top == report.Unspecified {
		return report.DefaultTop
	}
	return out.Top
}

// SanitizeUser rejects extraction answers that cannot be usernames: empty or
// multi-word strings, and echoes of product, detail or level vocabulary.
func SanitizeUser(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == report.Unspecified {
		return report.Unspecified
	}
	if strings.ContainsAny(v, " \t") {
		return report.Unspecified
	}
	if _, known := report.KnownAliases()[strings.ToLower(v)]; known {
		return report.Unspecified
	}
	return v
}
