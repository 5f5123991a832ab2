// Package classify holds the single-purpose recognizers that run on every
// turn: casual-talk detection, confirmation detection, parameter-removal
// detection and report selection. Each one is a thin, schema-constrained
// model call with a deterministic safe default on failure.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/reportflow/llm"
	"github.com/sweetpotato0/reportflow/message"
	"github.com/sweetpotato0/reportflow/pkg/logging"
	"github.com/sweetpotato0/reportflow/report"
)

// historyWindow bounds how much conversation the recognizers see. Older turns
// rarely change intent and inflate token cost.
const historyWindow = 6

func renderHistory(msgs []*message.Message) string {
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}
	if len(msgs) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderCatalogue lists every report with its endpoint, display name,
// description and abbreviation glossary.
func renderCatalogue() string {
	var b strings.Builder
	for _, s := range report.Definitions() {
		fmt.Fprintf(&b, "- %s (%s): %s. Abbreviations: %s\n",
			s.Display, s.ID, s.Description, strings.Join(s.Abbreviations, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func boolSchema(field string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			field: map[string]any{"type": "integer", "enum": []int{0, 1}},
		},
		"required":             []string{field},
		"additionalProperties": false,
	}
}

// CasualRecognizer decides whether a message is small talk.
type CasualRecognizer struct {
	client llm.Client
	logger *slog.Logger
}

func NewCasualRecognizer(client llm.Client) *CasualRecognizer {
	return &CasualRecognizer{client: client, logger: logging.WithComponent("classify.casual")}
}

// IsCasual returns whether the message is casual conversation. On model
// failure it returns false (treat as a reporting request) together with the
// error, so the pipeline keeps moving.
func (r *CasualRecognizer) IsCasual(ctx context.Context, history []*message.Message, input string) (bool, error) {
	sys, err := casualPrompt.Render(map[string]any{
		"catalogue": renderCatalogue(),
		"history":   renderHistory(history),
		"input":     input,
	})
	if err != nil {
		return false, err
	}

	raw, err := r.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("casual_check", boolSchema("is_casual")))
	if err != nil {
		r.logger.Warn("casual check failed, treating as request", "error", err)
		return false, err
	}
	var out struct {
		IsCasual int `json:"is_casual"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		r.logger.Warn("casual check returned malformed JSON", "error", err)
		return false, err
	}
	return out.IsCasual == 1, nil
}

// ConfirmationRecognizer decides whether a message agrees to run the pending
// request.
type ConfirmationRecognizer struct {
	client llm.Client
	logger *slog.Logger
}

func NewConfirmationRecognizer(client llm.Client) *ConfirmationRecognizer {
	return &ConfirmationRecognizer{client: client, logger: logging.WithComponent("classify.confirm")}
}

// IsConfirmed returns whether the message is an agreement. Failures return
// false: a report must never run on an unverified confirmation.
func (r *ConfirmationRecognizer) IsConfirmed(ctx context.Context, history []*message.Message, input string) (bool, error) {
	sys, err := confirmPrompt.Render(map[string]any{
		"history": renderHistory(history),
		"input":   input,
	})
	if err != nil {
		return false, err
	}

	raw, err := r.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("confirm_check", boolSchema("is_confirmed")))
	if err != nil {
		r.logger.Warn("confirmation check failed, treating as not confirmed", "error", err)
		return false, err
	}
	var out struct {
		IsConfirmed int `json:"is_confirmed"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		r.logger.Warn("confirmation check returned malformed JSON", "error", err)
		return false, err
	}
	return out.IsConfirmed == 1, nil
}

// RemovalDetector finds parameters the user asks to clear. The answer enum is
// rebuilt per call from the active report's field set, so the model can never
// name a field the report does not have.
type RemovalDetector struct {
	client llm.Client
	logger *slog.Logger
}

func NewRemovalDetector(client llm.Client) *RemovalDetector {
	return &RemovalDetector{client: client, logger: logging.WithComponent("classify.removal")}
}

// Removed returns the field names the user asks to drop. Failures return an
// empty list so no parameter is ever cleared by accident.
func (r *RemovalDetector) Removed(ctx context.Context, id report.ID, input string) ([]string, error) {
	schema, ok := report.Definition(id)
	if !ok {
		return nil, nil
	}
	names := schema.FieldNames()

	sys, err := removalPrompt.Render(map[string]any{
		"fields": strings.Join(names, ", "),
		"input":  input,
	})
	if err != nil {
		return nil, err
	}

	jsonSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"removed_fields": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": names},
			},
		},
		"required":             []string{"removed_fields"},
		"additionalProperties": false,
	}

	raw, err := r.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("removal_check", jsonSchema))
	if err != nil {
		r.logger.Warn("removal check failed, keeping all parameters", "error", err)
		return nil, err
	}
	var out struct {
		RemovedFields []string `json:"removed_fields"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		r.logger.Warn("removal check returned malformed JSON", "error", err)
		return nil, err
	}

	// Filter anyway; providers without strict enums can still stray.
	valid := make(map[string]struct{}, len(names))
	for _, n := range names {
		valid[n] = struct{}{}
	}
	kept := out.RemovedFields[:0]
	for _, f := range out.RemovedFields {
		if _, ok := valid[f]; ok {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// Selector resolves which report the user wants, optionally hinted by
// candidates from the hybrid name index.
type Selector struct {
	client llm.Client
	logger *slog.Logger
}

func NewSelector(client llm.Client) *Selector {
	return &Selector{client: client, logger: logging.WithComponent("classify.selector")}
}

// Select returns the resolved report ID, or the zero ID when the message
// names no report. Candidates, when given, are injected as search hints.
func (s *Selector) Select(ctx context.Context, history []*message.Message, input string, candidates []string) (report.ID, error) {
	enum := make([]string, 0, 5)
	for _, schema := range report.Definitions() {
		enum = append(enum, string(schema.ID))
	}
	enum = append(enum, report.Unspecified)

	sys, err := selectorPrompt.Render(map[string]any{
		"catalogue":  renderCatalogue(),
		"candidates": strings.Join(candidates, "\n"),
		"history":    renderHistory(history),
		"input":      input,
	})
	if err != nil {
		return "", err
	}

	jsonSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"function_called": map[string]any{"type": "string", "enum": enum},
		},
		"required":             []string{"function_called"},
		"additionalProperties": false,
	}

	raw, err := s.client.Complete(ctx, llm.NewRequest(sys, input).WithSchema("report_select", jsonSchema))
	if err != nil {
		s.logger.Warn("report selection failed", "error", err)
		return "", err
	}
	var out struct {
		FunctionCalled string `json:"function_called"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		s.logger.Warn("report selection returned malformed JSON", "error", err)
		return "", err
	}
	return report.ParseID(out.FunctionCalled), nil
}
