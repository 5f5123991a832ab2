// Package llm defines the language-model primitive the agents are built on:
// send messages, optionally constrained by a JSON schema, get text back.
// Provider implementations live under contrib/provider.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sweetpotato0/reportflow/message"
)

// Request bundles inputs for a single completion call.
type Request struct {
	Messages []*message.Message

	// Schema, when non-nil, constrains the response to JSON matching the
	// given JSON-schema document. SchemaName labels it for providers that
	// require a name (OpenAI strict mode).
	Schema     map[string]any
	SchemaName string
}

// Client is the provider-agnostic completion interface. Implementations must
// return a distinguishable error on transport failures or non-2xx statuses,
// never silently-wrong content.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// NewRequest builds a request from a system prompt and a user prompt.
func NewRequest(system, user string) *Request {
	msgs := make([]*message.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, message.New(message.RoleSystem, system))
	}
	msgs = append(msgs, message.New(message.RoleUser, user))
	return &Request{Messages: msgs}
}

// WithSchema attaches a JSON-schema constraint to the request.
func (r *Request) WithSchema(name string, schema map[string]any) *Request {
	r.SchemaName = name
	r.Schema = schema
	return r
}

// DecodeJSON parses a model response into v. Models occasionally wrap JSON in
// code fences or prose; the first balanced object is extracted before
// unmarshalling.
func DecodeJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("empty model response")
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}
