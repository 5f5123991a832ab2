// Package gemini implements the llm.Client interface on Google's Gemini API.
// Schema-constrained requests force a JSON response MIME type and carry the
// schema in the system instruction.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/reportflow/llm"
	"github.com/sweetpotato0/reportflow/message"
)

// Config holds Gemini provider configuration.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   1024,
		Temperature: 0,
	}
}

// Provider implements llm.Client for Gemini.
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a Gemini provider; the client owns a connection and must be
// closed via Close.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Complete implements llm.Client.
func (p *Provider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("request cannot be nil")
	}

	model := p.client.GenerativeModel(p.config.Model)
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	model.SetTemperature(p.config.Temperature)

	var systemParts []string
	var userParts []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case message.RoleUser:
			userParts = append(userParts, msg.Content)
		case message.RoleAssistant:
			// folded into the prompt; Gemini chat sessions are not needed
			// for single-shot classification calls
			userParts = append(userParts, "Previous assistant reply:\n"+msg.Content)
		}
	}

	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		schemaJSON, err := json.Marshal(req.Schema)
		if err != nil {
			return "", fmt.Errorf("failed to marshal schema: %w", err)
		}
		systemParts = append(systemParts, fmt.Sprintf(
			"Respond with a single JSON object matching this JSON schema:\n%s", schemaJSON))
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(systemParts, "\n"))},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(strings.Join(userParts, "\n")))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Gemini returned no text content")
	}
	return text.String(), nil
}

// Close releases the underlying client connection.
func (p *Provider) Close() error {
	return p.client.Close()
}
