package llm

import (
	"testing"
)

func TestDecodeJSONPlain(t *testing.T) {
	var out struct {
		IsConfirmed int `json:"is_confirmed"`
	}
	if err := DecodeJSON(`{"is_confirmed": 1}`, &out); err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if out.IsConfirmed != 1 {
		t.Fatalf("expected 1, got %d", out.IsConfirmed)
	}
}

func TestDecodeJSONFenced(t *testing.T) {
	raw := "Here you go:\n```json\n{\"function_called\": \"/turnover\"}\n```"
	var out struct {
		FunctionCalled string `json:"function_called"`
	}
	if err := DecodeJSON(raw, &out); err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if out.FunctionCalled != "/turnover" {
		t.Fatalf("expected /turnover, got %q", out.FunctionCalled)
	}
}

func TestDecodeJSONRejectsEmpty(t *testing.T) {
	var out map[string]any
	if err := DecodeJSON("", &out); err == nil {
		t.Fatal("expected error for empty response")
	}
	if err := DecodeJSON("no json here", &out); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestNewRequestBuildsMessages(t *testing.T) {
	req := NewRequest("system text", "user text")
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected roles: %v %v", req.Messages[0].Role, req.Messages[1].Role)
	}

	req = NewRequest("", "only user")
	if len(req.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(req.Messages))
	}
}
