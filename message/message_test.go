package message

import (
	"testing"
)

func TestNew(t *testing.T) {
	msg := New(RoleUser, "Hello, world!")

	if msg.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, msg.Role)
	}

	if msg.Content != "Hello, world!" {
		t.Errorf("Expected content 'Hello, world!', got '%s'", msg.Content)
	}

	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}

	if msg.CreatedAt.IsZero() {
		t.Error("Expected non-zero created time")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := New(RoleAssistant, "reply")
	original.Metadata["key"] = "value"

	cloned := Clone(original)
	cloned.Metadata["key"] = "changed"
	cloned.Content = "edited"

	if original.Metadata["key"] != "value" {
		t.Errorf("Expected original metadata untouched, got %v", original.Metadata["key"])
	}
	if original.Content != "reply" {
		t.Errorf("Expected original content untouched, got %s", original.Content)
	}
}

func TestCloneNil(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("Expected nil clone of nil message")
	}
	if CloneMessages(nil) != nil {
		t.Error("Expected nil clone of empty slice")
	}
}

func TestTextNilReceiver(t *testing.T) {
	var msg *Message
	if msg.Text() != "" {
		t.Errorf("Expected empty text for nil message, got %q", msg.Text())
	}
}
