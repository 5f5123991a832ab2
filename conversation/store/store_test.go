package store

import (
	"context"
	"testing"
	"time"

	stderrors "errors"

	"github.com/sweetpotato0/reportflow/conversation"
	"github.com/sweetpotato0/reportflow/errors"
	"github.com/sweetpotato0/reportflow/report"
)

func sampleState(userID string) *conversation.State {
	s := conversation.NewState(userID)
	s.Report = report.Turnover
	s.Fields = report.Fields{report.FieldProduct: "Casino"}
	s.Status = report.StatusNoDateRange
	s.Append("casino t/o", "Which period should I use?")
	return s
}

func testRoundTrip(t *testing.T, s conversation.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "nobody"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in := sampleState("agent42")
	if err := s.Put(ctx, in); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	out, err := s.Get(ctx, "agent42")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if out.Report != report.Turnover || out.Status != report.StatusNoDateRange {
		t.Fatalf("state mismatch: %+v", out)
	}
	if out.Fields[report.FieldProduct] != "Casino" {
		t.Fatalf("fields mismatch: %v", out.Fields)
	}
	if len(out.History) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(out.History))
	}

	if err := s.Delete(ctx, "agent42"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, "agent42"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestInMemoryRoundTrip(t *testing.T) {
	testRoundTrip(t, NewInMemoryStore())
}

func TestFileRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	testRoundTrip(t, s)
}

func TestInMemoryIsolation(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	in := sampleState("agent42")
	if err := s.Put(ctx, in); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	in.Fields[report.FieldProduct] = "Lottery"

	out, err := s.Get(ctx, "agent42")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if out.Fields[report.FieldProduct] != "Casino" {
		t.Fatal("store must not share memory with callers")
	}

	out.Fields[report.FieldProduct] = "RNG Slot"
	again, _ := s.Get(ctx, "agent42")
	if again.Fields[report.FieldProduct] != "Casino" {
		t.Fatal("returned state must be a copy")
	}
}

func TestInMemoryEvict(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	old := sampleState("stale")
	old.UpdatedAt = time.Now().Add(-2 * time.Hour)
	if err := s.Put(ctx, old); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put(ctx, sampleState("fresh")); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	n, err := s.Evict(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Evict error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Fatalf("fresh state should survive: %v", err)
	}
}

func TestFileStoreSafeNames(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()

	in := sampleState("../../etc/passwd")
	if err := s.Put(ctx, in); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	out, err := s.Get(ctx, "../../etc/passwd")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if out.UserID != "../../etc/passwd" {
		t.Fatalf("user ID mismatch: %q", out.UserID)
	}
}
