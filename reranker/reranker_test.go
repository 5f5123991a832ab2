package reranker

import (
	"context"
	"testing"
)

func TestLexicalRank(t *testing.T) {
	l := NewLexical()
	docs := []string{"turn over", "win loss", "outstanding balance"}

	results, err := l.Rank(context.Background(), "win loss report", docs)
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Index != 1 {
		t.Fatalf("expected doc 1 on top, got %+v", results[0])
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("expected descending scores: %+v", results)
	}
}

func TestLexicalRankTiesKeepInputOrder(t *testing.T) {
	l := NewLexical()
	docs := []string{"alpha", "beta"}

	results, err := l.Rank(context.Background(), "gamma", docs)
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}
	if results[0].Index != 0 || results[1].Index != 1 {
		t.Fatalf("ties should keep input order, got %+v", results)
	}
}
