package abbrev

import (
	"context"
	"hash/fnv"
	"testing"

	"github.com/sweetpotato0/reportflow/report"
	"github.com/sweetpotato0/reportflow/reranker"
)

// hashEmbedder is a deterministic stand-in: token hashes bucketed into a
// small vector, so identical tokens land in identical buckets.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 32)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%32]++
	}
	return vec, nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func buildIndex(t *testing.T, opts ...Option) *Index {
	t.Helper()
	idx := New(opts...)
	if err := idx.Build(context.Background(), ReportEntries()); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return idx
}

func TestSearchLexicalOnly(t *testing.T) {
	idx := buildIndex(t)

	matches, err := idx.Search(context.Background(), "win loss", 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Key != string(report.WinlostDetail) {
		t.Fatalf("expected winlost on top, got %+v", matches[0])
	}
}

func TestSearchHybrid(t *testing.T) {
	idx := buildIndex(t, WithEmbedder(hashEmbedder{}), WithReranker(reranker.NewLexical()))

	matches, err := idx.Search(context.Background(), "turn over report", 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Key != string(report.Turnover) {
		t.Fatalf("expected turnover on top, got %+v", matches[0])
	}
}

func TestSearchDeterministic(t *testing.T) {
	idx := buildIndex(t, WithEmbedder(hashEmbedder{}))

	first, err := idx.Search(context.Background(), "os", 5)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := idx.Search(context.Background(), "os", 5)
		if err != nil {
			t.Fatalf("Search error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed %d vs %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].Key != first[j].Key || again[j].Text != first[j].Text {
				t.Fatalf("run %d: order changed at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestRebuildSwapsAtomically(t *testing.T) {
	idx := buildIndex(t)

	if err := idx.Build(context.Background(), []Entry{{Key: "x", Text: "exotic"}}); err != nil {
		t.Fatalf("rebuild error: %v", err)
	}
	matches, err := idx.Search(context.Background(), "win loss", 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	for _, m := range matches {
		if m.Key == string(report.WinlostDetail) {
			t.Fatal("old entries should be gone after rebuild")
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New()
	matches, err := idx.Search(context.Background(), "anything", 3)
	if err != nil || matches != nil {
		t.Fatalf("empty index should return nothing, got %v err=%v", matches, err)
	}
}

func TestFuseWeighting(t *testing.T) {
	semantic := []lexicalHit{{Index: 1, Score: 0.9}, {Index: 2, Score: 0.5}}
	lexical := []lexicalHit{{Index: 3, Score: 4.2}}

	fused := fuse(semantic, 0.9, lexical, 0.1)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused hits, got %d", len(fused))
	}
	// each semantic item carries 0.45 of vote mass, the lexical one 0.1
	if fused[0].Index != 1 && fused[0].Index != 2 {
		t.Fatalf("semantic hits should lead, got %+v", fused)
	}
	if fused[2].Index != 3 {
		t.Fatalf("lexical-only hit should trail, got %+v", fused)
	}
}

func TestEntitiesResolve(t *testing.T) {
	e, err := NewEntities(context.Background())
	if err != nil {
		t.Fatalf("NewEntities error: %v", err)
	}

	got, ok := e.Resolve(context.Background(), report.WinlostDetail, report.FieldProduct, "virtual games")
	if !ok || got != "Virtual Sports" {
		t.Fatalf("expected Virtual Sports, got %q ok=%v", got, ok)
	}

	got, ok = e.Resolve(context.Background(), report.Outstanding, report.FieldProduct, "live casino tables")
	if !ok || got != "Casino" {
		t.Fatalf("expected Casino, got %q ok=%v", got, ok)
	}

	if _, ok := e.Resolve(context.Background(), report.Outstanding, report.FieldUser, "player01"); ok {
		t.Fatal("free-text fields have no entity index")
	}
	if _, ok := e.Resolve(context.Background(), report.WinlostDetail, report.FieldProduct, "qwerty"); ok {
		t.Fatal("gibberish must not resolve")
	}
}

func TestFieldEntriesDeterministic(t *testing.T) {
	first := FieldEntries(report.WinlostDetail)
	if len(first) == 0 {
		t.Fatal("expected field entries")
	}
	for i := 0; i < 5; i++ {
		again := FieldEntries(report.WinlostDetail)
		if len(again) != len(first) {
			t.Fatalf("length changed: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("order changed at %d: %+v vs %+v", j, again[j], first[j])
			}
		}
	}
}
