package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweetpotato0/reportflow/reranker"
)

type stubReranker struct {
	called bool
}

func (s *stubReranker) Rank(ctx context.Context, query string, docs []string) ([]reranker.Result, error) {
	s.called = true
	return []reranker.Result{{Index: 0, Score: 0.5}}, nil
}

func TestRankFallsBackWithoutKey(t *testing.T) {
	fallback := &stubReranker{}
	client := New("", WithFallback(fallback))

	results, err := client.Rank(context.Background(), "win loss", []string{"wl", "turn over"})
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}
	if len(results) != 1 || !fallback.called {
		t.Fatal("expected fallback path")
	}
}

func TestRankCallsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "win loss" || len(req.Documents) != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 1, "relevance_score": 0.91},
				{"index": 0, "relevance_score": 0.12},
			},
		})
	}))
	defer srv.Close()

	client := New("test-key", WithEndpoint(srv.URL))
	results, err := client.Rank(context.Background(), "win loss", []string{"turn over", "wl"})
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}
	if len(results) != 2 || results[0].Index != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRankFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	fallback := &stubReranker{}
	client := New("test-key", WithEndpoint(srv.URL), WithFallback(fallback))

	results, err := client.Rank(context.Background(), "win loss", []string{"wl"})
	if err == nil {
		t.Fatal("expected cause to surface")
	}
	if !fallback.called || len(results) != 1 {
		t.Fatal("expected fallback results")
	}
}
