// Package abbrev resolves the abbreviations users write for reports and
// parameter values. It blends semantic search over embeddings with a BM25
// index, fuses the two lists by weighted voting, and optionally reranks the
// fused head with a cross-encoder.
package abbrev

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/sweetpotato0/reportflow/embedder"
	"github.com/sweetpotato0/reportflow/pkg/logging"
	"github.com/sweetpotato0/reportflow/reranker"
)

// Entry is one searchable alias: Text is what users write, Key the canonical
// value it resolves to.
type Entry struct {
	Key  string
	Text string
}

// Match is one search hit.
type Match struct {
	Key   string
	Text  string
	Score float32
}

// Label renders a match as a selector hint.
func (m Match) Label() string {
	return fmt.Sprintf("%s (%s)", m.Text, m.Key)
}

// Config holds search tuning. Semantic carries most of the vote; the lexical
// list mostly breaks ties and catches exact-token hits embeddings miss.
type Config struct {
	SemanticTopK   int
	LexicalTopK    int
	SemanticWeight float32
	LexicalWeight  float32
}

// Option customizes an Index.
type Option func(*Index)

// WithEmbedder enables the semantic list.
func WithEmbedder(e embedder.Embedder) Option {
	return func(i *Index) { i.emb = e }
}

// WithReranker enables reranking of the fused head.
func WithReranker(r reranker.Reranker) Option {
	return func(i *Index) { i.rr = r }
}

// WithWeights overrides the source weights (defaults 0.9 semantic, 0.1
// lexical).
func WithWeights(semantic, lexical float32) Option {
	return func(i *Index) {
		if semantic >= 0 && lexical >= 0 {
			i.cfg.SemanticWeight = semantic
			i.cfg.LexicalWeight = lexical
		}
	}
}

// WithTopK overrides how many hits each source contributes before fusion.
func WithTopK(semantic, lexical int) Option {
	return func(i *Index) {
		if semantic > 0 {
			i.cfg.SemanticTopK = semantic
		}
		if lexical > 0 {
			i.cfg.LexicalTopK = lexical
		}
	}
}

// indexState is the immutable product of one Build; Rebuild swaps it whole so
// concurrent searches never see a half-built index.
type indexState struct {
	entries []Entry
	vectors [][]float32
	lexical *bm25Index
}

// Index is the hybrid abbreviation index.
type Index struct {
	emb    embedder.Embedder
	rr     reranker.Reranker
	cfg    Config
	logger *slog.Logger

	mu    sync.RWMutex
	state *indexState
}

func New(opts ...Option) *Index {
	i := &Index{
		cfg: Config{
			SemanticTopK:   8,
			LexicalTopK:    8,
			SemanticWeight: 0.9,
			LexicalWeight:  0.1,
		},
		logger: logging.WithComponent("abbrev"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build indexes the entries, replacing any previous index atomically.
// Building the same entries twice yields an identical index.
func (i *Index) Build(ctx context.Context, entries []Entry) error {
	state := &indexState{
		entries: make([]Entry, len(entries)),
		lexical: newBM25(),
	}
	copy(state.entries, entries)
	for idx, e := range state.entries {
		state.lexical.add(idx, e.Text)
	}

	if i.emb != nil && len(entries) > 0 {
		texts := make([]string, len(state.entries))
		for idx, e := range state.entries {
			texts[idx] = e.Text
		}
		vectors, err := i.emb.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("abbrev: embed entries: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("abbrev: embedder returned %d vectors for %d entries", len(vectors), len(texts))
		}
		state.vectors = vectors
	}

	i.mu.Lock()
	i.state = state
	i.mu.Unlock()
	return nil
}

// Search returns up to topK matches for the query, best first.
func (i *Index) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	i.mu.RLock()
	state := i.state
	i.mu.RUnlock()
	if state == nil || len(state.entries) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	semantic := i.semanticHits(ctx, state, query)
	lexical := state.lexical.search(query, i.cfg.LexicalTopK)

	fused := fuse(semantic, i.cfg.SemanticWeight, lexical, i.cfg.LexicalWeight)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	matches := make([]Match, 0, len(fused))
	for _, f := range fused {
		e := state.entries[f.Index]
		matches = append(matches, Match{Key: e.Key, Text: e.Text, Score: f.Score})
	}

	return i.rerank(ctx, query, matches), nil
}

func (i *Index) semanticHits(ctx context.Context, state *indexState, query string) []lexicalHit {
	if i.emb == nil || len(state.vectors) == 0 {
		return nil
	}
	qv, err := i.emb.Embed(ctx, query)
	if err != nil {
		i.logger.Warn("query embedding failed, lexical only", "error", err)
		return nil
	}
	hits := make([]lexicalHit, 0, len(state.vectors))
	for idx, v := range state.vectors {
		if score := embedder.Cosine(qv, v); score > 0 {
			hits = append(hits, lexicalHit{Index: idx, Score: score})
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Index < hits[b].Index
	})
	if len(hits) > i.cfg.SemanticTopK {
		hits = hits[:i.cfg.SemanticTopK]
	}
	return hits
}

// fuse blends ranked lists by weighted voting: each list distributes its
// weight evenly over its items, so presence in a short strong list counts for
// more than a deep tail position. Ties keep first-seen order.
func fuse(semantic []lexicalHit, semWeight float32, lexical []lexicalHit, lexWeight float32) []lexicalHit {
	type vote struct {
		index int
		score float32
		seen  int
	}
	votes := make(map[int]*vote)
	order := 0
	cast := func(hits []lexicalHit, weight float32) {
		if len(hits) == 0 {
			return
		}
		mass := weight / float32(len(hits))
		for _, h := range hits {
			v, ok := votes[h.Index]
			if !ok {
				v = &vote{index: h.Index, seen: order}
				votes[h.Index] = v
				order++
			}
			v.score += mass
		}
	}
	cast(semantic, semWeight)
	cast(lexical, lexWeight)

	out := make([]*vote, 0, len(votes))
	for _, v := range votes {
		out = append(out, v)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].score != out[b].score {
			return out[a].score > out[b].score
		}
		return out[a].seen < out[b].seen
	})

	fused := make([]lexicalHit, 0, len(out))
	for _, v := range out {
		fused = append(fused, lexicalHit{Index: v.index, Score: v.score})
	}
	return fused
}

// rerank reorders the fused head with the cross-encoder; on failure the fused
// order stands.
func (i *Index) rerank(ctx context.Context, query string, matches []Match) []Match {
	if i.rr == nil || len(matches) < 2 {
		return matches
	}
	docs := make([]string, len(matches))
	for idx, m := range matches {
		docs[idx] = m.Text
	}
	results, err := i.rr.Rank(ctx, query, docs)
	if err != nil || len(results) == 0 {
		i.logger.Warn("rerank failed, keeping fused order", "error", err)
		return matches
	}
	out := make([]Match, 0, len(matches))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(matches) {
			continue
		}
		m := matches[r.Index]
		m.Score = r.Score
		out = append(out, m)
	}
	if len(out) == 0 {
		return matches
	}
	return out
}
