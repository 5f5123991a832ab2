// Package reranker scores retrieval candidates against a query. The Lexical
// implementation is the in-process fallback; the cross-encoder-backed client
// lives under contrib/reranker/cohere.
package reranker

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Result is one scored candidate; Index refers to the input document slice.
type Result struct {
	Index int
	Score float32
}

// Reranker orders candidate documents by relevance to the query. Returned
// results are sorted by descending score.
type Reranker interface {
	Rank(ctx context.Context, query string, docs []string) ([]Result, error)
}

var tokenRegex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range tokenRegex.FindAllString(strings.ToLower(s), -1) {
		out[tok] = struct{}{}
	}
	return out
}

// Lexical ranks by token overlap between query and document. Cheap,
// deterministic and dependency-free; good enough when the remote reranker is
// down.
type Lexical struct{}

func NewLexical() *Lexical { return &Lexical{} }

// Rank implements Reranker. Ties keep input order.
func (l *Lexical) Rank(ctx context.Context, query string, docs []string) ([]Result, error) {
	qTokens := tokenize(query)
	results := make([]Result, 0, len(docs))
	for i, doc := range docs {
		dTokens := tokenize(doc)
		var overlap int
		for tok := range dTokens {
			if _, ok := qTokens[tok]; ok {
				overlap++
			}
		}
		var score float32
		if union := len(qTokens) + len(dTokens) - overlap; union > 0 {
			score = float32(overlap) / float32(union)
		}
		results = append(results, Result{Index: i, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
