package abbrev

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// bm25Index scores entries lexically. It is built once per Build call and
// never mutated afterwards, so searches need no locking.
type bm25Index struct {
	docFreq     map[string]int
	postings    map[string]map[int]int
	entryLength map[int]int
	totalLength int
	docCount    int
	k1          float64
	b           float64
}

var bm25Regex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

func newBM25() *bm25Index {
	return &bm25Index{
		docFreq:     make(map[string]int),
		postings:    make(map[string]map[int]int),
		entryLength: make(map[int]int),
		k1:          1.6,
		b:           0.75,
	}
}

func (b *bm25Index) add(idx int, text string) {
	terms := tokenize(text)
	if len(terms) == 0 {
		return
	}
	b.docCount++
	b.entryLength[idx] = len(terms)
	b.totalLength += len(terms)

	seen := make(map[string]struct{})
	for _, term := range terms {
		if _, ok := b.postings[term]; !ok {
			b.postings[term] = make(map[int]int)
		}
		b.postings[term][idx]++
		if _, exists := seen[term]; !exists {
			b.docFreq[term]++
			seen[term] = struct{}{}
		}
	}
}

type lexicalHit struct {
	Index int
	Score float32
}

func (b *bm25Index) search(query string, limit int) []lexicalHit {
	terms := unique(tokenize(query))
	if len(terms) == 0 || b.docCount == 0 {
		return nil
	}
	avgLen := float64(b.totalLength) / float64(b.docCount)
	scores := make(map[int]float64)
	for _, term := range terms {
		postings := b.postings[term]
		if len(postings) == 0 {
			continue
		}
		df := b.docFreq[term]
		idf := math.Log((float64(b.docCount)-float64(df)+0.5)/(float64(df)+0.5) + 1)
		for idx, tf := range postings {
			docLen := float64(b.entryLength[idx])
			numerator := float64(tf) * (b.k1 + 1)
			denominator := float64(tf) + b.k1*(1-b.b+b.b*(docLen/avgLen))
			scores[idx] += idf * (numerator / denominator)
		}
	}
	hits := make([]lexicalHit, 0, len(scores))
	for idx, score := range scores {
		hits = append(hits, lexicalHit{Index: idx, Score: float32(score)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Index < hits[j].Index
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func tokenize(content string) []string {
	return bm25Regex.FindAllString(strings.ToLower(content), -1)
}

func unique(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
