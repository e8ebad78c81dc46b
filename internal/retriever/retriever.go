// Package retriever ranks knowledge snippets against a user query.
package retriever

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/knowledge"
)

const (
	// MaxTopK bounds how many snippets a single retrieval may return
	MaxTopK = 10

	tagWeight = 2.0
)

// Lexical scores snippets by weighted term overlap with the query. Scoring
// is deterministic: for a fixed store and query the same ranking is
// produced on every call, with ties broken by snippet insertion order.
type Lexical struct {
	store *knowledge.Store
}

// NewLexical creates a retriever over the given knowledge store.
func NewLexical(store *knowledge.Store) *Lexical {
	return &Lexical{store: store}
}

// Retrieve returns up to k snippets relevant to the query, best first.
// Snippets that share no terms with the query are not returned. An empty
// or uninitialized store yields an empty result, never an error.
func (r *Lexical) Retrieve(_ context.Context, query string, k int) ([]domain.KnowledgeSnippet, error) {
	if r.store == nil || r.store.Len() == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		snippet domain.KnowledgeSnippet
		score   float64
	}

	var results []scored
	for _, snippet := range r.store.Snippets() {
		score := scoreSnippet(terms, snippet)
		if score > 0 {
			results = append(results, scored{snippet: snippet, score: score})
		}
	}

	// Stable sort keeps insertion order between equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > k {
		results = results[:k]
	}

	snippets := make([]domain.KnowledgeSnippet, len(results))
	for i, res := range results {
		snippets[i] = res.snippet
	}
	return snippets, nil
}

// scoreSnippet counts query terms occurring in the snippet text, with tag
// matches weighted higher. Repeated occurrences of a term in the text do
// not inflate the score; coverage of distinct terms is what matters.
func scoreSnippet(terms []string, snippet domain.KnowledgeSnippet) float64 {
	text := strings.ToLower(snippet.Text)
	tags := make(map[string]bool, len(snippet.Tags))
	for _, tag := range snippet.Tags {
		tags[strings.ToLower(tag)] = true
	}

	var score float64
	for _, term := range terms {
		if tags[term] {
			score += tagWeight
			continue
		}
		if strings.Contains(text, term) {
			score++
		}
	}
	return score
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-character noise and duplicate terms.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
