package ai

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’+#.][\p{L}\p{N}]+)*`)
	stopwords    = newStopwords()
)

// TFIDFEmbedder is a local embedder whose vocabulary and IDF weights are
// fitted on one document's chunks. Vectors are L2-normalized.
type TFIDFEmbedder struct {
	vocabulary map[string]int
	idf        []float32
}

// NewTFIDFEmbedder fits the embedder on corpus.
func NewTFIDFEmbedder(corpus []string) (*TFIDFEmbedder, error) {
	if len(corpus) == 0 {
		return nil, errors.New("empty corpus for tf-idf")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	e := &TFIDFEmbedder{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float32, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		e.idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1)
	}
	return e, nil
}

func (e *TFIDFEmbedder) Dimension() int { return len(e.idf) }

func (e *TFIDFEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *TFIDFEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *TFIDFEmbedder) embed(text string) []float32 {
	vec := make([]float32, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	var norm float64
	for idx, count := range tf {
		v := float32(count) / float32(total) * e.idf[idx]
		vec[idx] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for idx := range tf {
			vec[idx] *= inv
		}
	}
	return vec
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func newStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "how", "do", "does", "did",
		"my", "your", "i", "you", "me",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
