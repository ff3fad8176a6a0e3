package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/blevesearch/bleve"

	"careerqa/internal/ingest"
)

var (
	ErrZeroDocumentsIndexed = errors.New("zero documents indexed")
	ErrIndexClosed          = errors.New("index is closed")
)

// Hit is one retrieved chunk. Rank starts at 1.
type Hit struct {
	Chunk ingest.Chunk `json:"chunk"`
	Score float64      `json:"score"`
	Rank  int          `json:"rank"`
}

// Index is the searchable form of one document: a memory-only bleve keyword
// index alongside a table of chunk embeddings. It is read-only once built and
// safe for concurrent searches.
type Index struct {
	keyword  bleve.Index
	chunks   []ingest.Chunk
	vectors  [][]float32
	embedder Embedder
	count    int
	closed   atomic.Bool
}

type keywordDoc struct {
	Text string `json:"text"`
}

// Count is the number of documents the keyword index reported after building.
func (ix *Index) Count() int {
	return ix.count
}

// Search returns the k chunks that best match query, fusing a vector ranking
// and a keyword ranking of 3k candidates each.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if ix.closed.Load() {
		return nil, ErrIndexClosed
	}
	if k <= 0 {
		return nil, nil
	}
	candidates := 3 * k

	vectorRanks, err := ix.vectorSearch(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	keywordRanks, err := ix.keywordSearch(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	positions, scores := fuseRRF(k, vectorRanks, keywordRanks)
	hits := make([]Hit, len(positions))
	for i, pos := range positions {
		hits[i] = Hit{Chunk: ix.chunks[pos], Score: scores[i], Rank: i + 1}
	}
	return hits, nil
}

func (ix *Index) vectorSearch(ctx context.Context, query string, n int) ([]ranked, error) {
	qv, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	type scored struct {
		pos   int
		score float64
	}
	all := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		all[i] = scored{pos: i, score: cosine(qv, v)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if n < len(all) {
		all = all[:n]
	}
	out := make([]ranked, len(all))
	for i, s := range all {
		out[i] = ranked{pos: s.pos, rank: i + 1}
	}
	return out, nil
}

func (ix *Index) keywordSearch(ctx context.Context, query string, n int) ([]ranked, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), n, 0, false)
	res, err := ix.keyword.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	out := make([]ranked, 0, len(res.Hits))
	for i, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(ix.chunks) {
			continue
		}
		out = append(out, ranked{pos: pos, rank: i + 1})
	}
	return out, nil
}

// Close releases the keyword index. It is safe to call more than once.
func (ix *Index) Close() error {
	if ix.closed.Swap(true) {
		return nil
	}
	return ix.keyword.Close()
}
