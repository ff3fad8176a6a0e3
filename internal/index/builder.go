package index

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve"
	"go.uber.org/zap"

	"careerqa/internal/ingest"
)

// Builder turns chunks into an Index.
type Builder struct {
	source EmbedderSource
	logger *zap.Logger
}

func NewBuilder(source EmbedderSource, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{source: source, logger: logger}
}

// Build embeds and indexes chunks and returns the index with its document
// count. A zero count is an error even when every step succeeded.
func (b *Builder) Build(ctx context.Context, chunks []ingest.Chunk) (*Index, int, error) {
	if len(chunks) == 0 {
		return nil, 0, ErrZeroDocumentsIndexed
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedder, err := b.source.ForCorpus(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("prepare embedder failed: %w", err)
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed chunks failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, 0, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
	}

	keyword, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, 0, fmt.Errorf("create keyword index failed: %w", err)
	}
	batch := keyword.NewBatch()
	for i, c := range chunks {
		if err := batch.Index(strconv.Itoa(i), keywordDoc{Text: c.Text}); err != nil {
			_ = keyword.Close()
			return nil, 0, fmt.Errorf("index chunk %d failed: %w", i, err)
		}
	}
	if err := keyword.Batch(batch); err != nil {
		_ = keyword.Close()
		return nil, 0, fmt.Errorf("write keyword index failed: %w", err)
	}

	count, err := keyword.DocCount()
	if err != nil {
		_ = keyword.Close()
		return nil, 0, fmt.Errorf("count indexed documents failed: %w", err)
	}
	if count == 0 {
		_ = keyword.Close()
		return nil, 0, ErrZeroDocumentsIndexed
	}

	b.logger.Debug("index built", zap.Uint64("documents", count), zap.Int("dimension", len(vectors[0])))
	return &Index{
		keyword:  keyword,
		chunks:   chunks,
		vectors:  vectors,
		embedder: embedder,
		count:    int(count),
	}, int(count), nil
}
