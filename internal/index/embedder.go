package index

import "context"

// Embedder maps text to dense vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedderSource yields the Embedder for one document's chunks. Providers
// that learn from the corpus (tf-idf) are fitted here; remote providers
// ignore the corpus.
type EmbedderSource interface {
	ForCorpus(ctx context.Context, corpus []string) (Embedder, error)
}

type EmbedderSourceFunc func(ctx context.Context, corpus []string) (Embedder, error)

func (f EmbedderSourceFunc) ForCorpus(ctx context.Context, corpus []string) (Embedder, error) {
	return f(ctx, corpus)
}

// Static returns a source that always hands out e.
func Static(e Embedder) EmbedderSource {
	return EmbedderSourceFunc(func(context.Context, []string) (Embedder, error) {
		return e, nil
	})
}
