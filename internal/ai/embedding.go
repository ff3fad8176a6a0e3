package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const defaultEmbeddingBatchSize = 10 // many OpenAI-compatible providers cap input arrays

// EmbeddingConfig holds API settings for text embeddings.
type EmbeddingConfig struct {
	Model     string
	BatchSize int
	Attempts  uint
	Delay     time.Duration
	MaxDelay  time.Duration
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewOpenAIEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *OpenAIEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultEmbeddingBatchSize
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 200 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 2 * time.Second
	}
	return &OpenAIEmbedder{client: client, cfg: cfg}
}

// EmbedDocuments embeds texts in batches, preserving order.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.cfg.BatchSize {
		end := i + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(out), len(texts))
	}
	return out, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("embedding input is empty")
	}
	vecs, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	input := make([]string, len(texts))
	for i, t := range texts {
		// Empty strings are rejected by most providers.
		if input[i] = strings.TrimSpace(t); input[i] == "" {
			input[i] = " "
		}
	}
	reqBody := map[string]any{
		"model": e.cfg.Model,
		"input": input,
	}

	return retry.DoWithData(
		func() ([][]float32, error) {
			var parsed struct {
				Data []struct {
					Index     int       `json:"index"`
					Embedding []float32 `json:"embedding"`
				} `json:"data"`
			}
			if err := e.client.postJSON(ctx, "/embeddings", reqBody, &parsed); err != nil {
				return nil, fmt.Errorf("embedding request failed: %w", err)
			}
			if len(parsed.Data) != len(input) {
				return nil, retry.Unrecoverable(fmt.Errorf("embedding response has %d vectors for %d inputs", len(parsed.Data), len(input)))
			}
			result := make([][]float32, len(parsed.Data))
			for i, d := range parsed.Data {
				idx := d.Index
				if idx < 0 || idx >= len(result) {
					idx = i
				}
				result[idx] = d.Embedding
			}
			return result, nil
		},
		retry.Context(ctx),
		retry.Attempts(e.cfg.Attempts),
		retry.Delay(e.cfg.Delay),
		retry.MaxDelay(e.cfg.MaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
