package vision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Engine recognizes text in a PNG image. Implementations need not be safe
// for concurrent use; OCR serializes calls.
type Engine interface {
	Recognize(image []byte) (string, error)
}

// OCR turns uploaded images into text. Decoding and scaling run concurrently;
// only the engine call holds the lock.
type OCR struct {
	mu     sync.Mutex
	engine Engine
}

func NewOCR(engine Engine) *OCR {
	return &OCR{engine: engine}
}

func (o *OCR) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	prepared, err := PrepareForOCR(data)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	o.mu.Lock()
	text, err := o.engine.Recognize(prepared)
	o.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("ocr recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}
