package tesseract

import (
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Engine wraps a single Tesseract client. The client is created on first use
// and must not be shared between goroutines without external locking.
type Engine struct {
	mu       sync.Mutex
	language string
	client   *gosseract.Client
}

func New(language string) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{language: language}
}

func (e *Engine) init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return nil
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(e.language); err != nil {
		_ = client.Close()
		return fmt.Errorf("tesseract set language %q: %w", e.language, err)
	}
	e.client = client
	return nil
}

func (e *Engine) Recognize(image []byte) (string, error) {
	if err := e.init(); err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}
	return e.client.Text()
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
