package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const defaultChatTimeout = 60 * time.Second

// ChatModel is the part of an eino chat model the service relies on.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type ChatConfig struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	// Timeout bounds one provider call. Zero means 60s.
	Timeout time.Duration
}

func (c ChatConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultChatTimeout
	}
	return c.Timeout
}

// NewChatModel builds the eino chat model for the configured provider.
// Supported providers are openai (any OpenAI-compatible endpoint), claude and gemini.
func NewChatModel(ctx context.Context, cfg ChatConfig) (ChatModel, error) {
	switch cfg.Provider {
	case "", "openai":
		return openai.NewChatModel(ctx, openAIConfig(cfg))
	case "claude":
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		maxTokens := cfg.MaxTokens
		if maxTokens <= 0 {
			maxTokens = 1024
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, err
		}
		return withDeadline(cm, cfg.timeout()), nil
	case "gemini":
		client, err := genai.NewClient(ctx, geminiClientConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("create gemini client failed: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	default:
		return nil, fmt.Errorf("invalid llm provider: %s", cfg.Provider)
	}
}

func openAIConfig(cfg ChatConfig) *openai.ChatModelConfig {
	return &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		Timeout: cfg.timeout(),
	}
}

func geminiClientConfig(cfg ChatConfig) *genai.ClientConfig {
	return &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.timeout()},
	}
}

// deadlineModel puts a per-call deadline on adapters that take no HTTP client.
type deadlineModel struct {
	next    ChatModel
	timeout time.Duration
}

func withDeadline(next ChatModel, timeout time.Duration) ChatModel {
	return &deadlineModel{next: next, timeout: timeout}
}

func (m *deadlineModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.Generate(ctx, input, opts...)
}
