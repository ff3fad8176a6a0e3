package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

func TestChatConfigTimeoutReachesAdapters(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "configured", timeout: 45 * time.Second, want: 45 * time.Second},
		{name: "default", want: defaultChatTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ChatConfig{Model: "llama3-8b-8192", APIKey: "k", Timeout: tt.timeout}
			if got := openAIConfig(cfg).Timeout; got != tt.want {
				t.Fatalf("openai timeout = %v, want %v", got, tt.want)
			}
			gc := geminiClientConfig(cfg)
			if gc.HTTPClient == nil || gc.HTTPClient.Timeout != tt.want {
				t.Fatalf("gemini http client = %+v, want timeout %v", gc.HTTPClient, tt.want)
			}
		})
	}
}

type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDeadlineModelStopsHungCall(t *testing.T) {
	m := withDeadline(blockingModel{}, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := m.Generate(context.WithoutCancel(context.Background()), nil)
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("generate did not return after the deadline")
	}
}
