package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeModel struct {
	reply string
	err   error
	calls int
	last  string
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.last = input[len(input)-1].Content
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

type countingObserver struct {
	decisions []bool
	failures  int
}

func (o *countingObserver) ClassifierDecision(inDomain bool) { o.decisions = append(o.decisions, inDomain) }
func (o *countingObserver) ClassifierFailure()              { o.failures++ }

func TestIsInDomain(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"exact", "career", true},
		{"padded upper", "  CAREER\n", true},
		{"prefix only", "career-ish answer", true},
		{"other", "other", false},
		{"contains later", "not a career question", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{reply: tt.reply}
			g := NewGate(m, FailOpen, nil, nil)
			if got := g.IsInDomain(context.Background(), "How do I negotiate salary?"); got != tt.want {
				t.Fatalf("IsInDomain = %v, want %v", got, tt.want)
			}
			if m.calls != 1 {
				t.Fatalf("expected exactly one model call, got %d", m.calls)
			}
			if !strings.Contains(m.last, "Question: How do I negotiate salary?\nAnswer:") {
				t.Fatalf("question not placed in prompt: %q", m.last)
			}
		})
	}
}

func TestFailurePolicies(t *testing.T) {
	failing := []*fakeModel{
		{err: errors.New("timeout")},
		{reply: "   "},
	}
	for _, m := range failing {
		obs := &countingObserver{}
		if !NewGate(m, FailOpen, nil, obs).IsInDomain(context.Background(), "q") {
			t.Fatal("fail-open gate rejected the question")
		}
		if obs.failures != 1 {
			t.Fatalf("expected failure to be observed, got %d", obs.failures)
		}
		m.calls = 0
		if NewGate(m, FailClosed, nil, nil).IsInDomain(context.Background(), "q") {
			t.Fatal("fail-closed gate accepted the question")
		}
		if m.calls != 1 {
			t.Fatalf("expected one call, got %d", m.calls)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("allow"); err != nil || p != FailOpen {
		t.Fatalf("allow: %v %v", p, err)
	}
	if p, err := ParsePolicy("DENY"); err != nil || p != FailClosed {
		t.Fatalf("deny: %v %v", p, err)
	}
	if _, err := ParsePolicy("maybe"); err == nil {
		t.Fatal("expected error")
	}
}
