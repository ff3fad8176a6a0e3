package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"careerqa/internal/ai"
)

// Policy decides what a failed classification means.
type Policy int

const (
	// FailOpen treats a failed classification as in-domain so the question
	// still reaches retrieval.
	FailOpen Policy = iota
	// FailClosed treats a failed classification as out of domain.
	FailClosed
)

func (p Policy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

// ParsePolicy maps the configuration values "allow" and "deny".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "allow", "open", "fail_open":
		return FailOpen, nil
	case "deny", "closed", "fail_closed":
		return FailClosed, nil
	default:
		return FailOpen, fmt.Errorf("unknown classifier policy %q", s)
	}
}

const inDomainLabel = "career"

var errEmptyReply = errors.New("classifier returned an empty reply")

const fewShotPrompt = `You are a classifier. Decide whether the user's question is related to careers: jobs, resumes, skills, interviews, education for work, salaries, promotions or professional growth.
Reply with exactly one word: "career" if it is career related, otherwise "other".

Question: How can I improve my resume for a data analyst role?
Answer: career

Question: What skills should I learn to move into product management?
Answer: career

Question: Should I ask for a raise after one year?
Answer: career

Question: What's the best pizza topping?
Answer: other

Question: Who won the football match yesterday?
Answer: other

Question: Can you recommend a good movie?
Answer: other

Question: %s
Answer:`

// Observer receives each decision; metrics implement it.
type Observer interface {
	ClassifierDecision(inDomain bool)
	ClassifierFailure()
}

type noopObserver struct{}

func (noopObserver) ClassifierDecision(bool) {}
func (noopObserver) ClassifierFailure()      {}

// Gate is a single-call intent check in front of retrieval.
type Gate struct {
	llm      ai.ChatModel
	policy   Policy
	logger   *zap.Logger
	observer Observer
}

func NewGate(llm ai.ChatModel, policy Policy, logger *zap.Logger, observer Observer) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Gate{llm: llm, policy: policy, logger: logger, observer: observer}
}

func (g *Gate) Policy() Policy {
	return g.policy
}

// IsInDomain reports whether question is career related. It calls the
// model exactly once and never returns an error: failures are logged and
// resolved by the gate's policy.
func (g *Gate) IsInDomain(ctx context.Context, question string) bool {
	reply, err := g.classify(ctx, question)
	if err != nil {
		g.observer.ClassifierFailure()
		decision := g.policy == FailOpen
		g.logger.Warn("classifier failed, applying policy",
			zap.String("policy", g.policy.String()),
			zap.Bool("in_domain", decision),
			zap.Error(err),
		)
		g.observer.ClassifierDecision(decision)
		return decision
	}
	inDomain := strings.HasPrefix(reply, inDomainLabel)
	g.observer.ClassifierDecision(inDomain)
	return inDomain
}

func (g *Gate) classify(ctx context.Context, question string) (string, error) {
	msg, err := g.llm.Generate(ctx, []*schema.Message{
		schema.UserMessage(fmt.Sprintf(fewShotPrompt, question)),
	})
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", errEmptyReply
	}
	reply := strings.ToLower(strings.TrimSpace(msg.Content))
	if reply == "" {
		return "", errEmptyReply
	}
	return reply, nil
}
