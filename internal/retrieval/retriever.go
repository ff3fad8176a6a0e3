package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"careerqa/internal/ai"
	"careerqa/internal/index"
)

const DefaultTopK = 4

const systemPrompt = `You are a highly experienced and insightful career advisor. You help people understand their strengths, analyse their resumes and plan their next career moves.
Use the relevant information retrieved from the user's document to give specific, practical advice: recommend suitable roles and career paths, point out skill gaps, and suggest concrete next actions.
Keep a warm, encouraging and professional tone. If the retrieved information does not cover the question, say so honestly instead of inventing details.`

var ErrEmptyAnswer = errors.New("language model returned an empty answer")

// Searcher is the read side of a session's index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// Retriever answers questions against one document: it fetches the top-k
// chunks and asks the language model with them as context.
type Retriever struct {
	searcher Searcher
	llm      ai.ChatModel
	topK     int
}

func New(searcher Searcher, llm ai.ChatModel, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{searcher: searcher, llm: llm, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, question string) ([]index.Hit, error) {
	hits, err := r.searcher.Search(ctx, question, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index failed: %w", err)
	}
	return hits, nil
}

// Generate makes exactly one model call with hits as context.
func (r *Retriever) Generate(ctx context.Context, question string, hits []index.Hit) (string, error) {
	msg, err := r.llm.Generate(ctx, BuildMessages(question, hits))
	if err != nil {
		return "", fmt.Errorf("generate answer failed: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyAnswer
	}
	answer := ai.ExtractAnswer(msg.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// BuildMessages assembles the role instructions, retrieved context and question.
func BuildMessages(question string, hits []index.Hit) []*schema.Message {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Chunk.Text)
	}
	user := "Relevant Information:\n" + strings.Join(parts, "\n\n") +
		"\n\nUser Question:\n" + question +
		"\n\nCareer Advisor Answer:"
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(user),
	}
}
