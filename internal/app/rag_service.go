package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"careerqa/internal/ai"
	"careerqa/internal/index"
	"careerqa/internal/ingest"
	"careerqa/internal/model"
	"careerqa/internal/retrieval"
	"careerqa/internal/session"
)

type Ingestor interface {
	Process(ctx context.Context, name string, r io.Reader) ([]ingest.Chunk, error)
}

type IndexBuilder interface {
	Build(ctx context.Context, chunks []ingest.Chunk) (*index.Index, int, error)
}

type Classifier interface {
	IsInDomain(ctx context.Context, question string) bool
}

// Journal receives every answered question. Implementations must not block
// for long and must swallow their own failures.
type Journal interface {
	Record(ctx context.Context, exchange model.Exchange)
}

type Recorder interface {
	Upload(status string)
	Ask(outcome string)
	SessionsActive(n int)
	SessionsExpired(n int)
}

type noopRecorder struct{}

func (noopRecorder) Upload(string)       {}
func (noopRecorder) Ask(string)          {}
func (noopRecorder) SessionsActive(int)  {}
func (noopRecorder) SessionsExpired(int) {}

type RAGDeps struct {
	Pipeline Ingestor
	Builder  IndexBuilder
	Store    *session.Store
	Gate     Classifier
	LLM      ai.ChatModel
	Journal  Journal
	Metrics  Recorder
	Logger   *zap.Logger
}

type RAGOptions struct {
	Debug          bool
	SessionTimeout time.Duration
	TopK           int
}

// RAGService runs uploads and questions against per-document sessions.
type RAGService struct {
	pipeline Ingestor
	builder  IndexBuilder
	store    *session.Store
	gate     Classifier
	llm      ai.ChatModel
	journal  Journal
	metrics  Recorder
	logger   *zap.Logger

	debug   bool
	timeout time.Duration
	topK    int
}

func NewRAGService(deps RAGDeps, opts RAGOptions) (*RAGService, error) {
	if deps.Pipeline == nil || deps.Builder == nil || deps.Store == nil || deps.Gate == nil || deps.LLM == nil {
		return nil, errors.New("rag service requires pipeline, builder, store, gate and llm")
	}
	if deps.Metrics == nil {
		deps.Metrics = noopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = session.DefaultTimeout
	}
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	return &RAGService{
		pipeline: deps.Pipeline,
		builder:  deps.Builder,
		store:    deps.Store,
		gate:     deps.Gate,
		llm:      deps.LLM,
		journal:  deps.Journal,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		debug:    opts.Debug,
		timeout:  opts.SessionTimeout,
		topK:     opts.TopK,
	}, nil
}

type Source struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

type AskResult struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources,omitempty"`
	InDomain bool     `json:"-"`
}

type UploadResult struct {
	SessionID       string `json:"session_id"`
	FilesUploaded   int    `json:"files_uploaded"`
	DocumentsLoaded int    `json:"documents_loaded"`
	Message         string `json:"message"`
}

// Ask answers a question against the document behind sessionID. Returned
// errors are ErrInvalidInput or an *AskError.
func (s *RAGService) Ask(ctx context.Context, sessionID, question string) (*AskResult, error) {
	ctx = context.WithoutCancel(ctx)

	s.sweep()

	question = strings.TrimSpace(question)
	if question == "" {
		s.metrics.Ask("invalid")
		return nil, ErrInvalidInput
	}

	sess, err := s.store.Get(sessionID)
	if err != nil {
		s.metrics.Ask("session_invalid")
		return nil, &AskError{
			Kind:    KindSessionInvalid,
			Message: SessionInvalidMessage,
			Err:     fmt.Errorf("%w: %w", ErrSessionInvalid, err),
		}
	}

	if !s.gate.IsInDomain(ctx, question) {
		result := &AskResult{Question: question, Answer: OutOfDomainAnswer}
		s.record(ctx, sess, result)
		s.metrics.Ask("out_of_domain")
		return result, nil
	}

	if err := s.store.Touch(sess.ID); err != nil {
		return nil, s.askFailed(sessionID, &StageError{Stage: StageTouch, Kind: KindSessionInvalid, Err: err})
	}

	hits, err := sess.Retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, s.askFailed(sessionID, &StageError{Stage: StageRetrieve, Kind: KindRetrieval, Err: err})
	}
	answer, err := sess.Retriever.Generate(ctx, question, hits)
	if err != nil {
		return nil, s.askFailed(sessionID, &StageError{Stage: StageGenerate, Kind: KindGeneration, Err: err})
	}

	result := &AskResult{Question: question, Answer: answer, InDomain: true}
	if s.debug {
		result.Sources = make([]Source, 0, len(hits))
		for _, hit := range hits {
			result.Sources = append(result.Sources, Source{
				Index: hit.Chunk.Index,
				Text:  hit.Chunk.Text,
				Score: hit.Score,
				Rank:  hit.Rank,
			})
		}
	}
	s.record(ctx, sess, result)
	s.metrics.Ask("answered")
	return result, nil
}

// Upload ingests one document, indexes it and opens a session for it.
// Returned errors are *StageError; Describe turns them into caller messages.
func (s *RAGService) Upload(ctx context.Context, fileName string, r io.Reader) (*UploadResult, error) {
	ctx = context.WithoutCancel(ctx)
	s.sweep()

	digest, err := blake2b.New256(nil)
	if err != nil {
		return nil, s.uploadFailed(fileName, &StageError{Stage: StageIngest, Kind: KindInternal, Err: err})
	}

	chunks, err := s.pipeline.Process(ctx, fileName, io.TeeReader(r, digest))
	if err != nil {
		return nil, s.uploadFailed(fileName, &StageError{Stage: StageIngest, Kind: ingestKind(err), Err: err})
	}

	ix, count, err := s.builder.Build(ctx, chunks)
	if err != nil {
		kind := KindInternal
		if errors.Is(err, index.ErrZeroDocumentsIndexed) {
			kind = KindZeroDocumentsIndexed
		}
		return nil, s.uploadFailed(fileName, &StageError{Stage: StageIndex, Kind: kind, Err: err})
	}

	retriever := retrieval.New(ix, s.llm, s.topK)
	id, err := s.store.Create(ix, retriever, session.Meta{
		FileName:       fileName,
		DocumentDigest: hex.EncodeToString(digest.Sum(nil)),
		Documents:      count,
	})
	if err != nil {
		_ = ix.Close()
		return nil, s.uploadFailed(fileName, &StageError{Stage: StageSession, Kind: KindInternal, Err: err})
	}

	s.metrics.Upload("ready")
	s.metrics.SessionsActive(s.store.Len())
	s.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("file", fileName),
		zap.Int("chunks", len(chunks)),
		zap.Int("documents_loaded", count),
	)
	return &UploadResult{
		SessionID:       id,
		FilesUploaded:   1,
		DocumentsLoaded: count,
		Message:         UploadSuccessMessage,
	}, nil
}

// Describe converts an Upload error into the message shown to the caller.
func (s *RAGService) Describe(err error) string {
	switch KindOf(err) {
	case KindUnsupportedFormat:
		return "Unsupported file type. Supported types: " + strings.Join(ingest.SupportedExtensions(), ", ")
	case KindNoReadableText:
		return "No readable text found in the uploaded file."
	case KindEmptyChunks:
		return "The uploaded file produced no text chunks."
	case KindZeroDocumentsIndexed:
		return "No documents were processed successfully."
	case KindInvalidInput:
		return "Invalid request."
	}
	if s.debug {
		return err.Error()
	}
	return "Failed to process the uploaded file. Please try again later."
}

func (s *RAGService) Debug() bool {
	return s.debug
}

// Close drops every live session and releases its index.
func (s *RAGService) Close() {
	if n := s.store.Close(); n > 0 {
		s.logger.Info("sessions closed", zap.Int("count", n))
	}
	s.metrics.SessionsActive(0)
}

// ActiveSessions reports the number of live sessions.
func (s *RAGService) ActiveSessions() int {
	return s.store.Len()
}

// sweep expires idle sessions. It runs at the start of every upload and ask,
// so a dead session lingers until the next request arrives.
func (s *RAGService) sweep() {
	expired := s.store.Sweep(s.store.Now(), s.timeout)
	if len(expired) > 0 {
		s.logger.Info("sessions expired", zap.Strings("session_ids", expired))
		s.metrics.SessionsExpired(len(expired))
	}
	s.metrics.SessionsActive(s.store.Len())
}

func (s *RAGService) askFailed(sessionID string, stageErr *StageError) error {
	s.logger.Error("ask failed",
		zap.String("session_id", sessionID),
		zap.String("stage", string(stageErr.Stage)),
		zap.String("kind", string(stageErr.Kind)),
		zap.Error(stageErr.Err),
	)
	s.metrics.Ask("error")

	message := GenericErrorMessage
	if s.debug {
		message = stageErr.Err.Error()
	}
	return &AskError{Kind: stageErr.Kind, Message: message, Err: stageErr}
}

func (s *RAGService) uploadFailed(fileName string, stageErr *StageError) error {
	s.logger.Warn("upload failed",
		zap.String("file", fileName),
		zap.String("stage", string(stageErr.Stage)),
		zap.String("kind", string(stageErr.Kind)),
		zap.Error(stageErr.Err),
	)
	s.metrics.Upload(string(stageErr.Kind))
	return stageErr
}

func (s *RAGService) record(ctx context.Context, sess *session.Session, result *AskResult) {
	if s.journal == nil {
		return
	}
	s.journal.Record(ctx, model.Exchange{
		SessionID:      sess.ID,
		Question:       result.Question,
		Answer:         result.Answer,
		InDomain:       result.InDomain,
		DocumentDigest: sess.Meta.DocumentDigest,
		CreatedAt:      time.Now(),
	})
}

func ingestKind(err error) Kind {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ingest.ErrNoReadableText):
		return KindNoReadableText
	case errors.Is(err, ingest.ErrEmptyChunks):
		return KindEmptyChunks
	default:
		return KindInternal
	}
}
