package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"careerqa/internal/model"
)

type ExchangePublisher interface {
	Publish(ctx context.Context, exchange model.Exchange) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Exchange, bool, error)
	SetHistory(ctx context.Context, sessionID string, exchanges []model.Exchange) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type ExchangeLister interface {
	ListBySessionID(sessionID string, limit int) ([]model.Exchange, error)
}

type FailureRecorder interface {
	JournalFailure()
}

// HistoryService journals answered questions through RabbitMQ and serves
// them back from MySQL with a Redis read-through cache.
type HistoryService struct {
	publisher ExchangePublisher
	cache     HistoryCache
	lister    ExchangeLister
	failures  FailureRecorder
	limit     int
	logger    *zap.Logger
}

func NewHistoryService(
	publisher ExchangePublisher,
	cache HistoryCache,
	lister ExchangeLister,
	failures FailureRecorder,
	limit int,
	logger *zap.Logger,
) *HistoryService {
	if limit <= 0 {
		limit = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		publisher: publisher,
		cache:     cache,
		lister:    lister,
		failures:  failures,
		limit:     limit,
		logger:    logger,
	}
}

// Record publishes the exchange for persistence. Failures are logged only.
func (s *HistoryService) Record(ctx context.Context, exchange model.Exchange) {
	if s.cache != nil {
		if err := s.cache.MarkDirty(ctx, exchange.SessionID); err != nil {
			s.logger.Warn("mark history dirty failed", zap.String("session_id", exchange.SessionID), zap.Error(err))
		}
		_ = s.cache.DeleteHistory(ctx, exchange.SessionID)
	}
	if err := s.publisher.Publish(ctx, exchange); err != nil {
		s.logger.Error("journal exchange failed", zap.String("session_id", exchange.SessionID), zap.Error(err))
		if s.failures != nil {
			s.failures.JournalFailure()
		}
	}
}

func (s *HistoryService) GetHistory(ctx context.Context, sessionID string) ([]model.Exchange, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	exchanges, err := s.lister.ListBySessionID(sessionID, s.limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.cache.SetHistory(ctx, sessionID, exchanges)
		}
	}
	return exchanges, nil
}
