package repository

import (
	"fmt"

	"gorm.io/gorm"

	"careerqa/internal/model"
)

type ExchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) Create(exchange *model.Exchange) error {
	if err := r.db.Create(exchange).Error; err != nil {
		return fmt.Errorf("create exchange failed: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) ListBySessionID(sessionID string, limit int) ([]model.Exchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var exchanges []model.Exchange
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Limit(limit).Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("list exchanges failed: %w", err)
	}
	return exchanges, nil
}
