package model

import "time"

// Exchange is one journaled question and the answer that was returned.
type Exchange struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      string    `gorm:"size:36;not null;index" json:"session_id"`
	Question       string    `gorm:"type:text;not null" json:"question"`
	Answer         string    `gorm:"type:text;not null" json:"answer"`
	InDomain       bool      `gorm:"not null" json:"in_domain"`
	DocumentDigest string    `gorm:"size:64;index" json:"document_digest"`
	CreatedAt      time.Time `json:"created_at"`
}
