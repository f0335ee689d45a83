package repository

import (
	"lexguard-go/internal/model"

	"gorm.io/gorm"
)

// HistoryRepository persists conversation turns. Turns are append-only.
type HistoryRepository interface {
	Create(turns []model.ConversationTurn) error
	// FindRecent returns up to limit turns for a session, newest first.
	// Callers that feed a prompt must re-sort ascending themselves.
	FindRecent(sessionID string, limit int) ([]model.ConversationTurn, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a HistoryRepository backed by MySQL.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Create appends the given turns.
func (r *historyRepository) Create(turns []model.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.Create(&turns).Error
}

// FindRecent fetches the latest turns for a session in descending key order.
func (r *historyRepository) FindRecent(sessionID string, limit int) ([]model.ConversationTurn, error) {
	var turns []model.ConversationTurn
	err := r.db.Where("session_id = ?", sessionID).
		Order("ordering_key DESC").
		Limit(limit).
		Find(&turns).Error
	return turns, err
}
