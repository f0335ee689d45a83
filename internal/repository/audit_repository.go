package repository

import (
	"lexguard-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository persists the append-only audit stream. Events are never
// updated or deleted.
type AuditRepository interface {
	Create(event *model.AuditEvent) error
	List(limit int, caseID string) ([]model.AuditEvent, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates an AuditRepository backed by MySQL.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create appends one event. A duplicate log_id is left untouched; the id is
// a content hash, so a collision means the identical event was already
// recorded.
func (r *auditRepository) Create(event *model.AuditEvent) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(event).Error
}

// List returns events newest first, optionally restricted to one case.
func (r *auditRepository) List(limit int, caseID string) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	q := r.db.Order("timestamp DESC").Limit(limit)
	if caseID != "" {
		q = q.Where("case_id = ?", caseID)
	}
	err := q.Find(&events).Error
	return events, err
}
