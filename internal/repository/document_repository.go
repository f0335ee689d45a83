// Package repository implements the data access layer.
package repository

import (
	"lexguard-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository persists document metadata records.
type DocumentRepository interface {
	Upsert(doc *model.Document) error
	FindByID(docID string) (*model.Document, error)
	FindAll() ([]model.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a DocumentRepository backed by MySQL.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Upsert writes the record, replacing an existing row with the same doc_id
// so re-ingestion is idempotent.
func (r *documentRepository) Upsert(doc *model.Document) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_id"}},
		UpdateAll: true,
	}).Create(doc).Error
}

// FindByID returns the record for one document.
func (r *documentRepository) FindByID(docID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("doc_id = ?", docID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindAll lists every document, newest first.
func (r *documentRepository) FindAll() ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Order("uploaded_at DESC").Find(&docs).Error
	return docs, err
}
