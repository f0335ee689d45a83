package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lexguard-go/internal/model"
	"lexguard-go/internal/repository"
	"lexguard-go/pkg/storage"

	"gorm.io/gorm"
)

// DocumentService serves document listings and presigned transfer URLs.
type DocumentService interface {
	ListDocuments() ([]model.DocumentDTO, error)
	GenerateUploadURL(ctx context.Context, filename, contentType string) (string, string, error)
	GenerateDownloadURL(ctx context.Context, docID string) (string, error)
}

type documentService struct {
	repo  repository.DocumentRepository
	store *storage.Client
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(repo repository.DocumentRepository, store *storage.Client) DocumentService {
	return &documentService{repo: repo, store: store}
}

// ListDocuments returns every known document in listing shape.
func (s *documentService) ListDocuments() ([]model.DocumentDTO, error) {
	docs, err := s.repo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	dtos := make([]model.DocumentDTO, 0, len(docs))
	for _, doc := range docs {
		riskScore := doc.RiskScore
		if riskScore == "" {
			riskScore = model.RiskLow
		}
		flags := []string(doc.RiskFlags)
		if flags == nil {
			flags = []string{}
		}
		dtos = append(dtos, model.DocumentDTO{
			ID:        doc.DocID,
			Name:      doc.DocID,
			Date:      doc.UploadedAt.UTC().Format(time.RFC3339),
			Status:    doc.Status,
			RiskScore: riskScore,
			RiskFlags: flags,
		})
	}
	return dtos, nil
}

// GenerateUploadURL issues a presigned PUT URL for a direct client upload.
// The returned key is the future document id.
func (s *documentService) GenerateUploadURL(ctx context.Context, filename, contentType string) (string, string, error) {
	if filename == "" {
		return "", "", fmt.Errorf("filename is required: %w", model.ErrValidation)
	}
	_ = contentType // the client sets it on the PUT itself

	url, err := s.store.PresignedUploadURL(ctx, filename, 5*time.Minute)
	if err != nil {
		return "", "", err
	}
	return url, filename, nil
}

// GenerateDownloadURL issues a presigned GET URL for a known document. The
// id must exist in the metadata store; the URL itself points at the blob.
func (s *documentService) GenerateDownloadURL(ctx context.Context, docID string) (string, error) {
	if docID == "" {
		return "", fmt.Errorf("document id is required: %w", model.ErrValidation)
	}
	if _, err := s.repo.FindByID(docID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("document '%s': %w", docID, model.ErrNotFound)
		}
		return "", fmt.Errorf("failed to look up document '%s': %w", docID, err)
	}
	return s.store.PresignedDownloadURL(ctx, docID, 5*time.Minute)
}
