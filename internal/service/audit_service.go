// Package service contains the business logic layer.
package service

import (
	"crypto/sha256"
	"fmt"
	"time"

	"lexguard-go/internal/model"
	"lexguard-go/internal/repository"
	"lexguard-go/pkg/log"
)

// AuditService appends and lists tamper-evident audit events.
type AuditService interface {
	// Record appends exactly one event for a security-relevant action.
	Record(actorID, action, resource, details string) (*model.AuditEvent, error)
	List(limit int, caseID string) ([]model.AuditEvent, error)
}

type auditService struct {
	repo          repository.AuditRepository
	defaultCaseID string
	pageSize      int
}

// NewAuditService creates an AuditService.
func NewAuditService(repo repository.AuditRepository, defaultCaseID string, pageSize int) AuditService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &auditService{repo: repo, defaultCaseID: defaultCaseID, pageSize: pageSize}
}

// HashEvent computes the digest binding an event to its fields. The exact
// timestamp string is part of the digest, so events store and verify against
// the formatted string, never a re-parsed time.
func HashEvent(timestamp, actorID, action, resource, details string) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%s", timestamp, actorID, action, resource, details)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(payload)))
}

// VerifyEvent recomputes the digest from the stored fields and compares it
// to the stored hash. True means the event is unaltered.
func VerifyEvent(event model.AuditEvent) bool {
	return HashEvent(event.Timestamp, event.ActorID, event.Action, event.Resource, event.Details) == event.Hash
}

// Record computes the event hash, which doubles as its id, and appends it.
func (s *auditService) Record(actorID, action, resource, details string) (*model.AuditEvent, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	hash := HashEvent(timestamp, actorID, action, resource, details)

	event := &model.AuditEvent{
		LogID:     hash,
		CaseID:    s.defaultCaseID,
		Timestamp: timestamp,
		ActorID:   actorID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		Hash:      hash,
	}
	if err := s.repo.Create(event); err != nil {
		log.Errorf("[AuditService] failed to append event: action=%s resource=%s error=%v", action, resource, err)
		return nil, fmt.Errorf("failed to append audit event: %w", err)
	}
	return event, nil
}

// List returns events newest first, capped at the configured page size.
func (s *auditService) List(limit int, caseID string) ([]model.AuditEvent, error) {
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	return s.repo.List(limit, caseID)
}
