package service

import (
	"fmt"
	"sort"
	"time"

	"lexguard-go/internal/model"
	"lexguard-go/internal/repository"
	"lexguard-go/pkg/log"
)

// MemoryService maintains per-session conversation history. An empty
// session id is valid and means the exchange runs without memory.
type MemoryService interface {
	// Load returns the most recent turns in chronological order.
	Load(sessionID string) ([]model.ConversationTurn, error)
	// Save appends the user turn followed by the assistant turn.
	Save(sessionID, userText, assistantText string) error
}

type memoryService struct {
	repo   repository.HistoryRepository
	window int
}

// NewMemoryService creates a MemoryService keeping the last window turns.
func NewMemoryService(repo repository.HistoryRepository, window int) MemoryService {
	if window <= 0 {
		window = 10
	}
	return &memoryService{repo: repo, window: window}
}

// Load fetches the recent window for a session. Storage returns newest
// first; the prompt reads chronologically, so the turns are re-sorted
// ascending here, never at the call site.
func (s *memoryService) Load(sessionID string) ([]model.ConversationTurn, error) {
	if sessionID == "" {
		return []model.ConversationTurn{}, nil
	}
	turns, err := s.repo.FindRecent(sessionID, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for session: %w", err)
	}
	return SortTurnsChronological(turns), nil
}

// SortTurnsChronological orders turns ascending by ordering key. Storage
// retrieval order is an implementation detail and must never leak into
// prompt order.
func SortTurnsChronological(turns []model.ConversationTurn) []model.ConversationTurn {
	sorted := make([]model.ConversationTurn, len(turns))
	copy(sorted, turns)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrderingKey < sorted[j].OrderingKey
	})
	return sorted
}

// orderingKeyLayout pins the fractional second to nine digits. RFC3339Nano
// drops trailing zeros, and variable-width fractions break lexicographic
// ordering ('Z' sorts after the digits a longer fraction would have there).
const orderingKeyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// orderingKey builds the sort key for one turn. The ordinal keeps the user
// turn before the assistant turn within a shared timestamp.
func orderingKey(now time.Time, ordinal int, role string) string {
	return fmt.Sprintf("%s#%d-%s", now.UTC().Format(orderingKeyLayout), ordinal, role)
}

// Save appends exactly two turns sharing one timestamp.
func (s *memoryService) Save(sessionID, userText, assistantText string) error {
	if sessionID == "" {
		return nil
	}
	now := time.Now().UTC()
	turns := []model.ConversationTurn{
		{
			SessionID:   sessionID,
			OrderingKey: orderingKey(now, 1, model.RoleUser),
			Role:        model.RoleUser,
			Content:     userText,
			CreatedAt:   now,
		},
		{
			SessionID:   sessionID,
			OrderingKey: orderingKey(now, 2, model.RoleAssistant),
			Role:        model.RoleAssistant,
			Content:     assistantText,
			CreatedAt:   now,
		},
	}
	if err := s.repo.Create(turns); err != nil {
		log.Errorf("[MemoryService] failed to save turns for session: %v", err)
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
