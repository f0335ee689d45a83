package service

import (
	"sort"
	"testing"
	"time"

	"lexguard-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistoryRepo struct {
	turns []model.ConversationTurn
}

func (r *fakeHistoryRepo) Create(turns []model.ConversationTurn) error {
	r.turns = append(r.turns, turns...)
	return nil
}

// FindRecent mimics storage: newest first, capped at limit.
func (r *fakeHistoryRepo) FindRecent(sessionID string, limit int) ([]model.ConversationTurn, error) {
	var matched []model.ConversationTurn
	for _, t := range r.turns {
		if t.SessionID == sessionID {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OrderingKey > matched[j].OrderingKey
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func TestSaveThenLoadIsChronological(t *testing.T) {
	repo := &fakeHistoryRepo{}
	svc := NewMemoryService(repo, 10)

	require.NoError(t, svc.Save("s1", "What is the notice period?", "Thirty days."))
	require.NoError(t, svc.Save("s1", "And the governing law?", "The state of Delaware."))

	turns, err := svc.Load("s1")
	require.NoError(t, err)
	require.Len(t, turns, 4)

	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "What is the notice period?", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Thirty days.", turns[1].Content)
	assert.Equal(t, model.RoleUser, turns[2].Role)
	assert.Equal(t, model.RoleAssistant, turns[3].Role)
	assert.Equal(t, "The state of Delaware.", turns[3].Content)
}

func TestUserTurnSortsBeforeAssistantTurn(t *testing.T) {
	repo := &fakeHistoryRepo{}
	svc := NewMemoryService(repo, 10)

	require.NoError(t, svc.Save("s1", "question", "answer"))
	require.Len(t, repo.turns, 2)

	// The two turns share one timestamp; the ordinal suffix alone must keep
	// the user turn first.
	assert.Less(t, repo.turns[0].OrderingKey, repo.turns[1].OrderingKey)
	assert.Equal(t, model.RoleUser, repo.turns[0].Role)
}

func TestSortTurnsChronological(t *testing.T) {
	turns := []model.ConversationTurn{
		{OrderingKey: "2026-08-30T10:00:02Z#1-user", Content: "third"},
		{OrderingKey: "2026-08-30T10:00:01Z#2-assistant", Content: "second"},
		{OrderingKey: "2026-08-30T10:00:01Z#1-user", Content: "first"},
	}

	sorted := SortTurnsChronological(turns)
	assert.Equal(t, "first", sorted[0].Content)
	assert.Equal(t, "second", sorted[1].Content)
	assert.Equal(t, "third", sorted[2].Content)
	// Input order untouched.
	assert.Equal(t, "third", turns[0].Content)
}

func TestOrderingKeysSortAcrossFractionWidths(t *testing.T) {
	// A timestamp whose fraction ends in zeros must still sort before a
	// later one with more significant digits; variable-width fractions would
	// put the half-second turn after the .512s one.
	earlier := time.Date(2026, 8, 30, 10, 0, 0, 500000000, time.UTC)
	later := time.Date(2026, 8, 30, 10, 0, 0, 512000000, time.UTC)

	earlierKey := orderingKey(earlier, 1, model.RoleUser)
	laterKey := orderingKey(later, 1, model.RoleUser)
	assert.Less(t, earlierKey, laterKey)
	assert.Len(t, earlierKey, len(laterKey))

	turns := []model.ConversationTurn{
		{OrderingKey: orderingKey(later, 1, model.RoleUser), Content: "second save"},
		{OrderingKey: orderingKey(later, 2, model.RoleAssistant), Content: "second answer"},
		{OrderingKey: orderingKey(earlier, 1, model.RoleUser), Content: "first save"},
		{OrderingKey: orderingKey(earlier, 2, model.RoleAssistant), Content: "first answer"},
	}
	sorted := SortTurnsChronological(turns)
	assert.Equal(t, "first save", sorted[0].Content)
	assert.Equal(t, "first answer", sorted[1].Content)
	assert.Equal(t, "second save", sorted[2].Content)
	assert.Equal(t, "second answer", sorted[3].Content)
}

func TestOrderingKeyWholeSecondIsFixedWidth(t *testing.T) {
	// Zero nanoseconds must not collapse the fraction away entirely.
	whole := orderingKey(time.Date(2026, 8, 30, 10, 0, 1, 0, time.UTC), 1, model.RoleUser)
	fractional := orderingKey(time.Date(2026, 8, 30, 10, 0, 0, 999999999, time.UTC), 1, model.RoleUser)
	assert.Len(t, whole, len(fractional))
	assert.Greater(t, whole, fractional)
}

func TestLoadRespectsWindow(t *testing.T) {
	repo := &fakeHistoryRepo{}
	svc := NewMemoryService(repo, 4)

	require.NoError(t, svc.Save("s1", "q1", "a1"))
	require.NoError(t, svc.Save("s1", "q2", "a2"))
	require.NoError(t, svc.Save("s1", "q3", "a3"))

	turns, err := svc.Load("s1")
	require.NoError(t, err)
	require.Len(t, turns, 4)

	// The newest window survives, still chronological.
	assert.Equal(t, "q2", turns[0].Content)
	assert.Equal(t, "a3", turns[3].Content)
}

func TestEmptySessionIsMemoryless(t *testing.T) {
	repo := &fakeHistoryRepo{}
	svc := NewMemoryService(repo, 10)

	require.NoError(t, svc.Save("", "question", "answer"))
	assert.Empty(t, repo.turns)

	turns, err := svc.Load("")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessionsAreIsolated(t *testing.T) {
	repo := &fakeHistoryRepo{}
	svc := NewMemoryService(repo, 10)

	require.NoError(t, svc.Save("s1", "q-one", "a-one"))
	require.NoError(t, svc.Save("s2", "q-two", "a-two"))

	turns, err := svc.Load("s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q-one", turns[0].Content)
}
