package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"lexguard-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueryEmbedder struct {
	fail bool
}

func (e *fakeQueryEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, fmt.Errorf("embedding endpoint down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fakeQueryEmbedder) Dimensions() int { return 3 }

type fakeSearcher struct {
	hits      []model.SearchHit
	fail      bool
	gotTopK   int
	gotDocID  string
	gotVector []float32
}

func (s *fakeSearcher) KnnSearch(ctx context.Context, vector []float32, topK int, docID string) ([]model.SearchHit, error) {
	s.gotTopK = topK
	s.gotDocID = docID
	s.gotVector = vector
	if s.fail {
		return nil, fmt.Errorf("index unreachable")
	}
	return s.hits, nil
}

func hit(text string) model.SearchHit {
	return model.SearchHit{Metadata: map[string]string{"text": text}}
}

func TestRetrievePassesPolicyAndFilter(t *testing.T) {
	searcher := &fakeSearcher{hits: []model.SearchHit{hit("clause one"), hit("clause two")}}
	svc := NewRetrieverService(&fakeQueryEmbedder{}, searcher, NewKeywordRankPolicy(10), 35000)

	result, err := svc.Retrieve(context.Background(), "termination notice period", "contract.pdf")
	require.NoError(t, err)

	assert.Equal(t, 8, searcher.gotTopK)
	assert.Equal(t, "contract.pdf", searcher.gotDocID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, searcher.gotVector)
	assert.Len(t, result.Hits, 2)
	assert.Contains(t, result.Context, "clause one")
	assert.Contains(t, result.Context, "clause two")
}

func TestRetrieveMapsSearchFailure(t *testing.T) {
	svc := NewRetrieverService(&fakeQueryEmbedder{}, &fakeSearcher{fail: true}, NewKeywordRankPolicy(10), 35000)

	_, err := svc.Retrieve(context.Background(), "any question", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRetrievalUnavailable)
}

func TestRetrieveSurfacesEmbeddingFailure(t *testing.T) {
	svc := NewRetrieverService(&fakeQueryEmbedder{fail: true}, &fakeSearcher{}, NewKeywordRankPolicy(10), 35000)

	_, err := svc.Retrieve(context.Background(), "any question", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrRetrievalUnavailable)
}

func TestAssembleContextJoinsInRankOrder(t *testing.T) {
	hits := []model.SearchHit{hit("first fragment"), hit("second fragment")}
	context := AssembleContext(hits, 35000)

	assert.Equal(t, "first fragment\n\nsecond fragment\n\n", context)
}

func TestAssembleContextTruncatesAtBudget(t *testing.T) {
	hits := []model.SearchHit{hit(strings.Repeat("a", 500))}
	context := AssembleContext(hits, 100)

	assert.True(t, strings.HasSuffix(context, TruncationMarker))
	assert.Len(t, context, 100+len(TruncationMarker))
}

func TestAssembleContextTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte text must never be cut mid-rune.
	hits := []model.SearchHit{hit(strings.Repeat("条款", 100))}
	context := AssembleContext(hits, 10)

	assert.True(t, utf8.ValidString(context))
	assert.Equal(t, strings.Repeat("条款", 5)+TruncationMarker, context)
	assert.Len(t, []rune(context), 10+len(TruncationMarker))
}

func TestAssembleContextUnderBudgetUntouched(t *testing.T) {
	hits := []model.SearchHit{hit("short")}
	context := AssembleContext(hits, 100)

	assert.NotContains(t, context, TruncationMarker)
}

func TestAssembleContextEmptyHits(t *testing.T) {
	assert.Equal(t, "", AssembleContext(nil, 100))
}

func TestKeywordRankPolicy(t *testing.T) {
	policy := NewKeywordRankPolicy(10)

	assert.Equal(t, 8, policy.TopK("What are the Termination clauses?"))
	assert.Equal(t, 15, policy.TopK("Give me a summary of the agreement"))
	assert.Equal(t, 15, policy.TopK("Summarize the indemnification terms"))
	assert.Equal(t, 15, policy.TopK("An overview please"))
	assert.Equal(t, 10, policy.TopK("What is the notice period?"))
}
