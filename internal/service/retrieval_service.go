package service

import (
	"context"
	"fmt"
	"strings"

	"lexguard-go/internal/model"
	"lexguard-go/pkg/embedding"
	"lexguard-go/pkg/log"
)

// VectorSearcher is the read side of the vector index.
type VectorSearcher interface {
	KnnSearch(ctx context.Context, vector []float32, topK int, docID string) ([]model.SearchHit, error)
}

// TruncationMarker is appended when assembled context exceeds the budget.
const TruncationMarker = "...(truncated)"

// RetrievalResult carries the assembled context plus the ranked hits the
// answer cites as sources.
type RetrievalResult struct {
	Context string
	Hits    []model.SearchHit
}

// RetrieverService embeds a query, searches the vector index and assembles
// the grounding context under a hard character budget.
type RetrieverService interface {
	Retrieve(ctx context.Context, query, docID string) (*RetrievalResult, error)
}

type retrieverService struct {
	embeddingClient embedding.Client
	searcher        VectorSearcher
	policy          RankPolicy
	contextBudget   int
}

// NewRetrieverService creates a RetrieverService.
func NewRetrieverService(embeddingClient embedding.Client, searcher VectorSearcher, policy RankPolicy, contextBudget int) RetrieverService {
	if contextBudget <= 0 {
		contextBudget = 35000
	}
	return &retrieverService{
		embeddingClient: embeddingClient,
		searcher:        searcher,
		policy:          policy,
		contextBudget:   contextBudget,
	}
}

// Retrieve embeds the query and returns the ranked hits with their texts
// joined into one context string. An unreachable index maps to
// ErrRetrievalUnavailable so the caller never answers ungrounded.
func (s *retrieverService) Retrieve(ctx context.Context, query, docID string) (*RetrievalResult, error) {
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	topK := s.policy.TopK(query)
	hits, err := s.searcher.KnnSearch(ctx, queryVector, topK, docID)
	if err != nil {
		log.Errorf("[Retriever] vector search failed: %v", err)
		return nil, fmt.Errorf("vector search: %w", model.ErrRetrievalUnavailable)
	}

	return &RetrievalResult{
		Context: AssembleContext(hits, s.contextBudget),
		Hits:    hits,
	}, nil
}

// AssembleContext joins hit texts in ranked order, separated by blank
// lines, and truncates to the budget with a marker when the total exceeds
// it. The budget counts runes, matching the chunker, so the cut can never
// land inside a multi-byte character and feed invalid UTF-8 to the prompt.
func AssembleContext(hits []model.SearchHit, budget int) string {
	var b strings.Builder
	for _, hit := range hits {
		b.WriteString(hit.Metadata["text"])
		b.WriteString("\n\n")
	}
	context := b.String()
	if runes := []rune(context); len(runes) > budget {
		context = string(runes[:budget]) + TruncationMarker
	}
	return context
}

// RankPolicy decides how many neighbours to fetch for a query. It is a
// pure function of the query text so the heuristic stays independently
// testable.
type RankPolicy interface {
	TopK(query string) int
}

type keywordRankPolicy struct {
	baseK int
}

// NewKeywordRankPolicy returns the default policy: a baseline k, narrowed
// for clause-specific questions where extra neighbours add noise, widened
// for broad survey questions.
func NewKeywordRankPolicy(baseK int) RankPolicy {
	if baseK <= 0 {
		baseK = 10
	}
	return &keywordRankPolicy{baseK: baseK}
}

// TopK applies the keyword heuristics.
func (p *keywordRankPolicy) TopK(query string) int {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "termination"):
		// Clause lookups rank a handful of fragments highly; more is noise.
		return p.baseK - 2
	case strings.Contains(lower, "summary"), strings.Contains(lower, "summarize"), strings.Contains(lower, "overview"):
		return p.baseK + 5
	default:
		return p.baseK
	}
}
