package model

import "fmt"

// VectorRecord is one embedded fragment as stored in the vector index.
// VectorID is deterministic so re-ingesting a document overwrites its
// previous fragments instead of accumulating duplicates.
type VectorRecord struct {
	VectorID      string    `json:"vector_id"`
	DocID         string    `json:"doc_id"`
	CaseID        string    `json:"case_id"`
	FragmentIndex int       `json:"fragment_index"`
	TextContent   string    `json:"text_content"`
	Vector        []float32 `json:"vector"`
}

// FragmentVectorID derives the index id for a fragment of a document.
func FragmentVectorID(docID string, fragmentIndex int) string {
	return fmt.Sprintf("%s#%d", docID, fragmentIndex)
}

// SearchHit is one ranked retrieval result, kept in the shape the chat
// response cites as a source.
type SearchHit struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}
