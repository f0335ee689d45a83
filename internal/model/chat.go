package model

// ChatRequest is the body of POST /chat. DocID and SessionID are optional;
// an empty SessionID means the exchange runs without memory.
type ChatRequest struct {
	Query     string `json:"query"`
	DocID     string `json:"docId"`
	SessionID string `json:"sessionId"`
}

// ChatResponse is the answer plus the retrieval hits it was grounded on.
type ChatResponse struct {
	Answer    string      `json:"answer"`
	Sources   []SearchHit `json:"sources"`
	SessionID string      `json:"sessionId"`
}
