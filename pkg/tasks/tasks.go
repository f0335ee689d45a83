// Package tasks defines the messages carried on the ingestion queue.
package tasks

// IngestTask is the new-blob notification that triggers ingestion of one
// document. Key doubles as the document id.
type IngestTask struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	CaseID string `json:"case_id"`
}
