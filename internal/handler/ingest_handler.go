package handler

import (
	"net/http"

	"lexguard-go/pkg/kafka"
	"lexguard-go/pkg/log"
	"lexguard-go/pkg/tasks"

	"github.com/gin-gonic/gin"
)

// IngestHandler accepts new-blob notifications and enqueues them for the
// ingestion pipeline.
type IngestHandler struct {
	defaultBucket string
}

// NewIngestHandler creates an IngestHandler. defaultBucket is used when the
// notification omits the bucket.
func NewIngestHandler(defaultBucket string) *IngestHandler {
	return &IngestHandler{defaultBucket: defaultBucket}
}

type ingestRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	CaseID string `json:"caseId"`
}

// Trigger handles POST /ingest. The work itself happens asynchronously on
// the consumer side, so the response is a 202 with the accepted key.
func (h *IngestHandler) Trigger(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	if req.Bucket == "" {
		req.Bucket = h.defaultBucket
	}

	task := tasks.IngestTask{Bucket: req.Bucket, Key: req.Key, CaseID: req.CaseID}
	if err := kafka.ProduceIngestTask(task); err != nil {
		log.Errorf("[IngestHandler] failed to enqueue ingest task: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue ingestion"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "key": req.Key})
}
