package handler

import (
	"net/http"
	"strconv"

	"lexguard-go/internal/service"
	"lexguard-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuditHandler serves the audit trail endpoint.
type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List handles GET /audit?limit=&caseId=. Events come back newest first,
// each carrying its content hash so clients can verify integrity.
func (h *AuditHandler) List(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}
	caseID := c.Query("caseId")

	events, err := h.auditService.List(limit, caseID)
	if err != nil {
		log.Errorf("[AuditHandler] failed to list audit events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
