package handler

import (
	"errors"
	"net/http"

	"lexguard-go/internal/model"
	"lexguard-go/internal/service"
	"lexguard-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler serves the document listing and upload-url endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// List handles GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documentService.ListDocuments()
	if err != nil {
		log.Errorf("[DocumentHandler] failed to list documents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// UploadURL handles GET /upload-url?filename=...&contentType=...
// It returns a presigned PUT URL plus the key the caller must use.
func (h *DocumentHandler) UploadURL(c *gin.Context) {
	filename := c.Query("filename")
	contentType := c.DefaultQuery("contentType", "application/octet-stream")

	url, key, err := h.documentService.GenerateUploadURL(c.Request.Context(), filename, contentType)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
			return
		}
		log.Errorf("[DocumentHandler] failed to generate upload url: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate upload url"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": url, "key": key})
}

// DownloadURL handles GET /download-url?key=...
// It returns a presigned GET URL for a previously ingested document.
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	key := c.Query("key")

	url, err := h.documentService.GenerateDownloadURL(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		case errors.Is(err, model.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		default:
			log.Errorf("[DocumentHandler] failed to generate download url: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate download url"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url, "key": key})
}
