// Package handler contains the HTTP controllers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lexguard-go/internal/metrics"
	"lexguard-go/internal/middleware"
	"lexguard-go/internal/model"
	"lexguard-go/internal/service"
	"lexguard-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler serves the question-answering endpoints.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /chat: one grounded answer per request.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start := time.Now()
	resp, err := h.chatService.Answer(c.Request.Context(), req, middleware.ActorFrom(c))
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			metrics.Queries.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		case errors.Is(err, model.ErrRetrievalUnavailable):
			metrics.Queries.WithLabelValues("failed").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "retrieval is temporarily unavailable"})
		default:
			metrics.Queries.WithLabelValues("failed").Inc()
			log.Errorf("[ChatHandler] chat failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	if resp.Answer == service.GenerationFallback {
		metrics.Queries.WithLabelValues("fallback").Inc()
	} else {
		metrics.Queries.WithLabelValues("answered").Inc()
	}
	c.JSON(http.StatusOK, resp)
}

// Stream handles GET /chat/stream: a WebSocket session where each text
// message is a chat request and the answer is streamed back chunk by
// chunk, terminated by a completion frame.
func (h *ChatHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()

	actor := middleware.ActorFrom(c)
	log.Infof("WebSocket connection established, actor: %s", actor)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("failed to read WebSocket message: %v", err)
			break
		}

		var req model.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			h.writeStreamError(conn, "invalid request payload")
			continue
		}

		err = h.chatService.StreamAnswer(c.Request.Context(), req, actor, &chunkWriter{conn: conn})
		if err != nil {
			log.Errorf("[ChatHandler] streaming answer failed: %v", err)
			h.writeStreamError(conn, "the answering service is temporarily unavailable")
		}

		// Completion frame closes the answer even after an error, so the
		// client can re-enable its input.
		completion := map[string]interface{}{
			"type":      "completion",
			"status":    "finished",
			"timestamp": time.Now().UnixMilli(),
		}
		b, _ := json.Marshal(completion)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			break
		}
	}
}

func (h *ChatHandler) writeStreamError(conn *websocket.Conn, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// chunkWriter frames each generation delta as a JSON chunk message.
type chunkWriter struct {
	conn *websocket.Conn
}

// WriteMessage satisfies llm.MessageWriter.
func (w *chunkWriter) WriteMessage(messageType int, data []byte) error {
	b, err := json.Marshal(map[string]string{"type": "chunk", "content": string(data)})
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(messageType, b)
}
