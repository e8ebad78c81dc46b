package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/service"
)

// Handler handles the public chat API
type Handler struct {
	chatService *service.ChatService
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
}

// Chat handles one user message. The client IP and user agent are captured
// here so the store can record them on session creation.
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		status := http.StatusInternalServerError
		msg := "internal error"
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			status = http.StatusBadRequest
			msg = err.Error()
		case llm.AsGenerationError(err).Kind == llm.KindInvalidRequest:
			status = http.StatusBadGateway
			msg = "generation failed"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, resp)
}
