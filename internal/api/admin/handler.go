package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/service"
)

// Handler handles the admin chat-history API
type Handler struct {
	adminService *service.AdminService
}

// NewHandler creates a new admin handler
func NewHandler(adminService *service.AdminService) *Handler {
	return &Handler{adminService: adminService}
}

// RegisterRoutes registers admin routes. List, detail and delete are three
// explicit operations rather than one endpoint overloaded by query
// parameters.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	history := r.Group("/chat-history")
	{
		history.GET("", h.ListSessions)
		history.GET("/:id", h.GetSession)
		history.DELETE("/:id", h.DeleteSession)
	}
}

// ListSessions returns a page of session summaries.
func (h *Handler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.adminService.ListSessions(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSession returns one session with its full transcript.
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")

	session, err := h.adminService.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession removes a session and its messages.
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.adminService.DeleteSession(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}
