package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/toto04/homescraper/internal/service"
)

// ActionHandler handles user action HTTP requests
type ActionHandler struct {
	listings *service.ListingService
}

// NewActionHandler creates a new action handler
func NewActionHandler(listings *service.ListingService) *ActionHandler {
	return &ActionHandler{listings: listings}
}

type actionRequest struct {
	Action string  `json:"action" binding:"required"`
	Notes  *string `json:"notes"`
}

// ApplyAction handles POST /api/listings/:id/actions
func (h *ActionHandler) ApplyAction(c *gin.Context) {
	id := c.Param("id")

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	actions, err := h.listings.ApplyAction(c.Request.Context(), id, req.Action, req.Notes)
	if err != nil {
		if strings.Contains(err.Error(), "unknown action") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply action: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actions})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes handles PUT /api/listings/:id/notes
func (h *ActionHandler) UpdateNotes(c *gin.Context) {
	id := c.Param("id")

	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	actions, err := h.listings.UpdateNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notes: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actions})
}
