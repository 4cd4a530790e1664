package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/toto04/homescraper/internal/service"
)

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	listings *service.ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// GetListings handles GET /api/listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	includeHidden := c.Query("includeHidden") == "true"

	listings, err := h.listings.GetListings(c.Request.Context(), includeHidden)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
}

// GetSavedListings handles GET /api/listings/saved
func (h *ListingHandler) GetSavedListings(c *gin.Context) {
	listings, err := h.listings.GetSavedListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get saved listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
}

// GetHiddenListings handles GET /api/listings/hidden
func (h *ListingHandler) GetHiddenListings(c *gin.Context) {
	listings, err := h.listings.GetHiddenListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get hidden listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
}

// GetListing handles GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id := c.Param("id")

	listing, err := h.listings.GetListingByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}
	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listing})
}

// GetSimilarListings handles GET /api/listings/:id/similar
func (h *ListingHandler) GetSimilarListings(c *gin.Context) {
	id := c.Param("id")

	limit := 5
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		if parsed > 20 {
			parsed = 20
		}
		limit = parsed
	}

	listings, err := h.listings.GetSimilarListings(c.Request.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrEmbeddingsDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get similar listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
}
