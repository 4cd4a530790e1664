package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toto04/homescraper/internal/model"
	"github.com/toto04/homescraper/internal/service"
)

// AdminHandler handles import, inspection and maintenance requests
type AdminHandler struct {
	pipeline *service.Pipeline
	store    service.PipelineStore
	listings *service.ListingService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(pipeline *service.Pipeline, store service.PipelineStore, listings *service.ListingService) *AdminHandler {
	return &AdminHandler{pipeline: pipeline, store: store, listings: listings}
}

// Health handles GET /health
func (h *AdminHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats handles GET /api/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.listings.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetRawListings handles GET /api/raw-listings
func (h *AdminHandler) GetRawListings(c *gin.Context) {
	listings, err := h.store.GetRawListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get raw listings: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
}

// GetProcessedListings handles GET /api/processed-listings
func (h *AdminHandler) GetProcessedListings(c *gin.Context) {
	listings, err := h.store.GetProcessedListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get processed listings: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
}

// GetGeoData handles GET /api/geodata
func (h *AdminHandler) GetGeoData(c *gin.Context) {
	records, err := h.store.GetGeoData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get geodata: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

type parseRequest struct {
	HTML string `json:"html" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

// ParseHTML handles POST /api/parse: parses a listing detail page, runs
// it through extraction, enrichment and scoring, persists everything
// and returns the combined listing
func (h *AdminHandler) ParseHTML(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	raw, err := service.ParseListingHTML(req.HTML, req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse listing: " + err.Error()})
		return
	}

	listing, err := h.pipeline.ProcessOne(c.Request.Context(), *raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process listing: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listing})
}

// ImportRows handles POST /api/import/rows: scraped rows as exported by
// the browser scraper, deduplicated into raw listings
func (h *AdminHandler) ImportRows(c *gin.Context) {
	var rows []model.Row
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	n, err := h.pipeline.ImportRows(c.Request.Context(), rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import rows: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": n, "rows": len(rows)})
}

// ImportRawListings handles POST /api/import/raw-listings
func (h *AdminHandler) ImportRawListings(c *gin.Context) {
	var listings []model.RawListing
	if err := c.ShouldBindJSON(&listings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.store.UpsertRawListings(c.Request.Context(), listings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import raw listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": len(listings)})
}

// ImportProcessedListings handles POST /api/import/processed-listings
func (h *AdminHandler) ImportProcessedListings(c *gin.Context) {
	var listings []model.ProcessedListing
	if err := c.ShouldBindJSON(&listings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.store.UpsertProcessedListings(c.Request.Context(), listings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import processed listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": len(listings)})
}

// ImportGeoData handles POST /api/import/geodata
func (h *AdminHandler) ImportGeoData(c *gin.Context) {
	var records []model.GeoData
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.store.UpsertGeoData(c.Request.Context(), records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import geodata: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": len(records)})
}

// RunPipeline handles POST /api/pipeline/run: kicks off an incremental
// pipeline run in the background
func (h *AdminHandler) RunPipeline(c *gin.Context) {
	go func() {
		if err := h.pipeline.Run(context.Background()); err != nil {
			log.Printf("Pipeline run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// ClearData handles DELETE /api/data: wipes every entity table
func (h *AdminHandler) ClearData(c *gin.Context) {
	if err := h.listings.ClearAllData(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear data: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
