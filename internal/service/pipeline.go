package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/toto04/homescraper/internal/model"
)

// PipelineStore is the persistence surface the pipeline needs
type PipelineStore interface {
	UpsertRawListings(ctx context.Context, listings []model.RawListing) error
	GetRawListings(ctx context.Context) ([]model.RawListing, error)
	UpsertProcessedListings(ctx context.Context, listings []model.ProcessedListing) error
	GetProcessedListings(ctx context.Context) ([]model.ProcessedListing, error)
	UpsertGeoData(ctx context.Context, records []model.GeoData) error
	GetGeoData(ctx context.Context) ([]model.GeoData, error)
	GetListingsMissingEmbedding(ctx context.Context) ([]model.RawListing, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	EmbeddingsEnabled() bool
}

// Pipeline orchestrates the batch steps that move listings from scraped
// rows to fully served records: import, extract, enrich, score, embed.
// Each step is incremental, it only touches listings missing its output.
type Pipeline struct {
	store     PipelineStore
	extractor *Extractor
	enricher  *Enricher
	ai        AIClient
}

// NewPipeline creates a new pipeline
func NewPipeline(store PipelineStore, extractor *Extractor, enricher *Enricher, ai AIClient) *Pipeline {
	return &Pipeline{store: store, extractor: extractor, enricher: enricher, ai: ai}
}

// ImportRows deduplicates scraped rows into raw listings and stores
// them. Returns how many distinct listings were imported.
func (p *Pipeline) ImportRows(ctx context.Context, rows []model.Row) (int, error) {
	listings := BuildRawListings(rows)
	if err := p.store.UpsertRawListings(ctx, listings); err != nil {
		return 0, err
	}
	return len(listings), nil
}

// ExtractMissing runs field extraction for every raw listing that has
// no processed record yet
func (p *Pipeline) ExtractMissing(ctx context.Context) (int, error) {
	raw, err := p.store.GetRawListings(ctx)
	if err != nil {
		return 0, err
	}
	processed, err := p.store.GetProcessedListings(ctx)
	if err != nil {
		return 0, err
	}

	done := make(map[string]bool, len(processed))
	for _, pl := range processed {
		done[pl.ID] = true
	}

	var pending []model.RawListing
	for _, r := range raw {
		if !done[r.ID] {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		log.Printf("Extraction: nothing to do")
		return 0, nil
	}

	log.Printf("Extraction: %d listings pending", len(pending))
	extracted := p.extractor.ExtractAll(ctx, pending)
	if err := p.store.UpsertProcessedListings(ctx, extracted); err != nil {
		return 0, err
	}
	return len(extracted), nil
}

// EnrichMissing runs geodata enrichment for every processed listing
// that has no geodata yet. Records previously marked with the error
// sentinel are retried.
func (p *Pipeline) EnrichMissing(ctx context.Context) (int, error) {
	processed, err := p.store.GetProcessedListings(ctx)
	if err != nil {
		return 0, err
	}
	geo, err := p.store.GetGeoData(ctx)
	if err != nil {
		return 0, err
	}

	done := make(map[string]bool, len(geo))
	for _, g := range geo {
		if g.Address != model.GeoAddressError {
			done[g.ID] = true
		}
	}

	var pending []AddressedListing
	for _, pl := range processed {
		if !done[pl.ID] {
			pending = append(pending, AddressedListing{ID: pl.ID, Address: pl.Indirizzo})
		}
	}
	if len(pending) == 0 {
		log.Printf("Enrichment: nothing to do")
		return 0, nil
	}

	log.Printf("Enrichment: %d listings pending", len(pending))
	enriched := p.enricher.EnrichAll(ctx, pending)
	if err := p.store.UpsertGeoData(ctx, enriched); err != nil {
		return 0, err
	}
	return len(enriched), nil
}

// RescoreAll recomputes the deterministic score of every fully
// pipelined listing and persists it, along with any price sanitization
// the scorer applied
func (p *Pipeline) RescoreAll(ctx context.Context) (int, error) {
	raw, err := p.store.GetRawListings(ctx)
	if err != nil {
		return 0, err
	}
	processed, err := p.store.GetProcessedListings(ctx)
	if err != nil {
		return 0, err
	}
	geo, err := p.store.GetGeoData(ctx)
	if err != nil {
		return 0, err
	}

	combined := Combine(raw, processed, geo, nil, true)
	rescoredRaw := make([]model.RawListing, 0, len(combined))
	rescoredProcessed := make([]model.ProcessedListing, 0, len(combined))
	for i := range combined {
		Score(&combined[i])
		rescoredRaw = append(rescoredRaw, combined[i].RawListing)
		rescoredProcessed = append(rescoredProcessed, combined[i].Processed)
	}

	if err := p.store.UpsertRawListings(ctx, rescoredRaw); err != nil {
		return 0, err
	}
	if err := p.store.UpsertProcessedListings(ctx, rescoredProcessed); err != nil {
		return 0, err
	}
	return len(combined), nil
}

// EmbedMissing generates description embeddings for listings that do
// not have one stored yet
func (p *Pipeline) EmbedMissing(ctx context.Context) (int, error) {
	if !p.store.EmbeddingsEnabled() {
		log.Printf("Embeddings: disabled, skipping")
		return 0, nil
	}
	if p.ai == nil || !p.ai.IsEnabled() {
		log.Printf("Embeddings: model client not configured, skipping")
		return 0, nil
	}

	pending, err := p.store.GetListingsMissingEmbedding(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		log.Printf("Embeddings: nothing to do")
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, l := range pending {
		texts[i] = fmt.Sprintf("%s\n%s", l.Title, l.Description)
	}

	log.Printf("Embeddings: %d listings pending", len(pending))
	embeddings, err := p.ai.CreateEmbeddings(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(embeddings) != len(pending) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d listings", len(embeddings), len(pending))
	}

	stored := 0
	for i, l := range pending {
		if err := p.store.UpdateEmbedding(ctx, l.ID, embeddings[i]); err != nil {
			log.Printf("Warning: failed to store embedding for listing %s: %v", l.ID, err)
			continue
		}
		stored++
	}
	return stored, nil
}

// ProcessOne runs a single freshly parsed listing through the whole
// chain synchronously: extraction, enrichment, scoring, persistence.
// Used by the parse endpoint so a submitted page comes back fully
// served.
func (p *Pipeline) ProcessOne(ctx context.Context, raw model.RawListing) (*model.CombinedListing, error) {
	processed, err := p.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	geo := p.enricher.Enrich(ctx, raw.ID, processed.Indirizzo)

	listing := CombineOne(&raw, processed, &geo, nil)
	Score(listing)

	if err := p.store.UpsertRawListings(ctx, []model.RawListing{listing.RawListing}); err != nil {
		return nil, err
	}
	if err := p.store.UpsertProcessedListings(ctx, []model.ProcessedListing{listing.Processed}); err != nil {
		return nil, err
	}
	if err := p.store.UpsertGeoData(ctx, []model.GeoData{listing.Geo}); err != nil {
		return nil, err
	}

	return listing, nil
}

// Run executes the incremental steps end to end: extract, enrich,
// rescore, embed. Importing rows is a separate entry point since it
// needs external input.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log.Printf("Pipeline run %s started", runID)

	extracted, err := p.ExtractMissing(ctx)
	if err != nil {
		return fmt.Errorf("run %s: extraction failed: %w", runID, err)
	}

	enriched, err := p.EnrichMissing(ctx)
	if err != nil {
		return fmt.Errorf("run %s: enrichment failed: %w", runID, err)
	}

	rescored, err := p.RescoreAll(ctx)
	if err != nil {
		return fmt.Errorf("run %s: scoring failed: %w", runID, err)
	}

	embedded, err := p.EmbedMissing(ctx)
	if err != nil {
		// Embeddings are a supplemental feature, their failure does not
		// invalidate the run
		log.Printf("Warning: run %s: embedding step failed: %v", runID, err)
	}

	log.Printf("Pipeline run %s done: %d extracted, %d enriched, %d rescored, %d embedded",
		runID, extracted, enriched, rescored, embedded)
	return nil
}
