package service

import (
	"context"
	"log"
	"sync"

	"github.com/toto04/homescraper/internal/model"
)

// Enricher resolves listing addresses into geospatial data: geocode,
// distance from the Duomo, and the nearest subway station with its
// walking time
type Enricher struct {
	geo        GeoClient
	maxWorkers int
}

// NewEnricher creates an enricher; maxWorkers caps concurrent lookups
func NewEnricher(geo GeoClient, maxWorkers int) *Enricher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Enricher{geo: geo, maxWorkers: maxWorkers}
}

// Enrich builds the GeoData for one address. Enrichment is best effort:
// each step that fails leaves its field nil and the rest intact, except
// a provider failure on the initial geocode, which marks the whole
// record with the error sentinel so it can be retried later.
func (e *Enricher) Enrich(ctx context.Context, id, address string) model.GeoData {
	gd := model.GeoData{ID: id, Address: address}

	geocode, err := e.geo.Geocode(ctx, address)
	if err != nil {
		log.Printf("Warning: geocoding failed for listing %s (%q): %v", id, address, err)
		gd.Address = model.GeoAddressError
		return gd
	}
	if geocode == nil {
		log.Printf("Warning: no geocoding result for listing %s (%q)", id, address)
		return gd
	}
	gd.Geocode = geocode

	loc := geocode.Geometry.Location
	delta := Haversine(loc.Lat, loc.Lng, model.DuomoLat, model.DuomoLng)
	gd.DeltaDuomo = &delta

	metro, err := e.geo.NearbySubway(ctx, loc)
	if err != nil {
		log.Printf("Warning: subway lookup failed for listing %s: %v", id, err)
		return gd
	}
	if metro == nil {
		log.Printf("No subway station within range for listing %s", id)
		return gd
	}

	duration, err := e.geo.WalkingDistance(ctx, loc, metro.Location)
	if err != nil {
		// A station without a reachable walking time is not useful for scoring
		log.Printf("Warning: walking distance failed for listing %s: %v", id, err)
		return gd
	}
	metro.Distance = *duration
	gd.Metro = metro

	return gd
}

// AddressedListing pairs a listing id with its extracted address
type AddressedListing struct {
	ID      string
	Address string
}

// EnrichAll runs enrichment for a batch of addresses with bounded
// concurrency, preserving input order in the result
func (e *Enricher) EnrichAll(ctx context.Context, listings []AddressedListing) []model.GeoData {
	if e.geo == nil || !e.geo.IsEnabled() {
		log.Printf("Warning: geo client is not configured, skipping enrichment of %d listings", len(listings))
		return nil
	}

	results := make([]model.GeoData, len(listings))
	sem := make(chan struct{}, e.maxWorkers)
	var wg sync.WaitGroup

	for i, listing := range listings {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, listing AddressedListing) {
			defer wg.Done()
			defer func() { <-sem }()

			log.Printf("Enriching listing %s (%d/%d)", listing.ID, i+1, len(listings))
			results[i] = e.Enrich(ctx, listing.ID, listing.Address)
		}(i, listing)
	}
	wg.Wait()

	failed := 0
	for _, gd := range results {
		if gd.Address == model.GeoAddressError {
			failed++
		}
	}
	log.Printf("Enrichment batch done: %d succeeded, %d failed", len(results)-failed, failed)

	return results
}
