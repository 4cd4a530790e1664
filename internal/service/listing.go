package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/toto04/homescraper/internal/model"
)

// ErrEmbeddingsDisabled is returned when similarity search is requested
// but the pgvector extension or the embeddings client is unavailable
var ErrEmbeddingsDisabled = errors.New("similarity search is not available")

// Action values accepted by ApplyAction
const (
	ActionSave   = "save"
	ActionUnsave = "unsave"
	ActionHide   = "hide"
	ActionUnhide = "unhide"
)

// Store is the persistence surface the listing service needs
type Store interface {
	GetRawListings(ctx context.Context) ([]model.RawListing, error)
	GetRawListingByID(ctx context.Context, id string) (*model.RawListing, error)
	GetProcessedListings(ctx context.Context) ([]model.ProcessedListing, error)
	GetProcessedListingByID(ctx context.Context, id string) (*model.ProcessedListing, error)
	GetGeoData(ctx context.Context) ([]model.GeoData, error)
	GetGeoDataByID(ctx context.Context, id string) (*model.GeoData, error)
	GetUserActions(ctx context.Context) ([]model.UserActions, error)
	GetUserActionsByID(ctx context.Context, id string) (*model.UserActions, error)
	UpsertUserAction(ctx context.Context, update model.ActionUpdate) (*model.UserActions, error)
	GetStats(ctx context.Context) (*model.Stats, error)
	ClearAllData(ctx context.Context) error
	SimilarListingIDs(ctx context.Context, id string, limit int) ([]string, error)
	EmbeddingsEnabled() bool
}

// ListingService assembles and serves combined listings. Scores are
// recomputed on every read so a penalty change takes effect without a
// pipeline re-run.
type ListingService struct {
	store Store
}

// NewListingService creates a new listing service
func NewListingService(store Store) *ListingService {
	return &ListingService{store: store}
}

// GetListings returns all fully pipelined listings, freshly scored.
// Hidden listings are excluded unless includeHidden is set.
func (s *ListingService) GetListings(ctx context.Context, includeHidden bool) ([]model.CombinedListing, error) {
	raw, err := s.store.GetRawListings(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.store.GetProcessedListings(ctx)
	if err != nil {
		return nil, err
	}
	geo, err := s.store.GetGeoData(ctx)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.GetUserActions(ctx)
	if err != nil {
		return nil, err
	}

	listings := Combine(raw, processed, geo, actions, includeHidden)
	for i := range listings {
		Score(&listings[i])
	}
	return listings, nil
}

// GetSavedListings returns the listings the user flagged as saved
func (s *ListingService) GetSavedListings(ctx context.Context) ([]model.CombinedListing, error) {
	all, err := s.GetListings(ctx, true)
	if err != nil {
		return nil, err
	}
	return FilterSaved(all), nil
}

// GetHiddenListings returns the listings the user flagged as hidden
func (s *ListingService) GetHiddenListings(ctx context.Context) ([]model.CombinedListing, error) {
	all, err := s.GetListings(ctx, true)
	if err != nil {
		return nil, err
	}
	return FilterHidden(all), nil
}

// GetListingByID returns one listing regardless of its hidden flag, or
// nil when the listing never completed the pipeline
func (s *ListingService) GetListingByID(ctx context.Context, id string) (*model.CombinedListing, error) {
	raw, err := s.store.GetRawListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	processed, err := s.store.GetProcessedListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	geo, err := s.store.GetGeoDataByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.GetUserActionsByID(ctx, id)
	if err != nil {
		return nil, err
	}

	listing := CombineOne(raw, processed, geo, actions)
	if listing == nil {
		return nil, nil
	}
	Score(listing)
	return listing, nil
}

// ApplyAction applies a named user action to a listing. Unknown action
// names are rejected; unrelated flags and notes are left untouched.
func (s *ListingService) ApplyAction(ctx context.Context, id, action string, notes *string) (*model.UserActions, error) {
	update := model.ActionUpdate{ID: id, Notes: notes}

	t, f := true, false
	switch action {
	case ActionSave:
		update.IsSaved = &t
	case ActionUnsave:
		update.IsSaved = &f
	case ActionHide:
		update.IsHidden = &t
	case ActionUnhide:
		update.IsHidden = &f
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	return s.store.UpsertUserAction(ctx, update)
}

// UpdateNotes replaces the notes on a listing without touching its flags
func (s *ListingService) UpdateNotes(ctx context.Context, id, notes string) (*model.UserActions, error) {
	return s.store.UpsertUserAction(ctx, model.ActionUpdate{ID: id, Notes: &notes})
}

// GetSimilarListings returns the listings most similar to the given one
// by description embedding, nearest first
func (s *ListingService) GetSimilarListings(ctx context.Context, id string, limit int) ([]model.CombinedListing, error) {
	if !s.store.EmbeddingsEnabled() {
		return nil, ErrEmbeddingsDisabled
	}

	ids, err := s.store.SimilarListingIDs(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	listings := make([]model.CombinedListing, 0, len(ids))
	for _, similarID := range ids {
		listing, err := s.GetListingByID(ctx, similarID)
		if err != nil {
			return nil, err
		}
		if listing != nil {
			listings = append(listings, *listing)
		}
	}
	return listings, nil
}

// GetStats returns stored entity counts
func (s *ListingService) GetStats(ctx context.Context) (*model.Stats, error) {
	return s.store.GetStats(ctx)
}

// ClearAllData wipes the pipeline tables
func (s *ListingService) ClearAllData(ctx context.Context) error {
	return s.store.ClearAllData(ctx)
}
