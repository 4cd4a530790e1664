package service

import (
	"context"
	"testing"

	"github.com/toto04/homescraper/internal/model"
)

// fakeStore implements Store on top of memStore with user actions and
// similarity results
type fakeStore struct {
	*memStore
	actions map[string]model.UserActions
	similar []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memStore: newMemStore(),
		actions:  map[string]model.UserActions{},
	}
}

func (f *fakeStore) GetRawListingByID(ctx context.Context, id string) (*model.RawListing, error) {
	if l, ok := f.raw[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (f *fakeStore) GetProcessedListingByID(ctx context.Context, id string) (*model.ProcessedListing, error) {
	if l, ok := f.processed[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (f *fakeStore) GetGeoDataByID(ctx context.Context, id string) (*model.GeoData, error) {
	if g, ok := f.geo[id]; ok {
		return &g, nil
	}
	return nil, nil
}

func (f *fakeStore) GetUserActions(ctx context.Context) ([]model.UserActions, error) {
	out := make([]model.UserActions, 0, len(f.actions))
	for _, id := range sortedKeys(f.actions) {
		out = append(out, f.actions[id])
	}
	return out, nil
}

func (f *fakeStore) GetUserActionsByID(ctx context.Context, id string) (*model.UserActions, error) {
	if a, ok := f.actions[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertUserAction(ctx context.Context, update model.ActionUpdate) (*model.UserActions, error) {
	a := f.actions[update.ID]
	a.ID = update.ID
	if update.IsSaved != nil {
		a.IsSaved = *update.IsSaved
	}
	if update.IsHidden != nil {
		a.IsHidden = *update.IsHidden
	}
	if update.Notes != nil {
		a.Notes = *update.Notes
	}
	f.actions[update.ID] = a
	return &a, nil
}

func (f *fakeStore) GetStats(ctx context.Context) (*model.Stats, error) {
	return &model.Stats{RawListings: len(f.raw)}, nil
}

func (f *fakeStore) ClearAllData(ctx context.Context) error {
	f.raw = map[string]model.RawListing{}
	f.processed = map[string]model.ProcessedListing{}
	f.geo = map[string]model.GeoData{}
	f.actions = map[string]model.UserActions{}
	return nil
}

func (f *fakeStore) SimilarListingIDs(ctx context.Context, id string, limit int) ([]string, error) {
	if limit < len(f.similar) {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

func (f *fakeStore) seedListing(id string) {
	f.raw[id] = model.RawListing{ID: id, Title: "Listing " + id, Price: 1000}
	f.processed[id] = model.ProcessedListing{ID: id, ExtractedFields: *validFields()}
	f.geo[id] = model.GeoData{ID: id, Address: "Via " + id}
}

func TestListingServiceScoresOnRead(t *testing.T) {
	store := newFakeStore()
	store.seedListing("1")
	s := NewListingService(store)

	listings, err := s.GetListings(context.Background(), false)
	if err != nil {
		t.Fatalf("GetListings error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("len = %d", len(listings))
	}
	// The stored placeholder is 60; the deterministic score differs
	if listings[0].Processed.Punteggio == 60 {
		t.Errorf("punteggio not recomputed: %v", listings[0].Processed.Punteggio)
	}
}

func TestListingServiceHiddenFiltering(t *testing.T) {
	store := newFakeStore()
	store.seedListing("1")
	store.seedListing("2")
	store.actions["2"] = model.UserActions{ID: "2", IsHidden: true}
	s := NewListingService(store)

	visible, err := s.GetListings(context.Background(), false)
	if err != nil {
		t.Fatalf("GetListings error: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != "1" {
		t.Errorf("visible = %+v", visible)
	}

	hidden, err := s.GetHiddenListings(context.Background())
	if err != nil {
		t.Fatalf("GetHiddenListings error: %v", err)
	}
	if len(hidden) != 1 || hidden[0].ID != "2" {
		t.Errorf("hidden = %+v", hidden)
	}

	// Direct lookup ignores the hidden flag
	byID, err := s.GetListingByID(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetListingByID error: %v", err)
	}
	if byID == nil {
		t.Fatal("hidden listing must still be reachable by id")
	}
}

func TestListingServiceApplyAction(t *testing.T) {
	store := newFakeStore()
	store.seedListing("1")
	s := NewListingService(store)

	notes := "da visitare"
	a, err := s.ApplyAction(context.Background(), "1", ActionSave, &notes)
	if err != nil {
		t.Fatalf("ApplyAction error: %v", err)
	}
	if !a.IsSaved || a.Notes != "da visitare" {
		t.Errorf("actions = %+v", a)
	}

	// Hiding must not clear the saved flag or the notes
	a, err = s.ApplyAction(context.Background(), "1", ActionHide, nil)
	if err != nil {
		t.Fatalf("ApplyAction error: %v", err)
	}
	if !a.IsSaved || !a.IsHidden || a.Notes != "da visitare" {
		t.Errorf("actions after hide = %+v", a)
	}

	if _, err := s.ApplyAction(context.Background(), "1", "archive", nil); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestListingServiceUpdateNotes(t *testing.T) {
	store := newFakeStore()
	store.seedListing("1")
	store.actions["1"] = model.UserActions{ID: "1", IsSaved: true}
	s := NewListingService(store)

	a, err := s.UpdateNotes(context.Background(), "1", "nuove note")
	if err != nil {
		t.Fatalf("UpdateNotes error: %v", err)
	}
	if a.Notes != "nuove note" || !a.IsSaved {
		t.Errorf("actions = %+v", a)
	}
}

func TestListingServiceSimilar(t *testing.T) {
	store := newFakeStore()
	store.seedListing("1")
	store.seedListing("2")
	store.seedListing("3")
	store.similar = []string{"3", "2"}
	s := NewListingService(store)

	got, err := s.GetSimilarListings(context.Background(), "1", 5)
	if err != nil {
		t.Fatalf("GetSimilarListings error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "2" {
		t.Errorf("similar = %+v", got)
	}

	store.vector = false
	if _, err := s.GetSimilarListings(context.Background(), "1", 5); err == nil {
		t.Fatal("expected error when embeddings are disabled")
	}
}
