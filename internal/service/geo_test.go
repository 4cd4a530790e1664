package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/toto04/homescraper/internal/config"
	"github.com/toto04/homescraper/internal/model"
)

func newTestGoogleClient(geocode, places, distance string) *GoogleClient {
	return NewGoogleClient(&config.GoogleConfig{
		APIKey:       "test-key",
		GeocodeBase:  geocode,
		PlacesBase:   places,
		DistanceBase: distance,
		Timeout:      5,
		Enabled:      true,
	})
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "Via Roma 1, Milano" {
			t.Errorf("address param = %q", got)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key param")
		}
		fmt.Fprint(w, `{
			"status": "OK",
			"results": [{
				"formatted_address": "Via Roma, 1, 20121 Milano MI, Italy",
				"place_id": "ChIJtest",
				"types": ["street_address"],
				"geometry": {"location": {"lat": 45.47, "lng": 9.19}}
			}]
		}`)
	}))
	defer srv.Close()

	c := newTestGoogleClient(srv.URL, "", "")
	got, err := c.Geocode(context.Background(), "Via Roma 1, Milano")
	if err != nil {
		t.Fatalf("Geocode error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.FormattedAddress != "Via Roma, 1, 20121 Milano MI, Italy" {
		t.Errorf("formatted address = %q", got.FormattedAddress)
	}
	if got.Geometry.Location.Lat != 45.47 || got.Geometry.Location.Lng != 9.19 {
		t.Errorf("location = %+v", got.Geometry.Location)
	}
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	c := newTestGoogleClient(srv.URL, "", "")
	got, err := c.Geocode(context.Background(), "xyz")
	if err != nil {
		t.Fatalf("Geocode error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result, got %+v", got)
	}
}

func TestNearbySubway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Error("missing X-Goog-Api-Key header")
		}
		if r.Header.Get("X-Goog-FieldMask") == "" {
			t.Error("missing X-Goog-FieldMask header")
		}

		var req nearbySearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.IncludedTypes) != 1 || req.IncludedTypes[0] != "subway_station" {
			t.Errorf("includedTypes = %v", req.IncludedTypes)
		}
		if req.MaxResultCount != 1 || req.RankPreference != "DISTANCE" {
			t.Errorf("maxResultCount = %d, rankPreference = %s", req.MaxResultCount, req.RankPreference)
		}
		if req.LocationRestriction.Circle.Radius != 1500 {
			t.Errorf("radius = %v", req.LocationRestriction.Circle.Radius)
		}

		fmt.Fprint(w, `{
			"places": [{
				"displayName": {"text": "Duomo M1"},
				"location": {"latitude": 45.464, "longitude": 9.19}
			}]
		}`)
	}))
	defer srv.Close()

	c := newTestGoogleClient("", srv.URL, "")
	got, err := c.NearbySubway(context.Background(), model.LatLng{Lat: 45.47, Lng: 9.19})
	if err != nil {
		t.Fatalf("NearbySubway error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a station")
	}
	if got.Name != "Duomo M1" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Location.Lat != 45.464 {
		t.Errorf("location = %+v", got.Location)
	}
}

func TestNearbySubwayNoneInRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := newTestGoogleClient("", srv.URL, "")
	got, err := c.NearbySubway(context.Background(), model.LatLng{})
	if err != nil {
		t.Fatalf("NearbySubway error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestWalkingDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mode"); got != "walking" {
			t.Errorf("mode = %q", got)
		}
		fmt.Fprint(w, `{
			"status": "OK",
			"rows": [{
				"elements": [{
					"status": "OK",
					"duration": {"value": 420, "text": "7 mins"},
					"distance": {"value": 550, "text": "0.6 km"}
				}]
			}]
		}`)
	}))
	defer srv.Close()

	c := newTestGoogleClient("", "", srv.URL)
	got, err := c.WalkingDistance(context.Background(), model.LatLng{Lat: 45.47, Lng: 9.19}, model.LatLng{Lat: 45.464, Lng: 9.191})
	if err != nil {
		t.Fatalf("WalkingDistance error: %v", err)
	}
	// The duration element is what gets stored, not the distance one
	if got.Value != 420 || got.Text != "7 mins" {
		t.Errorf("duration = %+v", got)
	}
}

func TestWalkingDistanceElementNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK", "rows": [{"elements": [{"status": "NOT_FOUND"}]}]}`)
	}))
	defer srv.Close()

	c := newTestGoogleClient("", "", srv.URL)
	if _, err := c.WalkingDistance(context.Background(), model.LatLng{}, model.LatLng{}); err == nil {
		t.Fatal("expected error for NOT_FOUND element")
	}
}

func TestHaversine(t *testing.T) {
	// Duomo to Castello Sforzesco is roughly 1.1 km
	d := Haversine(model.DuomoLat, model.DuomoLng, 45.4703, 9.1794)
	if d < 1.0 || d > 1.3 {
		t.Errorf("Duomo-Castello distance = %v km", d)
	}

	if got := Haversine(45.46, 9.19, 45.46, 9.19); got != 0 {
		t.Errorf("zero distance = %v", got)
	}

	// Symmetry
	a := Haversine(45.46, 9.19, 45.50, 9.25)
	b := Haversine(45.50, 9.25, 45.46, 9.19)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric: %v vs %v", a, b)
	}
}
