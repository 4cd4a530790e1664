package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/toto04/homescraper/internal/config"
	"github.com/toto04/homescraper/internal/model"
)

const (
	subwaySearchRadiusMeters = 1500
	earthRadiusKm            = 6371
)

// GeoClient is the capability interface for the maps provider. The
// enricher depends on this so tests can substitute a fake.
type GeoClient interface {
	// Geocode resolves an address to its best geocoding candidate, or
	// nil when the provider found nothing
	Geocode(ctx context.Context, address string) (*model.GeocodeResult, error)

	// NearbySubway returns the closest subway station within the search
	// radius, or nil when there is none
	NearbySubway(ctx context.Context, loc model.LatLng) (*model.Metro, error)

	// WalkingDistance returns the walking duration between two points
	WalkingDistance(ctx context.Context, origin, dest model.LatLng) (*model.Distance, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// GoogleClient talks to the Google Maps Platform HTTP APIs
type GoogleClient struct {
	config     *config.GoogleConfig
	httpClient *http.Client
}

// Ensure GoogleClient implements GeoClient
var _ GeoClient = (*GoogleClient)(nil)

// NewGoogleClient creates a new Google Maps client
func NewGoogleClient(cfg *config.GoogleConfig) *GoogleClient {
	return &GoogleClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *GoogleClient) IsEnabled() bool {
	return c.config.Enabled
}

type geocodeResponse struct {
	Status  string                `json:"status"`
	Results []model.GeocodeResult `json:"results"`
}

// Geocode resolves an address through the Geocoding API and returns the
// first candidate, or nil when the address resolves to nothing
func (c *GoogleClient) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("Google Maps API is not enabled (missing API key)")
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.config.APIKey)

	reqURL := fmt.Sprintf("%s?%s", c.config.GeocodeBase, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result geocodeResponse
	if err := c.doJSON(httpReq, &result); err != nil {
		return nil, err
	}

	if result.Status == "ZERO_RESULTS" || len(result.Results) == 0 {
		return nil, nil
	}
	if result.Status != "OK" {
		return nil, fmt.Errorf("geocoding failed with status %s", result.Status)
	}

	return &result.Results[0], nil
}

type nearbySearchRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	RankPreference      string   `json:"rankPreference"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type nearbySearchResponse struct {
	Places []struct {
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"places"`
}

// NearbySubway queries the Places API for the closest subway station
// within walking range. The metro's Distance is left zero; callers fill
// it in with a distance matrix lookup.
func (c *GoogleClient) NearbySubway(ctx context.Context, loc model.LatLng) (*model.Metro, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("Google Maps API is not enabled (missing API key)")
	}

	var req nearbySearchRequest
	req.IncludedTypes = []string{"subway_station"}
	req.MaxResultCount = 1
	req.RankPreference = "DISTANCE"
	req.LocationRestriction.Circle.Center.Latitude = loc.Lat
	req.LocationRestriction.Circle.Center.Longitude = loc.Lng
	req.LocationRestriction.Circle.Radius = subwaySearchRadiusMeters

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.PlacesBase, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.config.APIKey)
	httpReq.Header.Set("X-Goog-FieldMask", "places.displayName,places.location")

	var result nearbySearchResponse
	if err := c.doJSON(httpReq, &result); err != nil {
		return nil, err
	}

	if len(result.Places) == 0 {
		return nil, nil
	}

	place := result.Places[0]
	return &model.Metro{
		Name: place.DisplayName.Text,
		Location: model.LatLng{
			Lat: place.Location.Latitude,
			Lng: place.Location.Longitude,
		},
	}, nil
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string         `json:"status"`
			Duration model.Distance `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// WalkingDistance returns the walking duration between two points via
// the Distance Matrix API
func (c *GoogleClient) WalkingDistance(ctx context.Context, origin, dest model.LatLng) (*model.Distance, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("Google Maps API is not enabled (missing API key)")
	}

	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	params.Set("destinations", fmt.Sprintf("%f,%f", dest.Lat, dest.Lng))
	params.Set("mode", "walking")
	params.Set("key", c.config.APIKey)

	reqURL := fmt.Sprintf("%s?%s", c.config.DistanceBase, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result distanceMatrixResponse
	if err := c.doJSON(httpReq, &result); err != nil {
		return nil, err
	}

	if result.Status != "OK" {
		return nil, fmt.Errorf("distance matrix failed with status %s", result.Status)
	}
	if len(result.Rows) == 0 || len(result.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("distance matrix returned no elements")
	}

	element := result.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, fmt.Errorf("distance matrix element status %s", element.Status)
	}

	duration := element.Duration
	return &duration, nil
}

func (c *GoogleClient) doJSON(req *http.Request, target interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinates
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
