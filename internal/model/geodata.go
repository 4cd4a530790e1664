package model

// Duomo di Milano, the city-center reference point for distance scoring
const (
	DuomoLat = 45.46406877289005
	DuomoLng = 9.191486284885102
)

// GeoAddressError is the sentinel address for a failed enrichment
const GeoAddressError = "ERROR"

// LatLng is a WGS84 coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult is the retained subset of a geocoding candidate
type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Types            []string `json:"types,omitempty"`
	Geometry         struct {
		Location LatLng `json:"location"`
	} `json:"geometry"`
}

// Distance carries a machine-readable value and its display string,
// as returned by the distance matrix (walking duration: seconds + text)
type Distance struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// Metro is the nearest subway station to a geocoded address
type Metro struct {
	Name     string   `json:"name"`
	Location LatLng   `json:"location"`
	Distance Distance `json:"distance"`
}

// GeoData is the geospatial enrichment for one listing.
// All sub-fields are best effort: a failed lookup leaves them nil.
type GeoData struct {
	ID         string         `json:"id"`
	Address    string         `json:"address"`
	Geocode    *GeocodeResult `json:"geocode"`
	DeltaDuomo *float64       `json:"deltaDuomo"` // km great-circle distance to the Duomo
	Metro      *Metro         `json:"metro"`
}
