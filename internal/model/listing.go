package model

import (
	"database/sql/driver"
	"encoding/json"
)

// MaxImages caps how many image URLs a listing accumulates
const MaxImages = 10

// Row is a single scraped row as exported by the browser scraper.
// Rows for the same listing repeat every field except the image URL.
type Row struct {
	Order       string `json:"web-scraper-order"`
	StartURL    string `json:"web-scraper-start-url"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	URLHref     string `json:"url-href"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Features    string `json:"features"`
	Others      string `json:"others"`
	Costs       string `json:"costs"`
	AddCosts    string `json:"addcosts"`
	ImageSrc    string `json:"images-src"`
}

// RawListing is a deduplicated listing as assembled from scraped rows
type RawListing struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Price       int        `json:"price"`
	Description string     `json:"description"`
	Features    StringMap  `json:"features"`
	Others      StringList `json:"others"`
	Costs       StringMap  `json:"costs"`
	Images      StringList `json:"images"`
}

// CombinedListing is the fully joined view of one listing.
// It is assembled on read and never persisted as its own entity.
type CombinedListing struct {
	RawListing
	Processed   ProcessedListing `json:"processed"`
	Geo         GeoData          `json:"geo"`
	UserActions *UserActions     `json:"userActions,omitempty"`
}

// StringMap is a label→value mapping stored as JSONB
type StringMap map[string]string

// Value implements driver.Valuer interface
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(StringMap{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), m)
	}
	return json.Unmarshal(bytes, m)
}

// StringList is an ordered list of strings stored as JSONB
type StringList []string

// Value implements driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(StringList{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), l)
	}
	return json.Unmarshal(bytes, l)
}
