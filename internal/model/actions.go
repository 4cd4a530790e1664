package model

import "time"

// UserActions is the per-listing save/hide/notes state.
// Created on first interaction, upserted afterwards, never auto-deleted.
type UserActions struct {
	ID        string    `json:"id" db:"id"`
	IsSaved   bool      `json:"isSaved" db:"is_saved"`
	IsHidden  bool      `json:"isHidden" db:"is_hidden"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ActionUpdate is a partial UserActions change; nil fields keep the
// stored value on upsert.
type ActionUpdate struct {
	ID       string
	IsSaved  *bool
	IsHidden *bool
	Notes    *string
}

// Stats summarizes the stored entity counts
type Stats struct {
	RawListings       int `json:"rawListings"`
	ProcessedListings int `json:"processedListings"`
	GeoData           int `json:"geoData"`
	CombinedListings  int `json:"combinedListings"`
}
