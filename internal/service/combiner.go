package service

import (
	"github.com/toto04/homescraper/internal/model"
)

// Combine joins the three pipeline entities into served listings. A
// listing appears only when it has completed the whole pipeline: raw
// data, extraction and geodata must all exist (inner join). User
// actions are attached when present (left join). Hidden listings are
// filtered out unless includeHidden is set.
//
// Output preserves the raw listings' order.
func Combine(
	raw []model.RawListing,
	processed []model.ProcessedListing,
	geo []model.GeoData,
	actions []model.UserActions,
	includeHidden bool,
) []model.CombinedListing {
	processedByID := make(map[string]model.ProcessedListing, len(processed))
	for _, p := range processed {
		processedByID[p.ID] = p
	}
	geoByID := make(map[string]model.GeoData, len(geo))
	for _, g := range geo {
		geoByID[g.ID] = g
	}
	actionsByID := make(map[string]model.UserActions, len(actions))
	for _, a := range actions {
		actionsByID[a.ID] = a
	}

	combined := make([]model.CombinedListing, 0, len(raw))
	for _, r := range raw {
		p, ok := processedByID[r.ID]
		if !ok {
			continue
		}
		g, ok := geoByID[r.ID]
		if !ok {
			continue
		}

		listing := model.CombinedListing{
			RawListing: r,
			Processed:  p,
			Geo:        g,
		}
		if a, ok := actionsByID[r.ID]; ok {
			if a.IsHidden && !includeHidden {
				continue
			}
			actions := a
			listing.UserActions = &actions
		}

		combined = append(combined, listing)
	}

	return combined
}

// CombineOne assembles a single listing from its parts, or nil when the
// pipeline has not completed for it. Unlike Combine it never filters on
// the hidden flag: direct lookups always return the listing.
func CombineOne(
	raw *model.RawListing,
	processed *model.ProcessedListing,
	geo *model.GeoData,
	actions *model.UserActions,
) *model.CombinedListing {
	if raw == nil || processed == nil || geo == nil {
		return nil
	}

	return &model.CombinedListing{
		RawListing:  *raw,
		Processed:   *processed,
		Geo:         *geo,
		UserActions: actions,
	}
}

// FilterSaved returns the listings flagged as saved
func FilterSaved(listings []model.CombinedListing) []model.CombinedListing {
	out := make([]model.CombinedListing, 0)
	for _, l := range listings {
		if l.UserActions != nil && l.UserActions.IsSaved {
			out = append(out, l)
		}
	}
	return out
}

// FilterHidden returns the listings flagged as hidden
func FilterHidden(listings []model.CombinedListing) []model.CombinedListing {
	out := make([]model.CombinedListing, 0)
	for _, l := range listings {
		if l.UserActions != nil && l.UserActions.IsHidden {
			out = append(out, l)
		}
	}
	return out
}
