package service

import (
	"log"
	"regexp"
	"strconv"

	"github.com/toto04/homescraper/internal/model"
)

var (
	// listingIDPattern matches the numeric path segment of a listing URL
	listingIDPattern = regexp.MustCompile(`/(\d+)/`)
	nonDigitPattern  = regexp.MustCompile(`\D`)
)

// ExtractListingID pulls the stable numeric listing id out of a source URL.
// Returns the empty string when the URL has no numeric path segment.
func ExtractListingID(url string) string {
	m := listingIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParsePrice strips everything but digits and parses the remainder.
// Unparseable input yields 0, not an error.
func ParsePrice(text string) int {
	digits := nonDigitPattern.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return price
}

// BuildRawListings deduplicates scraped rows into RawListings keyed by the
// id embedded in each row's URL. Rows for an already seen id contribute
// only their image URL; rows without an extractable id are skipped.
// Output preserves the insertion order of first-seen ids.
func BuildRawListings(rows []model.Row) []model.RawListing {
	byID := make(map[string]*model.RawListing)
	var order []string

	for _, row := range rows {
		id := ExtractListingID(row.URLHref)
		if id == "" {
			log.Printf("Warning: no listing id found in row URL: %q", row.URLHref)
			continue
		}

		if existing, ok := byID[id]; ok {
			if row.ImageSrc != "" && len(existing.Images) < model.MaxImages {
				existing.Images = append(existing.Images, row.ImageSrc)
			}
			continue
		}

		// costs and addcosts are segmented together so that addcosts
		// entries override costs entries on label collision
		costParts := append(SegmentParts(row.Costs), SegmentParts(row.AddCosts)...)

		images := model.StringList{}
		if row.ImageSrc != "" {
			images = append(images, row.ImageSrc)
		}

		listing := &model.RawListing{
			ID:          id,
			Title:       row.Title,
			URL:         row.URLHref,
			Price:       ParsePrice(row.Price),
			Description: row.Description,
			Features:    SegmentPairs(row.Features),
			Others:      SegmentList(row.Others),
			Costs:       PairFragments(costParts),
			Images:      images,
		}

		byID[id] = listing
		order = append(order, id)
	}

	out := make([]model.RawListing, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}
