package service

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/toto04/homescraper/internal/model"
)

// ParseListingHTML extracts a RawListing from the full HTML of a
// listing detail page. The id is taken from the page URL.
func ParseListingHTML(html, pageURL string) (*model.RawListing, error) {
	id := ExtractListingID(pageURL)
	if id == "" {
		return nil, fmt.Errorf("listing id not found in URL: %s", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())

	priceText := doc.Find(`[class*="styles_ld-overview__price"] span`).First().Text()
	price := ParsePrice(priceText)

	description := strings.TrimSpace(doc.Find(`[class*="styles_in-readAll__"]`).First().Text())

	featuresText := doc.Find(`div[data-tracking-key="primary-data"] dl[class*="styles_ld-featuresGrid__list"]`).First().Text()
	features := PairFragments(SegmentParts(featuresText))

	othersText := doc.Find(`div[data-tracking-key="primary-data"] [class*="styles_ld-featuresBadges__list"]`).First().Text()
	others := SegmentList(othersText)

	costsText := doc.Find(`div[data-tracking-key="price-information"] dl[class*="styles_ld-featuresGrid__list"]`).First().Text()
	addCostsText := doc.Find(`div[data-tracking-key="costs"] dl[class*="styles_ld-featuresGrid__list"]`).First().Text()
	// Additional costs override the base cost entries on label collision
	costs := PairFragments(append(SegmentParts(costsText), SegmentParts(addCostsText)...))

	images := model.StringList{}
	doc.Find("div.nd-slideshow__content img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		switch {
		case strings.HasPrefix(src, "//"):
			images = append(images, "https:"+src)
		case strings.HasPrefix(src, "http"):
			images = append(images, src)
		}
	})
	if len(images) > model.MaxImages {
		images = images[:model.MaxImages]
	}

	return &model.RawListing{
		ID:          id,
		Title:       title,
		URL:         pageURL,
		Price:       price,
		Description: description,
		Features:    features,
		Others:      others,
		Costs:       costs,
		Images:      images,
	}, nil
}
