package service

import (
	"reflect"
	"testing"

	"github.com/toto04/homescraper/internal/model"
)

func TestBuildRawListingsDeduplicatesByID(t *testing.T) {
	rows := []model.Row{
		{
			URLHref:  "https://www.immobiliare.it/annunci/12345/",
			Title:    "Bilocale in centro",
			Price:    "1.200 €",
			Features: "Superficie90 m²Piano2",
			ImageSrc: "https://img.example.com/a.jpg",
		},
		{
			URLHref:  "https://www.immobiliare.it/annunci/12345/",
			Title:    "Bilocale in centro",
			Price:    "1.200 €",
			Features: "Superficie90 m²Piano2",
			ImageSrc: "https://img.example.com/b.jpg",
		},
	}

	listings := BuildRawListings(rows)
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}

	l := listings[0]
	if l.ID != "12345" {
		t.Errorf("id = %q; want 12345", l.ID)
	}
	if l.Price != 1200 {
		t.Errorf("price = %d; want 1200", l.Price)
	}
	wantImages := model.StringList{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"}
	if !reflect.DeepEqual(l.Images, wantImages) {
		t.Errorf("images = %v; want %v", l.Images, wantImages)
	}
	if l.Features["Superficie"] != "90 m²" || l.Features["Piano"] != "2" {
		t.Errorf("features = %v", l.Features)
	}
}

func TestBuildRawListingsSkipsRowsWithoutID(t *testing.T) {
	rows := []model.Row{
		{URLHref: "https://www.immobiliare.it/annunci/no-numeric-segment", Title: "dropped"},
		{URLHref: "https://www.immobiliare.it/annunci/777/", Title: "kept"},
	}

	listings := BuildRawListings(rows)
	if len(listings) != 1 || listings[0].ID != "777" {
		t.Fatalf("expected only listing 777, got %+v", listings)
	}
}

func TestBuildRawListingsAddCostsOverride(t *testing.T) {
	rows := []model.Row{
		{
			URLHref:  "https://www.immobiliare.it/annunci/42/",
			Costs:    "Spese condominio€ 50/mese",
			AddCosts: "Spese condominio€ 80/mese",
		},
	}

	listings := BuildRawListings(rows)
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if got := listings[0].Costs["Spese condominio"]; got != "€ 80/mese" {
		t.Errorf("costs override = %q; want \"€ 80/mese\"", got)
	}
}

func TestBuildRawListingsPreservesOrder(t *testing.T) {
	rows := []model.Row{
		{URLHref: "https://x.it/3/"},
		{URLHref: "https://x.it/1/"},
		{URLHref: "https://x.it/3/", ImageSrc: "https://img/x.jpg"},
		{URLHref: "https://x.it/2/"},
	}

	listings := BuildRawListings(rows)
	var ids []string
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	want := []string{"3", "1", "2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v; want %v", ids, want)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1.200 €", 1200},
		{"€ 850/mese", 850},
		{"", 0},
		{"prezzo su richiesta", 0},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.raw); got != tt.want {
			t.Errorf("ParsePrice(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestExtractListingID(t *testing.T) {
	if got := ExtractListingID("https://www.immobiliare.it/annunci/98765432/"); got != "98765432" {
		t.Errorf("ExtractListingID = %q", got)
	}
	if got := ExtractListingID("https://www.immobiliare.it/annunci/"); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}
