package service

import (
	"math"
	"testing"

	"github.com/toto04/homescraper/internal/model"
)

func goodListing() *model.CombinedListing {
	delta := 2.5
	spese := 100.0
	cauzione := 2400.0

	l := &model.CombinedListing{}
	l.ID = "1"
	l.Price = 1200
	l.Images = model.StringList{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	l.Processed = model.ProcessedListing{
		ID: "1",
		ExtractedFields: model.ExtractedFields{
			Tipologia:         model.TipologiaIntero,
			SpeseCondominiali: &spese,
			UtenzeIncluse: model.UtenzeIncluse{
				Elettricita: model.TernaryYes,
			},
			AriaCondizionata:   true,
			Riscaldamento:      model.RiscaldamentoCentralizzato,
			LivelloArredamento: model.ArredamentoCompleto,
			Cauzione:           &cauzione,
		},
	}
	l.Geo = model.GeoData{
		ID:         "1",
		Geocode:    geocodeAt(45.48, 9.20),
		DeltaDuomo: &delta,
		Metro: &model.Metro{
			Name:     "Lima M1",
			Distance: model.Distance{Value: 420, Text: "7 mins"},
		},
	}
	return l
}

func TestScorePenaltyTable(t *testing.T) {
	l := goodListing()
	Score(l)

	// 100 - 12 (price) + 3.325 (delta term) - 4.2 (metro) - 1 (spese)
	// - 3 (three utilities not confirmed) - 2.4 (cauzione)
	want := 80.725
	if math.Abs(l.Processed.Punteggio-want) > 1e-9 {
		t.Errorf("punteggio = %v, want %v", l.Processed.Punteggio, want)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	l := goodListing()
	Score(l)
	first := l.Processed.Punteggio
	Score(l)
	if l.Processed.Punteggio != first {
		t.Errorf("second run = %v, first = %v", l.Processed.Punteggio, first)
	}
}

func TestScoreSanitizesGluedPrice(t *testing.T) {
	l := goodListing()
	l.Price = 123456
	Score(l)
	if l.Price != 1234 {
		t.Errorf("price = %d, want 1234", l.Price)
	}

	l = goodListing()
	l.Price = 999999999
	Score(l)
	if l.Price != 999 {
		t.Errorf("price = %d, want 999 after double truncation", l.Price)
	}

	// A legitimate four-digit rent is untouched
	l = goodListing()
	l.Price = 1200
	Score(l)
	if l.Price != 1200 {
		t.Errorf("price = %d, want 1200", l.Price)
	}
}

func TestScoreClampsToZero(t *testing.T) {
	cauzione := 8000.0
	l := &model.CombinedListing{}
	l.ID = "2"
	l.Price = 4000
	l.Processed = model.ProcessedListing{
		ID: "2",
		ExtractedFields: model.ExtractedFields{
			Tipologia:          model.TipologiaStanzaSingola,
			Riscaldamento:      model.RiscaldamentoAutonomo,
			LivelloArredamento: model.ArredamentoNon,
			Cauzione:           &cauzione,
		},
	}
	l.Geo = model.GeoData{ID: "2"}

	Score(l)
	if l.Processed.Punteggio != 0 {
		t.Errorf("punteggio = %v, want clamp to exactly 0", l.Processed.Punteggio)
	}
}

func TestScoreClampsToHundred(t *testing.T) {
	spese := 0.0
	delta := 0.001
	l := &model.CombinedListing{}
	l.ID = "3"
	l.Price = 0
	l.Images = model.StringList{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	l.Processed = model.ProcessedListing{
		ID: "3",
		ExtractedFields: model.ExtractedFields{
			Tipologia:         model.TipologiaIntero,
			SpeseCondominiali: &spese,
			UtenzeIncluse: model.UtenzeIncluse{
				Elettricita: model.TernaryYes,
				Gas:         model.TernaryYes,
				TARI:        model.TernaryYes,
				Internet:    model.TernaryYes,
			},
			AriaCondizionata:   true,
			Riscaldamento:      model.RiscaldamentoCentralizzato,
			LivelloArredamento: model.ArredamentoCompleto,
		},
	}
	l.Geo = model.GeoData{
		ID:         "3",
		Geocode:    geocodeAt(model.DuomoLat, model.DuomoLng),
		DeltaDuomo: &delta,
		Metro:      &model.Metro{Name: "Duomo M1"},
	}

	Score(l)
	if l.Processed.Punteggio != 100 {
		t.Errorf("punteggio = %v, want clamp to 100", l.Processed.Punteggio)
	}
}

func TestScoreUnknownUtilityPenalizedLikeExcluded(t *testing.T) {
	base := goodListing()
	Score(base)

	confirmedNo := goodListing()
	confirmedNo.Processed.UtenzeIncluse.Gas = model.TernaryNo
	Score(confirmedNo)

	// Unknown and No both cost one point; only a confirmed Yes avoids it
	if base.Processed.Punteggio != confirmedNo.Processed.Punteggio {
		t.Errorf("unknown = %v, confirmed no = %v",
			base.Processed.Punteggio, confirmedNo.Processed.Punteggio)
	}
}

func TestScoreFewImagesPenalty(t *testing.T) {
	nine := goodListing()
	nine.Images = nine.Images[:9]
	Score(nine)

	four := goodListing()
	four.Images = four.Images[:4]
	Score(four)

	full := goodListing()
	Score(full)

	if got := full.Processed.Punteggio - nine.Processed.Punteggio; math.Abs(got-3) > 1e-9 {
		t.Errorf("nine-image penalty = %v, want 3", got)
	}
	if got := full.Processed.Punteggio - four.Processed.Punteggio; math.Abs(got-10) > 1e-9 {
		t.Errorf("four-image penalty = %v, want 10", got)
	}
}
