package service

import (
	"strconv"

	"github.com/toto04/homescraper/internal/model"
)

// Score computes the deterministic quality score for a listing and
// stores it in the processed record, replacing whatever placeholder the
// extraction model produced. The listing's price may be sanitized in
// place: scraped prices sometimes carry glued-on digits (e.g. a surface
// area), and a four-digit truncation recovers the real monthly rent.
//
// Starts from 100 and subtracts penalties; the result is clamped to
// [0, 100].
func Score(l *model.CombinedListing) {
	score := 100.0

	if l.Price > 10000 {
		l.Price = truncateDigits(l.Price, 4)
		if l.Price > 5000 {
			l.Price = truncateDigits(l.Price, 3)
		}
	}
	score -= float64(l.Price) / 100

	if !l.Processed.AriaCondizionata {
		score -= 10
	}

	if l.Geo.Geocode == nil {
		score -= 10
	}

	if l.Geo.DeltaDuomo != nil {
		score -= (*l.Geo.DeltaDuomo - 1000) / 300
	} else {
		score -= 10
	}

	if l.Geo.Metro != nil {
		score -= float64(l.Geo.Metro.Distance.Value) / 100
	} else {
		score -= 20
	}

	spese := 200.0
	if l.Processed.SpeseCondominiali != nil {
		spese = *l.Processed.SpeseCondominiali
	}
	score -= spese / 100

	for _, flag := range l.Processed.UtenzeIncluse.Flags() {
		if !flag.IsTrue() {
			score -= 1
		}
	}

	switch l.Processed.LivelloArredamento {
	case model.ArredamentoNon:
		score -= 30
	case model.ArredamentoParziale:
		score -= 20
	}

	if l.Processed.Riscaldamento != model.RiscaldamentoCentralizzato {
		score -= 5
	}

	if l.Processed.Cauzione != nil {
		score -= *l.Processed.Cauzione / 1000
	}

	if len(l.Images) < 10 {
		score -= 3
		if len(l.Images) < 5 {
			score -= 7
		}
	}

	switch l.Processed.Tipologia {
	case model.TipologiaStanzaSingola:
		score -= 50
	case model.TipologiaStanzeMultiple:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	l.Processed.Punteggio = score
}

// truncateDigits keeps the first n decimal digits of a positive number
func truncateDigits(v, n int) int {
	s := strconv.Itoa(v)
	if len(s) <= n {
		return v
	}
	out, err := strconv.Atoi(s[:n])
	if err != nil {
		return v
	}
	return out
}
