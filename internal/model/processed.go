package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Tipologia values: the rental unit type classification
const (
	TipologiaIntero         = "intero"
	TipologiaStanzeMultiple = "stanze_multiple"
	TipologiaStanzaSingola  = "stanza_singola"
)

// Riscaldamento values: heating type
const (
	RiscaldamentoCentralizzato  = "centralizzato"
	RiscaldamentoAutonomo       = "autonomo"
	RiscaldamentoNonSpecificato = "nonSpecificato"
)

// LivelloArredamento values: furnishing level
const (
	ArredamentoNon            = "nonArredato"
	ArredamentoParziale       = "parzialmenteArredato"
	ArredamentoCompleto       = "completamenteArredato"
	ArredamentoNonSpecificato = "nonSpecificato"
)

// Ternary is a three-valued flag for facts the listing text may leave open.
// Unknown is the zero value; it is distinct from No on purpose, an
// unspecified utility must never score as "not included for sure".
type Ternary int

const (
	TernaryUnknown Ternary = iota
	TernaryNo
	TernaryYes
)

// IsTrue reports whether the flag is definitely set
func (t Ternary) IsTrue() bool { return t == TernaryYes }

// MarshalJSON encodes the flag as true, false or null
func (t Ternary) MarshalJSON() ([]byte, error) {
	switch t {
	case TernaryYes:
		return []byte("true"), nil
	case TernaryNo:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes true/false/null into the three states
func (t *Ternary) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = TernaryUnknown
	case bytes.Equal(data, []byte("true")):
		*t = TernaryYes
	case bytes.Equal(data, []byte("false")):
		*t = TernaryNo
	default:
		return fmt.Errorf("invalid ternary value: %s", string(data))
	}
	return nil
}

// UtenzeIncluse tracks which utilities are included in the rent
type UtenzeIncluse struct {
	Elettricita Ternary `json:"elettricita"`
	Gas         Ternary `json:"gas"`
	TARI        Ternary `json:"TARI"`
	Internet    Ternary `json:"internet"`
}

// Flags returns the four utility flags in a fixed order
func (u UtenzeIncluse) Flags() [4]Ternary {
	return [4]Ternary{u.Elettricita, u.Gas, u.TARI, u.Internet}
}

// Value implements driver.Valuer interface
func (u UtenzeIncluse) Value() (driver.Value, error) {
	return json.Marshal(u)
}

// Scan implements sql.Scanner interface
func (u *UtenzeIncluse) Scan(value interface{}) error {
	if value == nil {
		*u = UtenzeIncluse{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), u)
	}
	return json.Unmarshal(b, u)
}

// ExtractedFields is the strict schema the extraction model must return
type ExtractedFields struct {
	Tipologia           string        `json:"tipologia"`
	Indirizzo           string        `json:"indirizzo"`
	SpeseCondominiali   *float64      `json:"speseCondominiali"`
	UtenzeIncluse       UtenzeIncluse `json:"utenzeIncluse"`
	AriaCondizionata    bool          `json:"ariaCondizionata"`
	Riscaldamento       string        `json:"riscaldamento"`
	CostoMensileStimato float64       `json:"costoMensileStimato"`
	LivelloArredamento  string        `json:"livelloArredamento"`
	DurataContratto     *string       `json:"durataContratto"`
	Cauzione            *float64      `json:"cauzione"`
	Vincoli             StringList    `json:"vincoli"`
	Punteggio           float64       `json:"punteggio"`
}

// ProcessedListing is the structured record extracted from one RawListing.
// Punteggio is only a placeholder here, the deterministic scorer always
// overwrites it before listings are served.
type ProcessedListing struct {
	ID string `json:"id"`
	ExtractedFields
}
