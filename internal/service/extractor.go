package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/toto04/homescraper/internal/model"
)

const extractionSystemPrompt = "Sei un estrattore di dati da annunci di affitto. Estrai i campi richiesti."

// maxExtractionImages limits how many listing photos are attached to a request
const maxExtractionImages = 5

var imageURLPattern = regexp.MustCompile(`https?://[^\s]+`)

// Extractor turns RawListings into ProcessedListings through the
// injected extraction model client
type Extractor struct {
	ai        AIClient
	staggerMS int
}

// NewExtractor creates an extractor; staggerMS is the per-index delay
// applied when fanning out batch requests
func NewExtractor(ai AIClient, staggerMS int) *Extractor {
	return &Extractor{ai: ai, staggerMS: staggerMS}
}

// Extract runs one listing through the model and validates the result.
// A validation failure or empty result is a definite failure for this
// listing, never a partially populated guess.
func (e *Extractor) Extract(ctx context.Context, listing model.RawListing) (*model.ProcessedListing, error) {
	if e.ai == nil || !e.ai.IsEnabled() {
		return nil, fmt.Errorf("extraction model is not configured")
	}

	images := make([]string, 0, maxExtractionImages)
	for _, img := range listing.Images {
		if len(images) >= maxExtractionImages {
			break
		}
		if imageURLPattern.MatchString(img) {
			images = append(images, img)
		}
	}

	fields, err := e.ai.ExtractListing(ctx, ExtractionRequest{
		System:    extractionSystemPrompt,
		Prompt:    buildExtractionPrompt(listing),
		ImageURLs: images,
	})
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("no parsed output for listing %s", listing.ID)
	}

	if err := validateExtractedFields(fields); err != nil {
		return nil, fmt.Errorf("extraction for listing %s failed validation: %w", listing.ID, err)
	}

	return &model.ProcessedListing{ID: listing.ID, ExtractedFields: *fields}, nil
}

// ExtractAll fans out one request per listing with a staggered start to
// respect upstream rate limits. A single listing's failure never aborts
// its siblings; failed listings are simply absent from the result.
func (e *Extractor) ExtractAll(ctx context.Context, listings []model.RawListing) []model.ProcessedListing {
	results := make([]*model.ProcessedListing, len(listings))
	var wg sync.WaitGroup

	for i, listing := range listings {
		wg.Add(1)
		go func(i int, listing model.RawListing) {
			defer wg.Done()
			// Stagger requests to avoid rate limiting
			time.Sleep(time.Duration(i*e.staggerMS) * time.Millisecond)

			log.Printf("Processing listing %s (%d/%d)", listing.ID, i+1, len(listings))
			processed, err := e.Extract(ctx, listing)
			if err != nil {
				log.Printf("Warning: extraction failed for listing %s: %v", listing.ID, err)
				return
			}
			results[i] = processed
		}(i, listing)
	}
	wg.Wait()

	out := make([]model.ProcessedListing, 0, len(listings))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	log.Printf("Extraction batch done: %d succeeded, %d failed", len(out), len(listings)-len(out))
	return out
}

// validateExtractedFields enforces the extraction schema. Punteggio from
// the model is only a placeholder and gets clamped here; the scorer
// overwrites it entirely later.
func validateExtractedFields(f *model.ExtractedFields) error {
	switch f.Tipologia {
	case model.TipologiaIntero, model.TipologiaStanzeMultiple, model.TipologiaStanzaSingola:
	default:
		return fmt.Errorf("invalid tipologia: %q", f.Tipologia)
	}

	switch f.Riscaldamento {
	case model.RiscaldamentoCentralizzato, model.RiscaldamentoAutonomo, model.RiscaldamentoNonSpecificato:
	default:
		return fmt.Errorf("invalid riscaldamento: %q", f.Riscaldamento)
	}

	switch f.LivelloArredamento {
	case model.ArredamentoNon, model.ArredamentoParziale, model.ArredamentoCompleto, model.ArredamentoNonSpecificato:
	default:
		return fmt.Errorf("invalid livelloArredamento: %q", f.LivelloArredamento)
	}

	if f.Vincoli == nil {
		f.Vincoli = model.StringList{}
	}

	if f.Punteggio < 0 {
		f.Punteggio = 0
	}
	if f.Punteggio > 100 {
		f.Punteggio = 100
	}

	return nil
}

func buildExtractionPrompt(l model.RawListing) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Di seguito trovi la descrizione in italiano di un annuncio di affitto, accompagnata da immagini dell'appartamento.
Esegui il parsing di questi dati e restituisci le informazioni richieste in JSON. Non includere altri campi o informazioni non richieste.

Presta particolare attenzione al campo "Descrizione" dell'input, che contiene la descrizione dell'annuncio.

Titolo: %s
Costo affitto: %d euro/mese
Altri costi: %s
Descrizione: %s
Caratteristiche: %s
Altre informazioni: %s

Valuta i seguenti punti:
- Cerca di capire se l'annuncio riguarda l'intero appartamento ("intero"), o eccezionalmente almeno due stanze singole ("stanze_multiple"). Se l'annuncio riguarda una sola camera inserisci "stanza_singola".
- Estrai l'indirizzo completo con più precisione possibile, includendo **SOLO DOVE PUÒ ESSERE DETERMINATO CON CERTEZZA** numero civico, via, cap, etc.
- Determina, se possibile, il costo mensile delle spese condominiali, altrimenti null. Se fosse specificato espressamente come incluso nell'affitto, metti 0.
- Per ogni utenza (elettricità, gas, Tassa Rifiuti [TARI], internet), specifica se è inclusa (true/false), se non sei sicuro, lascia null.
- Controlla se l'appartamento ha l'aria condizionata (true/false), se non specificato, metti false.
- Di che tipo è il riscaldamento? "centralizzato" o "autonomo" (o "nonSpecificato" se non appare o non è chiaro).
- Stima un costo mensile totale (numero). Somma prezzo + condominio + utenze escluse se necessario. (per le utenze, usa una media di 100 euro al mese per elettricità, 10 euro per il gas in caso il riscaldamento fosse centralizzato, 50 altrimenti).
- Determina (sia dalla descrizione che dalle foto) un livello di arredamento: "nonArredato", "parzialmenteArredato" o "completamenteArredato" (oppure "nonSpecificato" se manca).
- Se nel testo compare la durata del contratto, mettila (es. "12 mesi", "18 mesi", "4+4"). Altrimenti null.
- Se nel testo compare una cauzione, metti il costo in euro, eventualmente calcolata (es. se appare "2 mensilità" metti il prezzo dell affitto raddoppiato, se appare "3000 euro" metti 3000). Altrimenti null.
- Se ci sono eventuali vincoli speciali ("no studenti", "solo ragazze", ecc.), mettili in un array di stringhe. Se non ci sono vincoli, lascia l'array vuoto.
- Infine, assegna un punteggio da 0 a 100 in base alla qualità dell'immobile, considerando prezzo, posizione, arredamento, etc. 100 è il massimo punteggio possibile, 0 il minimo. Non usare mai punteggi negativi o superiori a 100.

Rispondi con un oggetto JSON con esattamente questi campi:
{"tipologia": "intero"|"stanze_multiple"|"stanza_singola", "indirizzo": string, "speseCondominiali": number|null, "utenzeIncluse": {"elettricita": bool|null, "gas": bool|null, "TARI": bool|null, "internet": bool|null}, "ariaCondizionata": bool, "riscaldamento": "centralizzato"|"autonomo"|"nonSpecificato", "costoMensileStimato": number, "livelloArredamento": "nonArredato"|"parzialmenteArredato"|"completamenteArredato"|"nonSpecificato", "durataContratto": string|null, "cauzione": number|null, "vincoli": string[], "punteggio": number}
`,
		l.Title,
		l.Price,
		joinEntries(l.Costs),
		l.Description,
		joinEntries(l.Features),
		strings.Join(l.Others, ", "),
	)

	return b.String()
}

// joinEntries renders a label→value mapping as "k: v, k: v" with sorted
// labels so prompts are deterministic
func joinEntries(m model.StringMap) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
