package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/toto04/homescraper/internal/model"
)

// fakeAIClient records the requests it receives and returns canned fields
type fakeAIClient struct {
	mu       sync.Mutex
	requests []ExtractionRequest
	fields   func(req ExtractionRequest) (*model.ExtractedFields, error)
	enabled  bool
}

func (f *fakeAIClient) ExtractListing(ctx context.Context, req ExtractionRequest) (*model.ExtractedFields, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.fields(req)
}

func (f *fakeAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (f *fakeAIClient) IsEnabled() bool { return f.enabled }

func validFields() *model.ExtractedFields {
	return &model.ExtractedFields{
		Tipologia:          model.TipologiaIntero,
		Indirizzo:          "Via Roma 1, Milano",
		Riscaldamento:      model.RiscaldamentoAutonomo,
		LivelloArredamento: model.ArredamentoCompleto,
		Punteggio:          60,
	}
}

func TestExtractFiltersImages(t *testing.T) {
	fake := &fakeAIClient{enabled: true, fields: func(req ExtractionRequest) (*model.ExtractedFields, error) {
		return validFields(), nil
	}}
	e := NewExtractor(fake, 0)

	listing := model.RawListing{
		ID: "123",
		Images: model.StringList{
			"https://img.example.com/1.jpg",
			"not-a-url",
			"http://img.example.com/2.jpg",
			"https://img.example.com/3.jpg",
			"https://img.example.com/4.jpg",
			"https://img.example.com/5.jpg",
			"https://img.example.com/6.jpg",
		},
	}

	if _, err := e.Extract(context.Background(), listing); err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	got := fake.requests[0].ImageURLs
	if len(got) != 5 {
		t.Fatalf("expected 5 images, got %d: %v", len(got), got)
	}
	for _, img := range got {
		if img == "not-a-url" {
			t.Errorf("non-URL image was not filtered out")
		}
	}
	if got[4] != "https://img.example.com/5.jpg" {
		t.Errorf("image cap did not preserve order: %v", got)
	}
}

func TestExtractPromptContents(t *testing.T) {
	fake := &fakeAIClient{enabled: true, fields: func(req ExtractionRequest) (*model.ExtractedFields, error) {
		return validFields(), nil
	}}
	e := NewExtractor(fake, 0)

	listing := model.RawListing{
		ID:          "42",
		Title:       "Bilocale luminoso",
		Price:       1200,
		Description: "Zona Navigli, quinto piano",
		Features:    model.StringMap{"Superficie": "65 m²"},
		Costs:       model.StringMap{"Spese condominio": "100 €"},
		Others:      model.StringList{"Balcone", "Ascensore"},
	}

	if _, err := e.Extract(context.Background(), listing); err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	prompt := fake.requests[0].Prompt
	for _, want := range []string{
		"Bilocale luminoso",
		"1200 euro/mese",
		"Spese condominio: 100 €",
		"Zona Navigli, quinto piano",
		"Superficie: 65 m²",
		"Balcone, Ascensore",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if fake.requests[0].System != extractionSystemPrompt {
		t.Errorf("system prompt = %q", fake.requests[0].System)
	}
}

func TestExtractRejectsInvalidEnums(t *testing.T) {
	fake := &fakeAIClient{enabled: true, fields: func(req ExtractionRequest) (*model.ExtractedFields, error) {
		f := validFields()
		f.Tipologia = "villa"
		return f, nil
	}}
	e := NewExtractor(fake, 0)

	if _, err := e.Extract(context.Background(), model.RawListing{ID: "1"}); err == nil {
		t.Fatal("expected validation error for unknown tipologia")
	}
}

func TestExtractClampsPunteggio(t *testing.T) {
	fake := &fakeAIClient{enabled: true, fields: func(req ExtractionRequest) (*model.ExtractedFields, error) {
		f := validFields()
		f.Punteggio = 250
		return f, nil
	}}
	e := NewExtractor(fake, 0)

	got, err := e.Extract(context.Background(), model.RawListing{ID: "1"})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got.Punteggio != 100 {
		t.Errorf("punteggio = %v, want 100", got.Punteggio)
	}
	if got.Vincoli == nil {
		t.Error("vincoli should be normalized to an empty list")
	}
}

func TestExtractDisabledClient(t *testing.T) {
	fake := &fakeAIClient{enabled: false, fields: func(req ExtractionRequest) (*model.ExtractedFields, error) {
		t.Fatal("disabled client must not be called")
		return nil, nil
	}}
	e := NewExtractor(fake, 0)

	if _, err := e.Extract(context.Background(), model.RawListing{ID: "1"}); err == nil {
		t.Fatal("expected error with disabled client")
	}
}

func TestExtractAllIsolatesFailures(t *testing.T) {
	fake := &fakeAIClient{enabled: true, fields: func(req ExtractionRequest) (*model.ExtractedFields, error) {
		if strings.Contains(req.Prompt, "rotto") {
			f := validFields()
			f.Riscaldamento = "stufa"
			return f, nil
		}
		return validFields(), nil
	}}
	e := NewExtractor(fake, 0)

	listings := []model.RawListing{
		{ID: "1", Title: "ok"},
		{ID: "2", Title: "rotto"},
		{ID: "3", Title: "ok"},
	}

	got := e.ExtractAll(context.Background(), listings)
	if len(got) != 2 {
		t.Fatalf("expected 2 processed listings, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("unexpected ids: %s, %s", got[0].ID, got[1].ID)
	}
}
