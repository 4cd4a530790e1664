package service

import (
	"context"

	"github.com/toto04/homescraper/internal/model"
)

// ExtractionRequest carries everything one extraction call needs
type ExtractionRequest struct {
	System    string
	Prompt    string
	ImageURLs []string
}

// AIClient is the capability interface for the extraction model.
// The extractor depends on this, not on a concrete vendor client, so
// tests can substitute a deterministic fake.
type AIClient interface {
	// ExtractListing runs one extraction request and returns the parsed
	// schema fields, or an error when the model gave no usable result
	ExtractListing(ctx context.Context, req ExtractionRequest) (*model.ExtractedFields, error)

	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
