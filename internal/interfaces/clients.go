// Package interfaces defines service contracts for Arth-Mitra
package interfaces

import (
	"context"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// Generator produces an answer for a fully assembled prompt.
type Generator interface {
	// Generate returns the provider payload, plain or structured.
	Generate(ctx context.Context, prompt string) (models.GenerationContent, error)

	// ModelName identifies the provider and model for status reporting.
	ModelName() string
}

// StreamingGenerator is implemented by generators that can emit tokens incrementally.
type StreamingGenerator interface {
	Generator

	// GenerateStream calls onToken for each text fragment in order.
	// Returning an error from onToken aborts the stream with that error.
	GenerateStream(ctx context.Context, prompt string, onToken func(string) error) error
}

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbeddingModelName identifies the vector space; vectors from different models are not comparable.
	EmbeddingModelName() string
}
