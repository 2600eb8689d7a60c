package interfaces

import (
	"context"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// VectorStore persists embedded chunks and answers similarity queries.
type VectorStore interface {
	// Upsert stores chunks with their vectors; len(chunks) must equal len(vectors).
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error

	// Search returns at most k chunks ordered by descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Sources returns the distinct file basenames already indexed.
	Sources(ctx context.Context) ([]string, error)

	// Paths returns the distinct source paths already indexed, as they were stored.
	Paths(ctx context.Context) ([]string, error)

	// Clear removes every chunk.
	Clear(ctx context.Context) error
}

// KeyValueStorage holds small index metadata values.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
