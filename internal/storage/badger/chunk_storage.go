package badger

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/models"
)

// ChunkRecord is the persisted form of an embedded chunk.
type ChunkRecord struct {
	ID        string `badgerhold:"key"`
	Source    string `badgerholdIndex:"Source"`
	Page      *int
	Index     int
	Text      string
	Vector    []float32
	CreatedAt time.Time
}

func (r ChunkRecord) chunk() models.Chunk {
	return models.Chunk{ID: r.ID, Source: r.Source, Page: r.Page, Index: r.Index, Text: r.Text}
}

type cachedChunk struct {
	record ChunkRecord
	norm   float64
}

// ChunkStorage persists chunks in BadgerHold and serves similarity search from
// an in-memory copy loaded at open.
type ChunkStorage struct {
	store  *Store
	logger *common.Logger

	mu    sync.RWMutex
	cache map[string]cachedChunk
}

// NewChunkStorage opens chunk storage and loads every stored chunk into memory.
func NewChunkStorage(store *Store, logger *common.Logger) (*ChunkStorage, error) {
	var records []ChunkRecord
	if err := store.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	cache := make(map[string]cachedChunk, len(records))
	for _, r := range records {
		cache[r.ID] = cachedChunk{record: r, norm: norm(r.Vector)}
	}

	logger.Debug().Int("chunks", len(cache)).Msg("Chunk cache loaded")

	return &ChunkStorage{store: store, logger: logger, cache: cache}, nil
}

// Upsert stores chunks with their vectors.
func (s *ChunkStorage) Upsert(_ context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	now := time.Now()
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk %d of %s has no id", c.Index, c.Source)
		}
		records[i] = ChunkRecord{
			ID:        c.ID,
			Source:    c.Source,
			Page:      c.Page,
			Index:     c.Index,
			Text:      c.Text,
			Vector:    vectors[i],
			CreatedAt: now,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range records {
		if err := s.store.db.Upsert(records[i].ID, &records[i]); err != nil {
			return fmt.Errorf("failed to save chunk '%s': %w", records[i].ID, err)
		}
		s.cache[records[i].ID] = cachedChunk{record: records[i], norm: norm(records[i].Vector)}
	}

	s.logger.Debug().Int("chunks", len(records)).Msg("Chunks saved")
	return nil
}

// Search returns at most k chunks by descending cosine similarity to vector.
// Ties are ordered by source, then chunk index, so results are stable.
func (s *ChunkStorage) Search(_ context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	qn := norm(vector)

	s.mu.RLock()
	hits := make([]models.ScoredChunk, 0, len(s.cache))
	for _, c := range s.cache {
		hits = append(hits, models.ScoredChunk{
			Chunk: c.record.chunk(),
			Score: cosine(vector, qn, c.record.Vector, c.norm),
		})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Chunk.Source != hits[j].Chunk.Source {
			return hits[i].Chunk.Source < hits[j].Chunk.Source
		}
		return hits[i].Chunk.Index < hits[j].Chunk.Index
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *ChunkStorage) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache), nil
}

// Sources returns the distinct file basenames of stored chunks, sorted.
func (s *ChunkStorage) Sources(_ context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, c := range s.cache {
		seen[filepath.Base(c.record.Source)] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Paths returns the distinct stored source paths, sorted.
func (s *ChunkStorage) Paths(_ context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, c := range s.cache {
		seen[c.record.Source] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Clear removes every chunk.
func (s *ChunkStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.db.DeleteMatching(&ChunkRecord{}, nil); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	s.cache = make(map[string]cachedChunk)
	s.logger.Info().Msg("Knowledge index cleared")
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 for zero vectors and for vectors of different length.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if len(a) != len(b) || an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
