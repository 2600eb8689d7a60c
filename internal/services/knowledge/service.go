package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
)

const (
	// embedBatchSize bounds the number of chunks sent per embedding call.
	embedBatchSize = 64

	metaEmbeddingModel = "embedding_model"
)

// chunkNamespace scopes deterministic chunk ids, so re-indexing a file overwrites its chunks.
var chunkNamespace = uuid.MustParse("8f0e4b52-3c1d-4d8e-9a57-2b6f1c0e7d41")

// Service implements interfaces.KnowledgeBase over a vector store.
type Service struct {
	store    interfaces.VectorStore
	meta     interfaces.KeyValueStorage
	embedder interfaces.Embedder
	splitter *Splitter
	exclude  map[string]struct{}
	logger   *common.Logger

	mu sync.Mutex // serialises indexing
}

// NewService creates a knowledge service. meta may be nil, which disables the
// embedding-model consistency check.
func NewService(store interfaces.VectorStore, meta interfaces.KeyValueStorage, embedder interfaces.Embedder, cfg common.KnowledgeConfig, logger *common.Logger) *Service {
	exclude := make(map[string]struct{}, len(cfg.Exclude))
	for _, name := range cfg.Exclude {
		exclude[strings.ToLower(name)] = struct{}{}
	}
	return &Service{
		store:    store,
		meta:     meta,
		embedder: embedder,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		exclude:  exclude,
		logger:   logger,
	}
}

// Count returns the number of indexed chunks.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Sources returns the basenames of indexed files.
func (s *Service) Sources(ctx context.Context) ([]string, error) {
	return s.store.Sources(ctx)
}

// Retrieve returns at most k passages ranked by similarity to query.
// An empty index returns no passages without calling the embedder.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]models.Passage, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if n == 0 || k <= 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}

	hits, err := s.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	passages := make([]models.Passage, len(hits))
	for i, h := range hits {
		passages[i] = models.Passage{Text: h.Chunk.Text, Source: h.Chunk.Source, Page: h.Chunk.Page}
	}
	return passages, nil
}

// Excluded reports whether path's basename is configured never to be indexed.
func (s *Service) Excluded(path string) bool {
	_, skip := s.exclude[strings.ToLower(filepath.Base(path))]
	return skip
}

// IndexFile loads, splits, embeds and stores one file.
// Excluded basenames fail with ErrExcludedFile.
func (s *Service) IndexFile(ctx context.Context, path string) (models.IndexResult, error) {
	if s.Excluded(path) {
		result := models.IndexResult{File: filepath.Base(path), Skipped: true}
		result.Message = fmt.Sprintf("%s is excluded from the knowledge base", result.File)
		return result, fmt.Errorf("%w: %s", models.ErrExcludedFile, result.File)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEmbeddingModel(ctx); err != nil {
		return models.IndexResult{File: filepath.Base(path)}, err
	}
	return s.indexFile(ctx, path)
}

func (s *Service) indexFile(ctx context.Context, path string) (models.IndexResult, error) {
	start := time.Now()
	result := models.IndexResult{File: filepath.Base(path)}

	docs, err := LoadFile(path)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to index %s: %v", result.File, err)
		return result, err
	}

	chunks := s.chunk(docs)
	for startIdx := 0; startIdx < len(chunks); startIdx += embedBatchSize {
		batch := chunks[startIdx:min(startIdx+embedBatchSize, len(chunks))]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			result.Message = fmt.Sprintf("Failed to index %s: %v", result.File, err)
			return result, fmt.Errorf("failed to embed %s: %w", result.File, err)
		}
		if err := s.store.Upsert(ctx, batch, vectors); err != nil {
			result.Message = fmt.Sprintf("Failed to index %s: %v", result.File, err)
			return result, err
		}
	}

	result.Chunks = len(chunks)
	result.Duration = time.Since(start)
	result.Message = fmt.Sprintf("Indexed %d chunks from %s", len(chunks), result.File)

	s.logger.Info().
		Str("file", result.File).
		Int("documents", len(docs)).
		Int("chunks", result.Chunks).
		Dur("duration", result.Duration).
		Msg("Document indexed")

	return result, nil
}

// chunk splits documents and assigns deterministic ids.
func (s *Service) chunk(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, d := range docs {
		for _, text := range s.splitter.Split(d.Text) {
			index := len(chunks)
			chunks = append(chunks, models.Chunk{
				ID:     chunkID(d.Source, d.Page, index),
				Source: d.Source,
				Page:   d.Page,
				Index:  index,
				Text:   text,
			})
		}
	}
	return chunks
}

// chunkID keys on the full source path; same-named files in different
// directories must not share ids.
func chunkID(source string, page *int, index int) string {
	key := filepath.ToSlash(filepath.Clean(source)) + "#" + strconv.Itoa(index)
	if page != nil {
		key += "#p" + strconv.Itoa(*page)
	}
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

// AutoIndex indexes supported files under dir that are not indexed yet,
// skipping excluded basenames. A missing dir is created and left empty.
// Individual file failures are reported in the results and do not stop the walk.
func (s *Service) AutoIndex(ctx context.Context, dir string) ([]models.IndexResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create documents directory: %w", err)
		}
		s.logger.Info().Str("dir", dir).Msg("Created documents directory; add PDF/CSV/TXT/MD files for the knowledge base")
		return nil, nil
	}

	if err := s.checkEmbeddingModel(ctx); err != nil {
		return nil, err
	}

	indexed, err := s.store.Paths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed sources: %w", err)
	}
	known := make(map[string]struct{}, len(indexed))
	for _, p := range indexed {
		known[filepath.Clean(p)] = struct{}{}
	}

	var pending []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsSupported(path) {
			return nil
		}
		if s.Excluded(path) {
			return nil
		}
		if _, done := known[filepath.Clean(path)]; done {
			return nil
		}
		pending = append(pending, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents directory: %w", err)
	}

	if len(pending) == 0 {
		s.logger.Info().Int("files", len(known)).Msg("Knowledge base up to date")
		return nil, nil
	}

	s.logger.Info().Int("files", len(pending)).Msg("Indexing new documents")

	results := make([]models.IndexResult, 0, len(pending))
	for _, path := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := s.indexFile(ctx, path)
		if err != nil {
			s.logger.Warn().Str("file", result.File).Err(err).Msg("Failed to index document")
			result.Skipped = true
		}
		results = append(results, result)
	}
	return results, nil
}

// Reindex clears the index and indexes dir from scratch.
func (s *Service) Reindex(ctx context.Context, dir string) ([]models.IndexResult, error) {
	s.mu.Lock()
	if err := s.store.Clear(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	return s.AutoIndex(ctx, dir)
}

// checkEmbeddingModel clears the index when it was built with a different
// embedding model, since those vectors cannot be compared with new queries.
func (s *Service) checkEmbeddingModel(ctx context.Context) error {
	if s.meta == nil {
		return nil
	}
	current := s.embedder.EmbeddingModelName()

	stored, err := s.meta.Get(ctx, metaEmbeddingModel)
	if err == nil && stored == current {
		return nil
	}

	if err == nil && stored != current {
		s.logger.Warn().Str("stored", stored).Str("current", current).Msg("Embedding model changed; clearing knowledge index")
		if err := s.store.Clear(ctx); err != nil {
			return err
		}
	}

	return s.meta.Set(ctx, metaEmbeddingModel, current)
}

// Ensure Service implements KnowledgeBase
var _ interfaces.KnowledgeBase = (*Service)(nil)
