// Package assistant routes questions to the gold price lookup or to
// retrieval-augmented generation.
package assistant

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
	"github.com/bobmcallan/arthmitra/internal/services/composer"
	"github.com/bobmcallan/arthmitra/internal/services/intent"
)

// Service implements AssistantService. It starts uninitialized and answers
// nothing until Initialize succeeds.
type Service struct {
	prices    interfaces.PriceProvider
	kb        interfaces.KnowledgeBase
	generator interfaces.Generator
	composer  *composer.Composer
	logger    *common.Logger

	documentsDir    string
	autoIndex       bool
	topK            int
	maxFallbackDays int

	initMu sync.Mutex
	ready  atomic.Bool
}

// NewService creates an assistant. kb may be nil, in which case every
// question is answered from general knowledge. generator may be nil, but
// Initialize then fails with ErrNoGenerator.
func NewService(prices interfaces.PriceProvider, kb interfaces.KnowledgeBase, generator interfaces.Generator, cfg *common.Config, logger *common.Logger) *Service {
	return &Service{
		prices:          prices,
		kb:              kb,
		generator:       generator,
		composer:        composer.New(nil),
		logger:          logger,
		documentsDir:    cfg.Knowledge.DocumentsDir,
		autoIndex:       cfg.Knowledge.AutoIndex,
		topK:            cfg.Knowledge.TopK,
		maxFallbackDays: cfg.Gold.MaxFallbackDays,
	}
}

// Initialize loads the price series, indexes new documents and marks the
// service ready. Calling it again after success is a no-op.
func (s *Service) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.ready.Load() {
		return nil
	}
	if s.generator == nil {
		return models.ErrNoGenerator
	}

	// A missing price file degrades to "no data" answers; Reload logs the cause
	_ = s.prices.Reload()

	if s.autoIndex && s.kb != nil && s.documentsDir != "" {
		results, err := s.kb.AutoIndex(ctx, s.documentsDir)
		if err != nil {
			s.logger.Warn().Err(err).Str("dir", s.documentsDir).Msg("Document auto-index failed")
		} else if len(results) > 0 {
			indexed := 0
			for _, r := range results {
				if !r.Skipped {
					indexed++
				}
			}
			s.logger.Info().Int("indexed", indexed).Int("failed", len(results)-indexed).Msg("Auto-index complete")
		}
	}

	s.ready.Store(true)
	s.logger.Info().Str("model", s.generator.ModelName()).Msg("Assistant ready")
	return nil
}

// Ready reports whether Initialize has completed.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Handle answers one question. Gold price questions with a date are answered
// from the price series without calling the generator.
func (s *Service) Handle(ctx context.Context, query string, profile *models.UserProfile) (models.Answer, error) {
	if !s.Ready() {
		return models.Answer{}, models.ErrNotInitialized
	}

	if in := intent.Classify(query); in.Kind == intent.KindGoldPrice {
		s.logger.Debug().Str("date", in.Date.String()).Msg("Answering from gold price series")
		return s.goldAnswer(in.Date), nil
	}

	prompt, sources, err := s.prepare(ctx, query, profile)
	if err != nil {
		return models.Answer{}, err
	}

	content, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("model", s.generator.ModelName()).Msg("Generation failed")
		return models.Answer{}, fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}

	return models.Answer{Response: composer.ExtractText(content), Sources: sources}, nil
}

// prepare builds the prompt and the citations for the generation path.
func (s *Service) prepare(ctx context.Context, query string, profile *models.UserProfile) (string, []string, error) {
	count, err := s.documentCount(ctx)
	if err != nil {
		return "", nil, err
	}

	if count == 0 {
		prompt, err := s.composer.BuildPrompt(profile, nil, query)
		if err != nil {
			return "", nil, err
		}
		return prompt, []string{models.SourceGeneralKnowledge}, nil
	}

	passages, err := s.kb.Retrieve(ctx, query, s.topK)
	if err != nil {
		return "", nil, fmt.Errorf("failed to retrieve passages: %w", err)
	}

	prompt, err := s.composer.BuildPrompt(profile, passages, query)
	if err != nil {
		return "", nil, err
	}
	return prompt, composer.Sources(passages), nil
}

func (s *Service) documentCount(ctx context.Context) (int, error) {
	if s.kb == nil {
		return 0, nil
	}
	n, err := s.kb.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count indexed documents: %w", err)
	}
	return n, nil
}

// GoldPrice looks up the price for date, falling back to the nearest
// trading day within the configured window.
func (s *Service) GoldPrice(_ context.Context, date models.Date) (models.PriceMatch, bool, error) {
	if !s.Ready() {
		return models.PriceMatch{}, false, models.ErrNotInitialized
	}
	match, ok := s.prices.Snapshot().Nearest(date.Time(), s.maxFallbackDays)
	return match, ok, nil
}

// Status reports readiness, index size and the price series coverage.
func (s *Service) Status(ctx context.Context) models.Status {
	status := models.Status{Ready: s.Ready()}

	if s.generator != nil {
		status.Model = s.generator.ModelName()
	}

	if n, err := s.documentCount(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Status: document count unavailable")
	} else {
		status.IndexedDocumentCount = n
	}

	series := s.prices.Snapshot()
	status.PriceRecords = series.Len()
	if first, last, ok := series.Range(); ok {
		status.FirstPriceDate = first
		status.LastPriceDate = last
	}

	return status
}

// Ensure Service implements AssistantService
var _ interfaces.AssistantService = (*Service)(nil)
