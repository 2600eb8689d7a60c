package assistant

import (
	"context"
	"fmt"

	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
	"github.com/bobmcallan/arthmitra/internal/services/composer"
	"github.com/bobmcallan/arthmitra/internal/services/intent"
)

// Stream answers query as a sequence of events. Gold price answers arrive as
// a single answer event; generated answers as tokens. Both finish with one
// sources event followed by done. An error returned by emit stops the stream
// and is returned unchanged.
func (s *Service) Stream(ctx context.Context, query string, profile *models.UserProfile, emit func(models.StreamEvent) error) error {
	if !s.Ready() {
		return models.ErrNotInitialized
	}

	if in := intent.Classify(query); in.Kind == intent.KindGoldPrice {
		answer := s.goldAnswer(in.Date)
		if err := emit(models.StreamEvent{Type: models.StreamAnswer, Text: answer.Response}); err != nil {
			return err
		}
		return finish(emit, answer.Sources)
	}

	prompt, sources, err := s.prepare(ctx, query, profile)
	if err != nil {
		return err
	}

	streamer, ok := s.generator.(interfaces.StreamingGenerator)
	if !ok {
		content, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return fmt.Errorf("%w: %w", models.ErrGeneration, err)
		}
		if err := emit(models.StreamEvent{Type: models.StreamToken, Text: composer.ExtractText(content)}); err != nil {
			return err
		}
		return finish(emit, sources)
	}

	var emitErr error
	err = streamer.GenerateStream(ctx, prompt, func(token string) error {
		if token == "" {
			return nil
		}
		emitErr = emit(models.StreamEvent{Type: models.StreamToken, Text: token})
		return emitErr
	})
	if emitErr != nil {
		return emitErr
	}
	if err != nil {
		s.logger.Error().Err(err).Str("model", s.generator.ModelName()).Msg("Streaming generation failed")
		return fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}

	return finish(emit, sources)
}

func finish(emit func(models.StreamEvent) error, sources []string) error {
	if err := emit(models.StreamEvent{Type: models.StreamSources, Sources: sources}); err != nil {
		return err
	}
	return emit(models.StreamEvent{Type: models.StreamDone})
}
