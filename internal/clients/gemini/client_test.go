package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/bobmcallan/arthmitra/internal/models"
	"github.com/bobmcallan/arthmitra/internal/services/composer"
)

func response(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}},
	}
}

func TestContentFromResponse_JoinsTextParts(t *testing.T) {
	got, err := contentFromResponse(response(
		&genai.Part{Text: "PPF has a "},
		&genai.Part{Text: "15 year lock-in."},
	))
	require.NoError(t, err)

	require.True(t, got.IsBlocks())
	assert.Equal(t, []models.ContentBlock{models.TextBlock("PPF has a 15 year lock-in.")}, got.BlockList())
	assert.Equal(t, "PPF has a 15 year lock-in.", composer.ExtractText(got))
}

func TestContentFromResponse_ThoughtsAreSeparateBlocks(t *testing.T) {
	got, err := contentFromResponse(response(
		&genai.Part{Text: "considering 80C", Thought: true},
		&genai.Part{Text: "Invest in ELSS."},
	))
	require.NoError(t, err)

	blocks := got.BlockList()
	require.Len(t, blocks, 2)
	assert.Equal(t, blockTypeThinking, blocks[0].Type)
	assert.Equal(t, "Invest in ELSS.", composer.ExtractText(got))
}

func TestContentFromResponse_Empty(t *testing.T) {
	_, err := contentFromResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = contentFromResponse(nil)
	assert.Error(t, err)
}

func TestAnswerText(t *testing.T) {
	assert.Equal(t, "ab", answerText(response(
		&genai.Part{Text: "a"},
		&genai.Part{Text: "hidden", Thought: true},
		&genai.Part{Text: "b"},
	)))
	assert.Equal(t, "", answerText(&genai.GenerateContentResponse{}))
}

func TestNewClient_Options(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key",
		WithModel("gemini-2.0-flash"),
		WithEmbeddingModel(""),
		WithTemperature(0.1),
		WithRateLimit(2),
		WithTimeout(5*time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", c.model)
	assert.Equal(t, DefaultEmbeddingModel, c.embeddingModel, "empty model keeps the default")
	assert.InDelta(t, 0.1, c.temperature, 1e-6)
	assert.Equal(t, 5*time.Second, c.timeout)
	assert.Equal(t, "Google Gemini (gemini-2.0-flash)", c.ModelName())
	assert.Equal(t, "gemini/text-embedding-004", c.EmbeddingModelName())
}
