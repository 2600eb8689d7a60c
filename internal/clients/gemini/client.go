// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
)

const (
	DefaultModel          = "gemini-1.5-flash"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultTemperature    = 0.3
	DefaultRateLimit      = 5
	DefaultTimeout        = 60 * time.Second

	// maxEmbedBatch is the Gemini API limit on texts per embedding request.
	maxEmbedBatch = 100

	blockTypeThinking = "thinking"
)

// Client generates answers and embeddings with Gemini.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	temperature    float32
	baseURL        string
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the generation model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithEmbeddingModel sets the embedding model
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = float32(t)
	}
}

// WithRateLimit sets the maximum requests per second
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:          DefaultModel,
		embeddingModel: DefaultEmbeddingModel,
		temperature:    DefaultTemperature,
		timeout:        DefaultTimeout,
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:         common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions.BaseURL = c.baseURL
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = genaiClient

	return c, nil
}

// ModelName identifies the provider for status reporting
func (c *Client) ModelName() string {
	return fmt.Sprintf("Google Gemini (%s)", c.model)
}

// EmbeddingModelName identifies the vector space of Embed output
func (c *Client) EmbeddingModelName() string {
	return "gemini/" + c.embeddingModel
}

// Generate produces an answer for prompt. Thought parts are returned as
// "thinking" blocks ahead of the joined answer text.
func (c *Client) Generate(ctx context.Context, prompt string) (models.GenerationContent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.GenerationContent{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Str("model", c.model).Int("prompt_chars", len(prompt)).Msg("Generating content")

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.generateConfig())
	if err != nil {
		return models.GenerationContent{}, fmt.Errorf("failed to generate content: %w", err)
	}

	return contentFromResponse(result)
}

// GenerateStream streams answer text to onToken as it arrives.
func (c *Client) GenerateStream(ctx context.Context, prompt string, onToken func(string) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Str("model", c.model).Msg("Streaming content")

	for result, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), c.generateConfig()) {
		if err != nil {
			return fmt.Errorf("failed to stream content: %w", err)
		}
		if text := answerText(result); text != "" {
			if err := onToken(text); err != nil {
				return err
			}
		}
	}
	return nil
}

// Embed returns one vector per text, batching requests as the API requires.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		batch := texts[start:end]

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		contents := make([]*genai.Content, len(batch))
		for i, t := range batch {
			contents[i] = genai.NewContentFromText(t, genai.RoleUser)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.Models.EmbedContent(reqCtx, c.embeddingModel, contents, nil)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to embed content: %w", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(batch), len(resp.Embeddings))
		}
		for _, e := range resp.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}

	c.logger.Debug().Str("model", c.embeddingModel).Int("texts", len(texts)).Msg("Embedded texts")
	return vectors, nil
}

func (c *Client) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
}

// contentFromResponse maps the first candidate to a structured payload.
func contentFromResponse(result *genai.GenerateContentResponse) (models.GenerationContent, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return models.GenerationContent{}, fmt.Errorf("no content generated")
	}

	var blocks []models.ContentBlock
	var answer strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			blocks = append(blocks, models.ContentBlock{Type: blockTypeThinking, Text: part.Text})
			continue
		}
		answer.WriteString(part.Text)
	}
	if answer.Len() > 0 {
		blocks = append(blocks, models.TextBlock(answer.String()))
	}

	return models.Blocks(blocks...), nil
}

// answerText joins the non-thought text of a streamed chunk.
func answerText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// Ensure Client implements the generation and embedding interfaces
var (
	_ interfaces.StreamingGenerator = (*Client)(nil)
	_ interfaces.Embedder           = (*Client)(nil)
)
