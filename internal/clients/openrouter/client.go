// Package openrouter provides a client for OpenRouter's OpenAI-compatible API
package openrouter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
)

const (
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultModel          = "openai/gpt-4o-mini"
	DefaultEmbeddingModel = "openai/text-embedding-3-small"
	DefaultTemperature    = 0.3
	DefaultRateLimit      = 5
	DefaultTimeout        = 60 * time.Second

	appTitle = "Arth-Mitra"
)

// Client generates answers and embeddings through OpenRouter.
type Client struct {
	client         openai.Client
	baseURL        string
	model          string
	embeddingModel string
	temperature    float64
	timeout        time.Duration
	maxRetries     int
	limiter        *rate.Limiter
	logger         *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithModel sets the chat model
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
		c.temperature = t
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

// WithMaxRetries sets how often the SDK retries failed requests
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new OpenRouter client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		model:          DefaultModel,
		embeddingModel: DefaultEmbeddingModel,
		temperature:    DefaultTemperature,
		timeout:        DefaultTimeout,
		maxRetries:     2,
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:         common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.client = openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithRequestTimeout(c.timeout),
		option.WithMaxRetries(c.maxRetries),
		option.WithHeader("X-Title", appTitle),
	)

	return c
}

// ModelName identifies the provider for status reporting
func (c *Client) ModelName() string {
	return fmt.Sprintf("OpenRouter (%s)", c.model)
}

// EmbeddingModelName identifies the vector space of Embed output
func (c *Client) EmbeddingModelName() string {
	return "openrouter/" + c.embeddingModel
}

func (c *Client) chatParams(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
}

// Generate produces an answer for prompt. OpenRouter returns plain text.
func (c *Client) Generate(ctx context.Context, prompt string) (models.GenerationContent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.GenerationContent{}, err
	}

	c.logger.Debug().Str("model", c.model).Int("prompt_chars", len(prompt)).Msg("Generating completion")

	resp, err := c.client.Chat.Completions.New(ctx, c.chatParams(prompt))
	if err != nil {
		return models.GenerationContent{}, fmt.Errorf("failed to generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.GenerationContent{}, fmt.Errorf("no completion choices returned")
	}

	return models.PlainText(resp.Choices[0].Message.Content), nil
}

// GenerateStream streams completion deltas to onToken.
func (c *Client) GenerateStream(ctx context.Context, prompt string, onToken func(string) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.logger.Debug().Str("model", c.model).Msg("Streaming completion")

	stream := c.client.Chat.Completions.NewStreaming(ctx, c.chatParams(prompt))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onToken(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("failed to stream completion: %w", err)
	}
	return nil
}

// Embed returns one vector per text in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		vectors[i] = v
	}

	c.logger.Debug().Str("model", c.embeddingModel).Int("texts", len(texts)).Msg("Embedded texts")
	return vectors, nil
}

// Ensure Client implements the generation and embedding interfaces
var (
	_ interfaces.StreamingGenerator = (*Client)(nil)
	_ interfaces.Embedder           = (*Client)(nil)
)
