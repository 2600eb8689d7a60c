package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/arthmitra/internal/clients/gemini"
	"github.com/bobmcallan/arthmitra/internal/clients/openrouter"
	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/services/assistant"
	"github.com/bobmcallan/arthmitra/internal/services/goldprice"
	"github.com/bobmcallan/arthmitra/internal/services/knowledge"
	"github.com/bobmcallan/arthmitra/internal/storage/badger"
)

// App holds all initialized services, clients, and the MCP server.
// It is the shared core used by cmd/arthmitra-server and cmd/arthmitra-eval.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       *badger.Store
	Chunks      *badger.ChunkStorage
	KV          *badger.KVStorage
	Generator   interfaces.Generator
	Embedder    interfaces.Embedder
	Provider    string
	Knowledge   *knowledge.Service // nil when no embedding provider is configured
	Prices      *goldprice.Provider
	Assistant   *assistant.Service
	MCPServer   *server.MCPServer
	StartupTime time.Time

	scheduler *cron.Cron
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, ARTHMITRA_CONFIG, then the binary dir, then config/.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("ARTHMITRA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "arthmitra.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/arthmitra.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and wires storage, providers, services and the MCP server.
// The assistant is not initialized; call Initialize before serving questions.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig wires the App from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()
	common.LoadVersionFromFile()

	ctx := context.Background()

	store, err := badger.NewStore(logger, config.Knowledge.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	chunks, err := badger.NewChunkStorage(store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load knowledge index: %w", err)
	}
	kv := badger.NewKVStorage(store, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Chunks:      chunks,
		KV:          kv,
		Prices:      goldprice.NewProvider(config.Gold.CSVPath, logger),
		StartupTime: startupStart,
	}

	a.selectProvider(ctx)

	var kb interfaces.KnowledgeBase
	if a.Embedder != nil {
		a.Knowledge = knowledge.NewService(chunks, kv, a.Embedder, config.Knowledge, logger)
		kb = a.Knowledge
	}

	a.Assistant = assistant.NewService(a.Prices, kb, a.Generator, config, logger)

	a.MCPServer = server.NewMCPServer(
		"arthmitra",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)
	a.registerTools()

	logger.Info().
		Str("provider", a.Provider).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// selectProvider prefers Gemini and falls back to OpenRouter. With neither key
// the App still starts, but Initialize reports ErrNoGenerator.
func (a *App) selectProvider(ctx context.Context) {
	cfg := a.Config.Clients
	logger := a.Logger

	if key, err := common.ResolveAPIKey("gemini_api_key", cfg.Gemini.APIKey); err == nil {
		client, err := gemini.NewClient(ctx, key,
			gemini.WithLogger(logger),
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithEmbeddingModel(cfg.Gemini.EmbeddingModel),
			gemini.WithTemperature(cfg.Gemini.Temperature),
			gemini.WithRateLimit(cfg.Gemini.RateLimit),
			gemini.WithTimeout(cfg.Gemini.GetTimeout()),
		)
		if err == nil {
			a.Generator, a.Embedder, a.Provider = client, client, "gemini"
			return
		}
		logger.Warn().Err(err).Msg("Failed to initialize Gemini client; trying OpenRouter")
	}

	if key, err := common.ResolveAPIKey("openrouter_api_key", cfg.OpenRouter.APIKey); err == nil {
		client := openrouter.NewClient(key,
			openrouter.WithLogger(logger),
			openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
			openrouter.WithModel(cfg.OpenRouter.Model),
			openrouter.WithEmbeddingModel(cfg.OpenRouter.EmbeddingModel),
			openrouter.WithTemperature(cfg.OpenRouter.Temperature),
			openrouter.WithRateLimit(cfg.OpenRouter.RateLimit),
			openrouter.WithTimeout(cfg.OpenRouter.GetTimeout()),
		)
		a.Generator, a.Embedder, a.Provider = client, client, "openrouter"
		return
	}

	logger.Warn().Msg("No API key configured - set GEMINI_API_KEY or OPENROUTER_API_KEY")
	a.Provider = "none"
}

// Initialize loads the price series and indexes new documents, then marks the assistant ready.
func (a *App) Initialize(ctx context.Context) error {
	return a.Assistant.Initialize(ctx)
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	a.StopScheduler()
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close knowledge store")
		}
		a.Store = nil
	}
}
