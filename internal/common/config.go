// Package common provides shared utilities for Arth-Mitra
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Arth-Mitra
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Knowledge   KnowledgeConfig `toml:"knowledge"`
	Gold        GoldConfig      `toml:"gold"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	AllowedOrigin []string `toml:"allowed_origins"`
}

// KnowledgeConfig controls document ingestion and retrieval.
type KnowledgeConfig struct {
	DocumentsDir string   `toml:"documents_dir"`
	StorePath    string   `toml:"store_path"`
	ChunkSize    int      `toml:"chunk_size"`
	ChunkOverlap int      `toml:"chunk_overlap"`
	TopK         int      `toml:"top_k"`
	AutoIndex    bool     `toml:"auto_index"`
	Exclude      []string `toml:"exclude"` // basenames never indexed (the price CSV is answered structurally)
}

// GoldConfig controls the structured gold price lookup.
type GoldConfig struct {
	CSVPath         string `toml:"csv_path"`
	MaxFallbackDays int    `toml:"max_fallback_days"`
	ReloadSchedule  string `toml:"reload_schedule"` // standard 5-field cron; empty disables reloads
}

// ClientsConfig holds generation provider configurations
type ClientsConfig struct {
	Gemini     GeminiConfig     `toml:"gemini"`
	OpenRouter OpenRouterConfig `toml:"openrouter"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	EmbeddingModel string  `toml:"embedding_model"`
	Temperature    float64 `toml:"temperature"`
	RateLimit      int     `toml:"rate_limit"`
	Timeout        string  `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// OpenRouterConfig holds OpenRouter (OpenAI-compatible) API configuration
type OpenRouterConfig struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	EmbeddingModel string  `toml:"embedding_model"`
	Temperature    float64 `toml:"temperature"`
	RateLimit      int     `toml:"rate_limit"`
	Timeout        string  `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *OpenRouterConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8000,
			AllowedOrigin: []string{"http://localhost:3000"},
		},
		Knowledge: KnowledgeConfig{
			DocumentsDir: "documents",
			StorePath:    "data/knowledge",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         5,
			AutoIndex:    true,
			Exclude:      []string{"gold_data.csv"},
		},
		Gold: GoldConfig{
			CSVPath:         "documents/gold_data.csv",
			MaxFallbackDays: 7,
			ReloadSchedule:  "30 6 * * *",
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model:          "gemini-1.5-flash",
				EmbeddingModel: "text-embedding-004",
				Temperature:    0.3,
				RateLimit:      5,
				Timeout:        "60s",
			},
			OpenRouter: OpenRouterConfig{
				BaseURL:        "https://openrouter.ai/api/v1",
				Model:          "openai/gpt-4o-mini",
				EmbeddingModel: "openai/text-embedding-3-small",
				Temperature:    0.3,
				RateLimit:      5,
				Timeout:        "60s",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/arthmitra.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	applyConfigDefaults(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ARTHMITRA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ARTHMITRA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ARTHMITRA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ARTHMITRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("ARTHMITRA_DOCUMENTS_DIR"); dir != "" {
		config.Knowledge.DocumentsDir = dir
		config.Gold.CSVPath = filepath.Join(dir, filepath.Base(config.Gold.CSVPath))
	}

	if path := os.Getenv("ARTHMITRA_DATA_PATH"); path != "" {
		config.Knowledge.StorePath = filepath.Join(path, "knowledge")
	}

	if path := os.Getenv("ARTHMITRA_GOLD_CSV"); path != "" {
		config.Gold.CSVPath = path
	}

	if v := os.Getenv("ARTHMITRA_AUTO_INDEX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Knowledge.AutoIndex = b
		}
	}

	if v := os.Getenv("ARTHMITRA_GEMINI_MODEL"); v != "" {
		config.Clients.Gemini.Model = v
	}
	if v := os.Getenv("ARTHMITRA_OPENROUTER_MODEL"); v != "" {
		config.Clients.OpenRouter.Model = v
	}
}

// applyConfigDefaults repairs zero values a partial config file may leave behind.
func applyConfigDefaults(config *Config) {
	if config.Knowledge.ChunkSize <= 0 {
		config.Knowledge.ChunkSize = 1000
	}
	if config.Knowledge.ChunkOverlap < 0 || config.Knowledge.ChunkOverlap >= config.Knowledge.ChunkSize {
		config.Knowledge.ChunkOverlap = config.Knowledge.ChunkSize / 5
	}
	if config.Knowledge.TopK <= 0 {
		config.Knowledge.TopK = 5
	}
	if config.Gold.MaxFallbackDays < 0 {
		config.Gold.MaxFallbackDays = 7
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment or the configured fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":     {"GEMINI_API_KEY", "ARTHMITRA_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"openrouter_api_key": {"OPENROUTER_API_KEY", "ARTHMITRA_OPENROUTER_API_KEY"},
	}

	// Environment wins over the config file
	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
