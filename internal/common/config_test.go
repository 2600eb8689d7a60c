package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8000)
	}
	assert.Equal(t, 5, cfg.Knowledge.TopK)
	assert.Equal(t, 1000, cfg.Knowledge.ChunkSize)
	assert.Equal(t, 200, cfg.Knowledge.ChunkOverlap)
	assert.Equal(t, 7, cfg.Gold.MaxFallbackDays)
	assert.Equal(t, "documents/gold_data.csv", cfg.Gold.CSVPath)
	assert.Contains(t, cfg.Knowledge.Exclude, "gold_data.csv")
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("ARTHMITRA_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_DocumentsDirMovesGoldCSV(t *testing.T) {
	t.Setenv("ARTHMITRA_DOCUMENTS_DIR", "/srv/docs")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "/srv/docs", cfg.Knowledge.DocumentsDir)
	assert.Equal(t, filepath.Join("/srv/docs", "gold_data.csv"), cfg.Gold.CSVPath)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arthmitra.toml")
	content := `
environment = "production"

[knowledge]
top_k = 3
chunk_size = 500
chunk_overlap = 900

[gold]
max_fallback_days = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.Knowledge.TopK)
	assert.Equal(t, 500, cfg.Knowledge.ChunkSize)
	assert.Equal(t, 100, cfg.Knowledge.ChunkOverlap, "overlap >= size is repaired")
	assert.Equal(t, 3, cfg.Gold.MaxFallbackDays)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Clients.OpenRouter.Model, "untouched sections keep defaults")
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[knowledge\ntop_k = "), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestResolveAPIKey_EnvBeatsFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	key, err := ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKey_Fallback(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("ARTHMITRA_OPENROUTER_API_KEY", "")

	key, err := ResolveAPIKey("openrouter_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)
}

func TestResolveAPIKey_Missing(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("ARTHMITRA_OPENROUTER_API_KEY", "")

	_, err := ResolveAPIKey("openrouter_api_key", "")
	assert.Error(t, err)
}

func TestGeminiConfig_GetTimeout(t *testing.T) {
	c := GeminiConfig{Timeout: "bogus"}
	assert.Equal(t, "1m0s", c.GetTimeout().String())
	c.Timeout = "5s"
	assert.Equal(t, "5s", c.GetTimeout().String())
}
