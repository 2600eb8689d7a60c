package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/models"
)

const testGoldCSV = `Date,Price,Open,High,Low,Vol.
24/12/2020,"1,878.50","1,874.00","1,885.60","1,870.30",120.5K
28/12/2020,"1,880.40","1,883.20","1,900.00","1,872.10",251.3K
`

// clearProviderKeys removes any provider keys inherited from the environment.
func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GEMINI_API_KEY", "ARTHMITRA_GEMINI_API_KEY", "GOOGLE_API_KEY",
		"OPENROUTER_API_KEY", "ARTHMITRA_OPENROUTER_API_KEY",
	} {
		t.Setenv(name, "")
	}
}

// testConfig points every path into a temp dir and writes the gold CSV.
func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "documents")
	if err := os.MkdirAll(docs, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := common.NewDefaultConfig()
	cfg.Knowledge.DocumentsDir = docs
	cfg.Knowledge.StorePath = filepath.Join(dir, "data", "knowledge")
	cfg.Gold.CSVPath = filepath.Join(docs, "gold_data.csv")
	cfg.Logging.Outputs = []string{"console"}
	cfg.Logging.Level = "error"

	if err := os.WriteFile(cfg.Gold.CSVPath, []byte(testGoldCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

// newReadyApp builds an App on OpenRouter with a placeholder key. With only the
// price CSV in the documents dir, Initialize never calls the provider.
func newReadyApp(t *testing.T) *App {
	t.Helper()
	clearProviderKeys(t)
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	a, err := NewAppWithConfig(testConfig(t), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	t.Cleanup(a.Close)

	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return a
}

func TestNewApp_WithoutKeysStartsButCannotInitialize(t *testing.T) {
	clearProviderKeys(t)

	a, err := NewAppWithConfig(testConfig(t), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer a.Close()

	if a.Provider != "none" {
		t.Errorf("Provider = %q, want none", a.Provider)
	}
	if a.Generator != nil || a.Knowledge != nil {
		t.Error("expected no generator and no knowledge service without keys")
	}
	if a.MCPServer == nil || a.Assistant == nil || a.Prices == nil {
		t.Fatal("expected core services to be wired")
	}

	err = a.Initialize(context.Background())
	if !errors.Is(err, models.ErrNoGenerator) {
		t.Errorf("Initialize error = %v, want ErrNoGenerator", err)
	}
}

func TestNewApp_PrefersGemini(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("GEMINI_API_KEY", "gemini-test-key")
	t.Setenv("OPENROUTER_API_KEY", "openrouter-test-key")

	a, err := NewAppWithConfig(testConfig(t), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer a.Close()

	if a.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", a.Provider)
	}
	if !strings.HasPrefix(a.Generator.ModelName(), "Google Gemini") {
		t.Errorf("ModelName = %q", a.Generator.ModelName())
	}
}

func TestNewApp_InitializeLoadsPrices(t *testing.T) {
	a := newReadyApp(t)

	status := a.Assistant.Status(context.Background())
	if !status.Ready {
		t.Error("expected assistant to be ready")
	}
	if status.PriceRecords != 2 {
		t.Errorf("PriceRecords = %d, want 2", status.PriceRecords)
	}
	if status.IndexedDocumentCount != 0 {
		t.Errorf("IndexedDocumentCount = %d, want 0 (price CSV is not indexed)", status.IndexedDocumentCount)
	}
	if !strings.HasPrefix(status.Model, "OpenRouter") {
		t.Errorf("Model = %q", status.Model)
	}
}

func TestNewApp_RegistersAllTools(t *testing.T) {
	a := newReadyApp(t)

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}

	toolNames := make(map[string]bool)
	for _, tool := range toolsResult.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range []string{"get_version", "ask", "gold_price", "knowledge_status"} {
		if !toolNames[name] {
			t.Errorf("Expected tool %q not registered", name)
		}
	}
}

func TestTools_AskGoldQuestion(t *testing.T) {
	a := newReadyApp(t)
	text, isErr := callTool(t, a, "ask", map[string]any{"query": "What was the gold price on 24/12/2020?"})

	if isErr {
		t.Fatalf("ask returned error: %s", text)
	}
	if !strings.Contains(text, "| **Price** | $1878.50 |") {
		t.Errorf("expected price table, got: %s", text)
	}
	if !strings.Contains(text, "- gold_data.csv") {
		t.Errorf("expected gold_data.csv source, got: %s", text)
	}
}

func TestTools_AskRejectsBadProfile(t *testing.T) {
	a := newReadyApp(t)
	text, isErr := callTool(t, a, "ask", map[string]any{"query": "gold price 24/12/2020", "profile": "{not json"})

	if !isErr {
		t.Fatalf("expected error result, got: %s", text)
	}
	if !strings.Contains(text, "profile must be a JSON object") {
		t.Errorf("unexpected message: %s", text)
	}
}

func TestTools_GoldPrice(t *testing.T) {
	a := newReadyApp(t)

	text, isErr := callTool(t, a, "gold_price", map[string]any{"date": "Dec 26, 2020"})
	if isErr {
		t.Fatalf("gold_price returned error: %s", text)
	}
	if !strings.Contains(text, "nearest date 24/12/2020 (before, 2 days away)") {
		t.Errorf("expected nearest-date note, got: %s", text)
	}

	text, isErr = callTool(t, a, "gold_price", map[string]any{"date": "someday"})
	if !isErr {
		t.Errorf("expected error for unreadable date, got: %s", text)
	}

	text, _ = callTool(t, a, "gold_price", map[string]any{"date": "01/06/2021"})
	if !strings.Contains(text, "No gold price data") {
		t.Errorf("expected no-data message, got: %s", text)
	}
}

func TestTools_KnowledgeStatus(t *testing.T) {
	a := newReadyApp(t)
	text, isErr := callTool(t, a, "knowledge_status", nil)

	if isErr {
		t.Fatalf("knowledge_status returned error: %s", text)
	}
	if !strings.Contains(text, `"ready": true`) || !strings.Contains(text, `"price_records": 2`) {
		t.Errorf("unexpected status: %s", text)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	a := newReadyApp(t)

	a.Config.Gold.ReloadSchedule = "not a schedule"
	if err := a.StartScheduler(); err == nil {
		t.Error("expected error for invalid schedule")
	}

	a.Config.Gold.ReloadSchedule = "*/5 * * * *"
	if err := a.StartScheduler(); err != nil {
		t.Fatalf("StartScheduler failed: %v", err)
	}
	a.StopScheduler()
	a.StopScheduler()
}

func TestScheduler_ReloadPicksUpNewRows(t *testing.T) {
	a := newReadyApp(t)

	extra := testGoldCSV + "29/12/2020,\"1,877.20\",\"1,880.00\",\"1,890.10\",\"1,870.00\",180.1K\n"
	if err := os.WriteFile(a.Config.Gold.CSVPath, []byte(extra), 0644); err != nil {
		t.Fatal(err)
	}

	a.reloadPrices()

	if got := a.Prices.Series().Len(); got != 3 {
		t.Errorf("records after reload = %d, want 3", got)
	}
}

func TestNewApp_CloseIsIdempotent(t *testing.T) {
	clearProviderKeys(t)
	a, err := NewAppWithConfig(testConfig(t), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}

	a.Close()
	a.Close()
}

func TestNewApp_InvalidConfigReturnsError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.toml")
	os.WriteFile(configPath, []byte("{{{{invalid toml"), 0644)

	_, err := NewApp(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid config content, got nil")
	}
}

// --- test helpers ---

func callTool(t *testing.T, a *App, name string, args map[string]any) (string, bool) {
	t.Helper()

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return result.Content[0].(mcp.TextContent).Text, result.IsError
}

// newInProcessClient creates an mcp-go in-process client connected to the given
// MCP server. Handles initialization handshake.
func newInProcessClient(t *testing.T, mcpServer *server.MCPServer) (*client.Client, error) {
	t.Helper()

	c, err := client.NewInProcessClient(mcpServer)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}
