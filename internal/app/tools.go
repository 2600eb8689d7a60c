package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
	"github.com/bobmcallan/arthmitra/internal/services/intent"
)

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createAskTool(), handleAsk(a.Assistant, logger))
	s.AddTool(createGoldPriceTool(), handleGoldPrice(a.Assistant, a.Prices.SourceName()))
	s.AddTool(createKnowledgeStatusTool(), handleKnowledgeStatus(a.Assistant))
}

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the Arth-Mitra server version. Use this to verify connectivity."),
	)
}

func createAskTool() mcp.Tool {
	return mcp.NewTool("ask",
		mcp.WithDescription("Ask Arth-Mitra an Indian personal finance question (tax, investments, schemes, gold prices). Answers cite the documents they were drawn from."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. 'How much can I save under 80C?' or 'gold price on 25/12/2020'"),
		),
		mcp.WithString("profile",
			mcp.Description(`Optional user profile as a JSON object, e.g. {"age": 35, "taxRegime": "New Regime", "riskAppetite": "Moderate"}`),
		),
	)
}

func createGoldPriceTool() mcp.Tool {
	return mcp.NewTool("gold_price",
		mcp.WithDescription("Look up the gold price (USD per troy ounce) for a date, falling back to the nearest trading day within a week."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date in any common form: 25/12/2020, 25th December 2020, Dec 25 2020, 2020-12-25"),
		),
	)
}

func createKnowledgeStatusTool() mcp.Tool {
	return mcp.NewTool("knowledge_status",
		mcp.WithDescription("Report assistant readiness, the number of indexed document chunks, the active model and gold price coverage."),
	)
}

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Arth-Mitra Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleAsk implements the ask tool
func handleAsk(svc interfaces.AssistantService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return errorResult("Error: query parameter is required"), nil
		}

		var profile *models.UserProfile
		if raw := request.GetString("profile", ""); raw != "" {
			profile = &models.UserProfile{}
			if err := json.Unmarshal([]byte(raw), profile); err != nil {
				return errorResult(fmt.Sprintf("Error: profile must be a JSON object: %v", err)), nil
			}
		}

		answer, err := svc.Handle(ctx, query, profile)
		if err != nil {
			if errors.Is(err, models.ErrNotInitialized) {
				return errorResult("Arth-Mitra is still starting up. Please retry shortly."), nil
			}
			logger.Error().Err(err).Msg("ask tool failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatAnswer(answer)), nil
	}
}

// handleGoldPrice implements the gold_price tool
func handleGoldPrice(svc interfaces.AssistantService, source string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("date")
		if err != nil || text == "" {
			return errorResult("Error: date parameter is required"), nil
		}

		date, ok := intent.ExtractDate(text)
		if !ok {
			return errorResult(fmt.Sprintf("Error: could not read a date from %q", text)), nil
		}

		match, found, err := svc.GoldPrice(ctx, date)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		if !found {
			return textResult(fmt.Sprintf("No gold price data within a week of %s.", date.Readable())), nil
		}

		return textResult(formatPriceMatch(date, match, source)), nil
	}
}

// handleKnowledgeStatus implements the knowledge_status tool
func handleKnowledgeStatus(svc interfaces.AssistantService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.MarshalIndent(svc.Status(ctx), "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}

func formatAnswer(a models.Answer) string {
	var b strings.Builder
	b.WriteString(a.Response)
	if len(a.Sources) > 0 {
		b.WriteString("\n\n**Sources:**\n")
		for _, s := range a.Sources {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

func formatPriceMatch(requested models.Date, m models.PriceMatch, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Gold price for %s\n\n", requested.Readable())
	if m.Direction != models.DirectionExact {
		fmt.Fprintf(&b, "No trading data on the requested day; showing the nearest date %s (%s, %d days away).\n\n",
			m.Record.DisplayDate, m.Direction, m.DistanceDays)
	}
	r := m.Record
	b.WriteString("| Date | Price | Open | High | Low | Volume |\n")
	b.WriteString("|------|-------|------|------|-----|--------|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
		r.DisplayDate, r.Price.StringFixed(2), r.Open.StringFixed(2), r.High.StringFixed(2), r.Low.StringFixed(2), r.Volume)
	fmt.Fprintf(&b, "\n*Prices are in %s. Source: %s*\n", models.GoldPriceUnit, source)
	return b.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
