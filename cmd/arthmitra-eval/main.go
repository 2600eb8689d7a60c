// Command arthmitra-eval runs a query set through the assistant and reports
// latency and citation coverage.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/arthmitra/internal/app"
	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/models"
)

func main() {
	configPath := flag.String("config", "", "path to arthmitra.toml")
	queriesPath := flag.String("queries", "", "path to queries file (.txt or .json)")
	outPath := flag.String("out", "", "optional JSON report path")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath, *queriesPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "arthmitra-eval: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, queriesPath, outPath string) error {
	queries, err := loadQueries(queriesPath)
	if err != nil {
		return err
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	ctx := context.Background()
	fmt.Printf("arthmitra-eval %s, model %s\n", common.GetFullVersion(), a.Assistant.Status(ctx).Model)

	if err := a.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize assistant: %w", err)
	}

	docCount := 0
	if a.Knowledge != nil {
		if n, err := a.Knowledge.Count(ctx); err == nil {
			docCount = n
		}
	}

	profile := &models.UserProfile{
		Age:              models.IntPtr(30),
		Income:           "₹10 LPA",
		EmploymentStatus: "Salaried",
		TaxRegime:        "Old Regime",
		HomeownerStatus:  "Rented",
	}

	results := make([]QueryResult, 0, len(queries))
	for _, q := range queries {
		r := measure(ctx, a, q, profile, docCount > 0)
		results = append(results, r)

		fmt.Printf("\nQuery: %s\n", q)
		fmt.Printf("  Retrieval ms: %s\n", fmtOptional(r.RetrievalMs))
		fmt.Printf("  Total ms: %.2f\n", r.TotalMs)
		fmt.Printf("  Sources (%d): %s\n", r.SourceCount, strings.Join(r.Sources, ", "))
		if r.Error != "" {
			fmt.Printf("  Error: %s\n", r.Error)
		}
	}

	summary := summarize(results)
	printSummary(summary, docCount)

	if outPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(Report{Summary: summary, Results: results}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("\nSaved report to: %s\n", outPath)
	return nil
}

// measure times retrieval on its own, then the full answer path.
func measure(ctx context.Context, a *app.App, query string, profile *models.UserProfile, retrieve bool) QueryResult {
	r := QueryResult{Query: query}

	if retrieve {
		start := time.Now()
		passages, err := a.Knowledge.Retrieve(ctx, query, a.Config.Knowledge.TopK)
		elapsed := ms(time.Since(start))
		if err != nil {
			a.Logger.Warn().Err(err).Str("query", query).Msg("Retrieval failed")
		} else {
			r.RetrievalMs = &elapsed
			r.RetrievedDocs = len(passages)
			seen := make(map[string]struct{})
			for _, p := range passages {
				seen[filepath.Base(p.Source)] = struct{}{}
			}
			r.RetrievedDocSources = slices.Sorted(maps.Keys(seen))
		}
	}

	start := time.Now()
	answer, err := a.Assistant.Handle(ctx, query, profile)
	r.TotalMs = ms(time.Since(start))
	if err != nil {
		r.Error = err.Error()
	}

	r.Sources = answer.Sources
	r.SourceCount = len(answer.Sources)
	r.ResponseChars = len([]rune(answer.Response))
	r.UsedDefaultSources = isDefaultSources(answer.Sources)
	return r
}

func printSummary(s Summary, docCount int) {
	fmt.Println("\n=== RAG Summary ===")
	fmt.Printf("Documents indexed: %d\n", docCount)
	fmt.Printf("Queries: %d\n", s.Queries)
	fmt.Printf("Avg total ms: %.2f\n", s.AvgTotalMs)
	fmt.Printf("Median total ms: %.2f\n", s.MedianTotalMs)
	fmt.Printf("Min total ms: %.2f\n", s.MinTotalMs)
	fmt.Printf("Max total ms: %.2f\n", s.MaxTotalMs)
	fmt.Printf("Std total ms: %s\n", fmtOptional(s.StdTotalMs))
	fmt.Printf("P90 total ms: %s\n", fmtOptional(s.P90TotalMs))
	fmt.Printf("P95 total ms: %s\n", fmtOptional(s.P95TotalMs))
	fmt.Printf("P99 total ms: %s\n", fmtOptional(s.P99TotalMs))
	fmt.Printf("Avg retrieval ms: %s\n", fmtOptional(s.AvgRetrievalMs))
	fmt.Printf("Median retrieval ms: %s\n", fmtOptional(s.MedianRetrievalMs))
	fmt.Printf("P95 retrieval ms: %s\n", fmtOptional(s.P95RetrievalMs))
	fmt.Printf("Avg retrieved docs: %.2f\n", s.AvgRetrievedDocs)
	fmt.Printf("Avg sources: %.2f\n", s.AvgSources)
	fmt.Printf("Coverage rate: %.2f%%\n", s.CoverageRate)
	fmt.Printf("Unique sources: %d\n", s.UniqueSources)
	fmt.Printf("Default source rate: %.2f%%\n", s.DefaultSourceRate)
	fmt.Printf("Avg response length (chars): %.2f\n", s.AvgResponseChars)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
