package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bobmcallan/arthmitra/internal/models"
)

var defaultQueries = []string{
	"Summarize key points from the Finance Bill 2025-26",
	"What are the benefits and eligibility of PPF?",
	"How does SCSS work and what is the interest rate?",
	"Explain Sukanya Samriddhi Account Scheme rules",
	"What is the latest income tax slab for FY 2025-26?",
	"Compare PPF vs NSC for a salaried person",
	"What schemes are available for senior citizens?",
	"What are the major changes in tax reform?",
}

// QueryResult is the measurement for one query.
type QueryResult struct {
	Query               string   `json:"query"`
	RetrievalMs         *float64 `json:"retrieval_ms"`
	TotalMs             float64  `json:"total_ms"`
	SourceCount         int      `json:"source_count"`
	Sources             []string `json:"sources"`
	RetrievedDocs       int      `json:"retrieved_docs"`
	RetrievedDocSources []string `json:"retrieved_doc_sources"`
	ResponseChars       int      `json:"response_chars"`
	UsedDefaultSources  bool     `json:"used_default_sources"`
	Error               string   `json:"error,omitempty"`
}

// Summary aggregates a run. Nil fields need at least two samples.
type Summary struct {
	Queries           int      `json:"queries"`
	AvgTotalMs        float64  `json:"avg_total_ms"`
	MedianTotalMs     float64  `json:"median_total_ms"`
	MinTotalMs        float64  `json:"min_total_ms"`
	MaxTotalMs        float64  `json:"max_total_ms"`
	StdTotalMs        *float64 `json:"std_total_ms"`
	P90TotalMs        *float64 `json:"p90_total_ms"`
	P95TotalMs        *float64 `json:"p95_total_ms"`
	P99TotalMs        *float64 `json:"p99_total_ms"`
	AvgRetrievalMs    *float64 `json:"avg_retrieval_ms"`
	MedianRetrievalMs *float64 `json:"median_retrieval_ms"`
	P95RetrievalMs    *float64 `json:"p95_retrieval_ms"`
	AvgRetrievedDocs  float64  `json:"avg_retrieved_docs"`
	AvgSources        float64  `json:"avg_sources"`
	CoverageRate      float64  `json:"coverage_rate"`
	UniqueSources     int      `json:"unique_sources"`
	DefaultSourceRate float64  `json:"default_source_rate"`
	AvgResponseChars  float64  `json:"avg_response_chars"`
}

// Report is the payload written by --out.
type Report struct {
	Summary Summary       `json:"summary"`
	Results []QueryResult `json:"results"`
}

// loadQueries reads one query per non-blank line, or a JSON list / {"queries": [...]} for .json files.
func loadQueries(path string) ([]string, error) {
	if path == "" {
		return slices.Clone(defaultQueries), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queries %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var list []any
		if err := json.Unmarshal(data, &list); err == nil {
			return stringify(list), nil
		}
		var wrapped struct {
			Queries []any `json:"queries"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Queries == nil {
			return nil, fmt.Errorf("unsupported JSON format in %s: use a list or {\"queries\": [...]}", path)
		}
		return stringify(wrapped.Queries), nil
	}

	var queries []string
	for _, line := range strings.Split(string(data), "\n") {
		if q := strings.TrimSpace(line); q != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

func stringify(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(item)
		}
	}
	return out
}

// isDefaultSources reports whether an answer cited no real document.
func isDefaultSources(sources []string) bool {
	if len(sources) == 0 {
		return true
	}
	return len(sources) == 1 &&
		(sources[0] == models.SourceGeneralKnowledge || sources[0] == models.SourceKnowledgeBase)
}

func summarize(results []QueryResult) Summary {
	s := Summary{Queries: len(results)}
	if len(results) == 0 {
		return s
	}

	var totals, retrievals, docs, sourceCounts, sizes []float64
	unique := make(map[string]struct{})
	defaults := 0
	for _, r := range results {
		totals = append(totals, r.TotalMs)
		if r.RetrievalMs != nil {
			retrievals = append(retrievals, *r.RetrievalMs)
		}
		docs = append(docs, float64(r.RetrievedDocs))
		sourceCounts = append(sourceCounts, float64(r.SourceCount))
		sizes = append(sizes, float64(r.ResponseChars))
		if isDefaultSources(r.Sources) {
			defaults++
		}
		for _, src := range r.Sources {
			unique[src] = struct{}{}
		}
	}

	s.AvgTotalMs = round2(mean(totals))
	s.MedianTotalMs = round2(median(totals))
	s.MinTotalMs = round2(slices.Min(totals))
	s.MaxTotalMs = round2(slices.Max(totals))
	s.StdTotalMs = stdev(totals)
	s.P90TotalMs = upperQuantile(totals, 10)
	s.P95TotalMs = upperQuantile(totals, 20)
	s.P99TotalMs = upperQuantile(totals, 100)
	if len(retrievals) > 0 {
		avg, med := round2(mean(retrievals)), round2(median(retrievals))
		s.AvgRetrievalMs, s.MedianRetrievalMs = &avg, &med
		s.P95RetrievalMs = upperQuantile(retrievals, 20)
	}
	s.AvgRetrievedDocs = round2(mean(docs))
	s.AvgSources = round2(mean(sourceCounts))
	s.CoverageRate = round2(float64(len(results)-defaults) / float64(len(results)) * 100)
	s.DefaultSourceRate = round2(float64(defaults) / float64(len(results)) * 100)
	s.UniqueSources = len(unique)
	s.AvgResponseChars = round2(mean(sizes))
	return s
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func median(v []float64) float64 {
	sorted := slices.Sorted(slices.Values(v))
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// stdev is the sample standard deviation.
func stdev(v []float64) *float64 {
	if len(v) < 2 {
		return nil
	}
	m := mean(v)
	var ss float64
	for _, x := range v {
		ss += (x - m) * (x - m)
	}
	r := round2(math.Sqrt(ss / float64(len(v)-1)))
	return &r
}

// upperQuantile returns the last of n-1 cut points using the exclusive method,
// so 10 gives p90, 20 gives p95 and 100 gives p99.
func upperQuantile(v []float64, n int) *float64 {
	if len(v) < 2 {
		return nil
	}
	data := slices.Sorted(slices.Values(v))
	m := len(data) + 1
	i := n - 1
	j := min(max(i*m/n, 1), len(data)-1)
	delta := float64(i*m - j*n)
	q := round2((data[j-1]*(float64(n)-delta) + data[j]*delta) / float64(n))
	return &q
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func fmtOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
