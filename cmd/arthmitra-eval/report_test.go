package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/arthmitra/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestLoadQueries_DefaultSet(t *testing.T) {
	q, err := loadQueries("")
	require.NoError(t, err)
	assert.Len(t, q, 8)
	assert.Equal(t, "What are the benefits and eligibility of PPF?", q[1])
}

func TestLoadQueries_TextSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.txt")
	require.NoError(t, os.WriteFile(path, []byte("  What is PPF?  \n\n\nGold price today\n"), 0o644))

	q, err := loadQueries(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"What is PPF?", "Gold price today"}, q)
}

func TestLoadQueries_JSONShapes(t *testing.T) {
	dir := t.TempDir()

	list := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(list, []byte(`["a", 2]`), 0o644))
	q, err := loadQueries(list)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2"}, q)

	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"queries": ["b"]}`), 0o644))
	q, err = loadQueries(wrapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, q)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"items": []}`), 0o644))
	_, err = loadQueries(bad)
	assert.Error(t, err)
}

func TestIsDefaultSources(t *testing.T) {
	assert.True(t, isDefaultSources(nil))
	assert.True(t, isDefaultSources([]string{models.SourceGeneralKnowledge}))
	assert.True(t, isDefaultSources([]string{models.SourceKnowledgeBase}))
	assert.False(t, isDefaultSources([]string{"ppf.pdf (Page 2)"}))
	assert.False(t, isDefaultSources([]string{models.SourceKnowledgeBase, "ppf.pdf"}))
}

func TestSummarize(t *testing.T) {
	results := []QueryResult{
		{TotalMs: 100, RetrievalMs: ptr(10), RetrievedDocs: 5, SourceCount: 2, Sources: []string{"a.pdf", "b.pdf"}, ResponseChars: 200},
		{TotalMs: 200, RetrievalMs: ptr(20), RetrievedDocs: 5, SourceCount: 1, Sources: []string{"a.pdf"}, ResponseChars: 100},
		{TotalMs: 300, RetrievedDocs: 0, SourceCount: 1, Sources: []string{models.SourceGeneralKnowledge}, ResponseChars: 300},
		{TotalMs: 400, RetrievedDocs: 0, SourceCount: 0, ResponseChars: 0},
	}

	s := summarize(results)
	assert.Equal(t, 4, s.Queries)
	assert.Equal(t, 250.0, s.AvgTotalMs)
	assert.Equal(t, 250.0, s.MedianTotalMs)
	assert.Equal(t, 100.0, s.MinTotalMs)
	assert.Equal(t, 400.0, s.MaxTotalMs)
	require.NotNil(t, s.StdTotalMs)
	assert.Equal(t, 129.1, *s.StdTotalMs)
	require.NotNil(t, s.P90TotalMs)
	assert.Equal(t, 450.0, *s.P90TotalMs)
	require.NotNil(t, s.AvgRetrievalMs)
	assert.Equal(t, 15.0, *s.AvgRetrievalMs)
	require.NotNil(t, s.P95RetrievalMs)
	assert.Equal(t, 2.5, s.AvgRetrievedDocs)
	assert.Equal(t, 1.0, s.AvgSources)
	assert.Equal(t, 50.0, s.CoverageRate)
	assert.Equal(t, 50.0, s.DefaultSourceRate)
	assert.Equal(t, 3, s.UniqueSources)
	assert.Equal(t, 150.0, s.AvgResponseChars)
}

func TestSummarize_SingleResultLeavesSpreadUnset(t *testing.T) {
	s := summarize([]QueryResult{{TotalMs: 42, RetrievalMs: ptr(7)}})
	assert.Nil(t, s.StdTotalMs)
	assert.Nil(t, s.P99TotalMs)
	assert.Nil(t, s.P95RetrievalMs)
	require.NotNil(t, s.MedianRetrievalMs)
	assert.Equal(t, 7.0, *s.MedianRetrievalMs)
	assert.Equal(t, 100.0, s.DefaultSourceRate)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, summarize(nil))
}
