package goldprice

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/arthmitra/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProvider_MissingFileServesEmptySeries(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "gold_data.csv"), common.NewSilentLogger())

	err := p.Reload()
	assert.Error(t, err)
	assert.Equal(t, 0, p.Snapshot().Len())
	assert.Equal(t, "gold_data.csv", p.SourceName())

	_, ok := p.Snapshot().Nearest(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 7)
	assert.False(t, ok)
}

func TestProvider_ReloadSwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold_data.csv")
	writeFile(t, path, "Date,Price,Open,High,Low\n01/01/2020,1520,1517,1528,1515\n")

	p := NewProvider(path, common.NewSilentLogger())
	require.NoError(t, p.Reload())
	before := p.Snapshot()
	assert.Equal(t, 1, before.Len())

	writeFile(t, path, "Date,Price,Open,High,Low\n01/01/2020,1520,1517,1528,1515\n02/01/2020,1529,1520,1531,1518\n")
	require.NoError(t, p.Reload())

	assert.Equal(t, 1, before.Len(), "a taken snapshot never changes")
	assert.Equal(t, 2, p.Snapshot().Len())
}

func TestProvider_FailedReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold_data.csv")
	writeFile(t, path, "Date,Price,Open,High,Low\n01/01/2020,1520,1517,1528,1515\n")

	p := NewProvider(path, common.NewSilentLogger())
	require.NoError(t, p.Reload())

	writeFile(t, path, "Date,Price\n01/01/2020,1520\n")
	assert.Error(t, p.Reload())
	assert.Equal(t, 1, p.Snapshot().Len())
}

func TestProvider_RemovedFileEmptiesSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold_data.csv")
	writeFile(t, path, "Date,Price,Open,High,Low\n01/01/2020,1520,1517,1528,1515\n")

	p := NewProvider(path, common.NewSilentLogger())
	require.NoError(t, p.Reload())
	require.Equal(t, 1, p.Snapshot().Len())

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, p.Reload(), os.ErrNotExist)
	assert.Equal(t, 0, p.Snapshot().Len())

	_, ok := p.Snapshot().Exact(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestProvider_ConcurrentReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold_data.csv")
	writeFile(t, path, "Date,Price,Open,High,Low\n01/01/2020,1520,1517,1528,1515\n")

	p := NewProvider(path, common.NewSilentLogger())
	require.NoError(t, p.Reload())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = p.Snapshot().Exact(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_ = p.Reload()
	}
	wg.Wait()
	assert.Equal(t, 1, p.Snapshot().Len())
}
