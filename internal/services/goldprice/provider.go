package goldprice

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
)

// Provider owns the current price snapshot. Readers take a Snapshot per request;
// Reload builds a new Series and swaps it in whole.
type Provider struct {
	path   string
	series atomic.Pointer[Series]
	logger *common.Logger
}

// NewProvider creates a provider serving an empty series until the first Reload.
func NewProvider(path string, logger *common.Logger) *Provider {
	p := &Provider{path: path, logger: logger}
	p.series.Store(EmptySeries())
	return p
}

// Snapshot returns the series to use for one request.
func (p *Provider) Snapshot() interfaces.PriceSeries {
	return p.series.Load()
}

// Series returns the concrete snapshot.
func (p *Provider) Series() *Series {
	return p.series.Load()
}

// SourceName is the identifier cited for answers built from this data.
func (p *Provider) SourceName() string {
	return filepath.Base(p.path)
}

// Reload rebuilds the series from the price file. A missing file empties the
// series; an unreadable or malformed one leaves the previous snapshot in place.
func (p *Provider) Reload() error {
	records, stats, err := LoadCSV(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		p.series.Store(EmptySeries())
		p.logger.Warn().Str("path", p.path).Msg("Gold price file missing; serving no price data")
		return err
	}
	if err != nil {
		p.logger.Warn().Str("path", p.path).Err(err).Int("records", p.series.Load().Len()).
			Msg("Gold price data unreadable; keeping previous series")
		return err
	}

	series := NewSeries(records)
	p.series.Store(series)

	first, last, _ := series.Range()
	p.logger.Info().
		Str("path", p.path).
		Int("records", series.Len()).
		Int("dropped", stats.Dropped).
		Str("first", first).
		Str("last", last).
		Msg("Gold price series loaded")
	return nil
}
