package goldprice

import (
	"sort"
	"time"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// DefaultMaxFallbackDays bounds how far Nearest may move from the requested date.
const DefaultMaxFallbackDays = 7

// Series is an immutable, date-sorted gold price series. Safe for concurrent readers.
type Series struct {
	records []models.PriceRecord
}

// NewSeries copies records, sorts them by date and keeps the first record of
// any duplicated day.
func NewSeries(records []models.PriceRecord) *Series {
	sorted := make([]models.PriceRecord, len(records))
	copy(sorted, records)
	for i := range sorted {
		sorted[i].Date = midnight(sorted[i].Date)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	for _, r := range sorted {
		if len(out) > 0 && out[len(out)-1].Date.Equal(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return &Series{records: out}
}

// EmptySeries is the series served when the price source is unavailable.
func EmptySeries() *Series {
	return &Series{}
}

// Len returns the number of records.
func (s *Series) Len() int {
	return len(s.records)
}

// Records returns a copy of every record in date order.
func (s *Series) Records() []models.PriceRecord {
	out := make([]models.PriceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Exact returns the record for the calendar day of t.
func (s *Series) Exact(t time.Time) (models.PriceRecord, bool) {
	day := midnight(t)
	i := s.search(day)
	if i < len(s.records) && s.records[i].Date.Equal(day) {
		return s.records[i], true
	}
	return models.PriceRecord{}, false
}

// Nearest returns the exact record for t, or else the closest record within
// maxDays. When the records either side are equally far the earlier one wins.
// A negative maxDays means DefaultMaxFallbackDays.
func (s *Series) Nearest(t time.Time, maxDays int) (models.PriceMatch, bool) {
	if maxDays < 0 {
		maxDays = DefaultMaxFallbackDays
	}
	if rec, ok := s.Exact(t); ok {
		return models.PriceMatch{Record: rec, Direction: models.DirectionExact}, true
	}

	day := midnight(t)
	i := s.search(day) // first record after day, since there is no exact match

	hasBefore := i > 0
	hasAfter := i < len(s.records)

	var beforeDiff, afterDiff int
	if hasBefore {
		beforeDiff = daysBetween(s.records[i-1].Date, day)
	}
	if hasAfter {
		afterDiff = daysBetween(day, s.records[i].Date)
	}

	before := func() (models.PriceMatch, bool) {
		return models.PriceMatch{Record: s.records[i-1], Direction: models.DirectionBefore, DistanceDays: beforeDiff}, true
	}
	after := func() (models.PriceMatch, bool) {
		return models.PriceMatch{Record: s.records[i], Direction: models.DirectionAfter, DistanceDays: afterDiff}, true
	}

	switch {
	case hasBefore && hasAfter:
		if beforeDiff <= afterDiff && beforeDiff <= maxDays {
			return before()
		}
		if afterDiff <= maxDays {
			return after()
		}
	case hasBefore:
		if beforeDiff <= maxDays {
			return before()
		}
	case hasAfter:
		if afterDiff <= maxDays {
			return after()
		}
	}
	return models.PriceMatch{}, false
}

// Range returns the display dates of the first and last record.
func (s *Series) Range() (first, last string, ok bool) {
	if len(s.records) == 0 {
		return "", "", false
	}
	return s.records[0].DisplayDate, s.records[len(s.records)-1].DisplayDate, true
}

// Between returns the records dated from..to inclusive.
func (s *Series) Between(from, to time.Time) []models.PriceRecord {
	start := s.search(midnight(from))
	end := s.search(midnight(to).AddDate(0, 0, 1))
	if start >= end {
		return nil
	}
	out := make([]models.PriceRecord, end-start)
	copy(out, s.records[start:end])
	return out
}

// search returns the index of the first record dated on or after day.
func (s *Series) search(day time.Time) int {
	return sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].Date.Before(day)
	})
}

// midnight truncates t to its calendar day in UTC, keeping the day as written.
func midnight(t time.Time) time.Time {
	return models.DateOf(t).Time()
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
