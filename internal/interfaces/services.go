package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// PriceSeries is a read-only, date-sorted gold price snapshot.
type PriceSeries interface {
	// Exact returns the record for the calendar day of t, ignoring time of day.
	Exact(t time.Time) (models.PriceRecord, bool)

	// Nearest returns the exact record or the closest one within maxDays.
	Nearest(t time.Time, maxDays int) (models.PriceMatch, bool)

	// Range returns the display dates of the first and last record.
	Range() (first, last string, ok bool)

	// Between returns records with from <= date <= to.
	Between(from, to time.Time) []models.PriceRecord

	Len() int
}

// PriceProvider hands out the current price snapshot and rebuilds it on demand.
type PriceProvider interface {
	Snapshot() PriceSeries
	Reload() error
	SourceName() string
}

// KnowledgeBase is the document retrieval collaborator.
type KnowledgeBase interface {
	// Retrieve returns at most k passages ranked by similarity to query.
	Retrieve(ctx context.Context, query string, k int) ([]models.Passage, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// IndexFile loads, splits, embeds and stores one file.
	IndexFile(ctx context.Context, path string) (models.IndexResult, error)

	// AutoIndex indexes every supported file under dir that is not indexed yet.
	AutoIndex(ctx context.Context, dir string) ([]models.IndexResult, error)
}

// AssistantService answers user questions.
type AssistantService interface {
	Initialize(ctx context.Context) error
	Ready() bool
	Handle(ctx context.Context, query string, profile *models.UserProfile) (models.Answer, error)
	Stream(ctx context.Context, query string, profile *models.UserProfile, emit func(models.StreamEvent) error) error
	GoldPrice(ctx context.Context, date models.Date) (models.PriceMatch, bool, error)
	Status(ctx context.Context) models.Status
}
