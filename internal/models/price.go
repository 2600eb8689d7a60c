package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoldPriceUnit describes the unit of every price in the gold series.
const GoldPriceUnit = "USD per troy ounce"

// PriceRecord is one trading day of the gold series. Immutable once loaded.
type PriceRecord struct {
	Date        time.Time       `json:"date"`         // midnight UTC, parsed from DisplayDate
	DisplayDate string          `json:"display_date"` // as written in the source, dd/mm/yyyy
	Price       decimal.Decimal `json:"price"`        // close
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Volume      string          `json:"volume"` // "N/A" when the source has no volume column
}

// Direction tells how a price match relates to the requested date.
type Direction string

const (
	DirectionExact  Direction = "exact"
	DirectionBefore Direction = "before"
	DirectionAfter  Direction = "after"
)

// PriceMatch is the result of a nearest-date lookup.
type PriceMatch struct {
	Record       PriceRecord `json:"record"`
	Direction    Direction   `json:"direction"`
	DistanceDays int         `json:"distance_days"`
}
