package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fundamentals holds the last-known fundamentals snapshot for a ticker.
// One row per ticker, overwritten wholesale on refresh; no history kept.
type Fundamentals struct {
	ID         uuid.UUID        `json:"id"`
	TickerID   uuid.UUID        `json:"ticker_id"`
	PERatio    *decimal.Decimal `json:"pe_ratio,omitempty"`
	MarketCap  *int64           `json:"market_cap,omitempty"`
	Beta       *decimal.Decimal `json:"beta,omitempty"`
	Week52High *decimal.Decimal `json:"week_52_high,omitempty"`
	Week52Low  *decimal.Decimal `json:"week_52_low,omitempty"`
	AvgVolume  *int64           `json:"avg_volume,omitempty"`
	Source     string           `json:"source,omitempty"`
	FetchedAt  time.Time        `json:"fetched_at"`
}
