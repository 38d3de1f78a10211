package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceDaily represents one OHLCV row for a (ticker, trading date) pair.
// All price fields except Close are nullable: a missing value from the
// source is stored as NULL, never coerced to zero.
type PriceDaily struct {
	ID        uuid.UUID        `json:"id"`
	TickerID  uuid.UUID        `json:"ticker_id"`
	Date      time.Time        `json:"date"`
	Open      *decimal.Decimal `json:"open,omitempty"`
	High      *decimal.Decimal `json:"high,omitempty"`
	Low       *decimal.Decimal `json:"low,omitempty"`
	Close     decimal.Decimal  `json:"close"`
	Volume    *int64           `json:"volume,omitempty"`
	AvgVolume *int64           `json:"avg_volume,omitempty"`
	PE        *decimal.Decimal `json:"pe,omitempty"`
	MarketCap *int64           `json:"market_cap,omitempty"`
}

// RiskFreeRate is one entry of the risk-free rate series, unique per date
type RiskFreeRate struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}
