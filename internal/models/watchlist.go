package models

import (
	"time"

	"github.com/google/uuid"
)

// Watchlist is a named collection of tickers
type Watchlist struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Tickers     []WatchlistTicker `json:"tickers"`
}

// WatchlistTicker is one ticker entry inside a watchlist
type WatchlistTicker struct {
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}
