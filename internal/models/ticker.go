package models

import (
	"time"

	"github.com/google/uuid"
)

// TickerEvent represents a Kafka event for ticker lifecycle changes
type TickerEvent struct {
	EventType string    `json:"event_type"`
	Ticker    *Ticker   `json:"ticker,omitempty"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticker represents a tradeable instrument known to the system.
// Rows are created on first reference (watchlist add, holding add,
// data fetch/refresh) and only removed via cascade.
type Ticker struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Exchange  string    `json:"exchange,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult is a single row returned by symbol search
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Source string `json:"source"`
}
