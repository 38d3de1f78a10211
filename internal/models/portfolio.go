package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio is a named container of holdings with a recorded inception
// date and initial value. Initial value and summed cost bases are allowed
// to diverge (cash added or withdrawn); they are never reconciled.
type Portfolio struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	InceptionDate time.Time       `json:"inception_date"`
	InitialValue  decimal.Decimal `json:"initial_value"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Holdings      []Holding       `json:"holdings,omitempty"`
}

// Holding is a (portfolio, ticker) position. The pair is unique: adding
// the same symbol again replaces shares and cost basis in place.
type Holding struct {
	ID          uuid.UUID        `json:"id"`
	PortfolioID uuid.UUID        `json:"portfolio_id"`
	TickerID    uuid.UUID        `json:"ticker_id"`
	Symbol      string           `json:"symbol"`
	Shares      decimal.Decimal  `json:"shares"`
	AverageCost *decimal.Decimal `json:"average_cost,omitempty"`
	AddedAt     time.Time        `json:"added_at"`
}
