package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// CreatePortfolio inserts a new portfolio and fills in generated fields
func (db *DB) CreatePortfolio(p *models.Portfolio) error {
	query := `
		INSERT INTO portfolio (name, description, inception_date, initial_value)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := db.conn.QueryRow(query, p.Name, p.Description, p.InceptionDate, p.InitialValue).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

// GetPortfolio retrieves a portfolio with its holdings
func (db *DB) GetPortfolio(id uuid.UUID) (*models.Portfolio, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), inception_date, initial_value, created_at, updated_at
		FROM portfolio
		WHERE id = $1
	`
	var p models.Portfolio
	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.InceptionDate, &p.InitialValue, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("portfolio %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	holdings, err := db.ListHoldings(id)
	if err != nil {
		return nil, err
	}
	p.Holdings = holdings
	return &p, nil
}

// ListPortfolios retrieves all portfolios with their holdings, newest first
func (db *DB) ListPortfolios() ([]*models.Portfolio, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), inception_date, initial_value, created_at, updated_at
		FROM portfolio
		ORDER BY created_at DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.InceptionDate, &p.InitialValue, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range portfolios {
		holdings, err := db.ListHoldings(p.ID)
		if err != nil {
			return nil, err
		}
		p.Holdings = holdings
	}
	return portfolios, nil
}

// DeletePortfolio removes a portfolio; holding rows cascade
func (db *DB) DeletePortfolio(id uuid.UUID) error {
	result, err := db.conn.Exec(`DELETE FROM portfolio WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("portfolio %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpsertHolding inserts or replaces the (portfolio, ticker) position.
// The latest write wins in full: shares and cost basis are overwritten,
// never accumulated.
func (db *DB) UpsertHolding(h *models.Holding) error {
	asOf := h.AddedAt
	if asOf.IsZero() {
		asOf = time.Now()
	}
	query := `
		INSERT INTO portfolio_holding (portfolio_id, ticker_id, shares, average_cost, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (portfolio_id, ticker_id) DO UPDATE SET
			shares = EXCLUDED.shares,
			average_cost = EXCLUDED.average_cost,
			added_at = EXCLUDED.added_at
		RETURNING id, added_at
	`
	err := db.conn.QueryRow(query, h.PortfolioID, h.TickerID, h.Shares, nullDecimal(h.AverageCost), asOf).
		Scan(&h.ID, &h.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// ListHoldings retrieves all holdings for a portfolio, ordered by symbol
func (db *DB) ListHoldings(portfolioID uuid.UUID) ([]models.Holding, error) {
	query := `
		SELECT ph.id, ph.portfolio_id, ph.ticker_id, t.symbol, ph.shares, ph.average_cost, ph.added_at
		FROM portfolio_holding ph
		JOIN ticker t ON ph.ticker_id = t.id
		WHERE ph.portfolio_id = $1
		ORDER BY t.symbol ASC
	`
	rows, err := db.conn.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		var avgCost sql.NullString
		err := rows.Scan(&h.ID, &h.PortfolioID, &h.TickerID, &h.Symbol, &h.Shares, &avgCost, &h.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.AverageCost = decimalPtr(avgCost)
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// DeleteHolding removes a symbol's position from a portfolio
func (db *DB) DeleteHolding(portfolioID uuid.UUID, symbol string) error {
	query := `
		DELETE FROM portfolio_holding
		WHERE portfolio_id = $1
		  AND ticker_id = (SELECT id FROM ticker WHERE symbol = $2)
	`
	result, err := db.conn.Exec(query, portfolioID, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("holding %s: %w", strings.ToUpper(symbol), ErrNotFound)
	}
	return nil
}

// OpenPriceOnOrBefore returns the open price from the most recent price
// row at or before asOf, used to derive cost basis for dated buys. Falls
// back to close when the open is missing.
func (db *DB) OpenPriceOnOrBefore(tickerID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	p, err := db.GetPriceOnOrBefore(tickerID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if p.Open != nil {
		return *p.Open, nil
	}
	return p.Close, nil
}
