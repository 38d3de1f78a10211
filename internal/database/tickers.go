package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// UpsertTicker inserts a ticker or refreshes its name/exchange on
// conflict, returning the row id either way.
func (db *DB) UpsertTicker(symbol, name, exchange string) (uuid.UUID, error) {
	query := `
		INSERT INTO ticker (symbol, name, exchange)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), ticker.name),
			exchange = COALESCE(NULLIF(EXCLUDED.exchange, ''), ticker.exchange)
		RETURNING id
	`
	var id uuid.UUID
	err := db.conn.QueryRow(query, strings.ToUpper(symbol), name, exchange).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert ticker %s: %w", symbol, err)
	}
	return id, nil
}

// GetTickerBySymbol retrieves a ticker by its symbol
func (db *DB) GetTickerBySymbol(symbol string) (*models.Ticker, error) {
	query := `
		SELECT id, symbol, COALESCE(name, ''), COALESCE(exchange, ''), created_at
		FROM ticker
		WHERE symbol = $1
	`
	var t models.Ticker
	err := db.conn.QueryRow(query, strings.ToUpper(symbol)).Scan(
		&t.ID, &t.Symbol, &t.Name, &t.Exchange, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ticker %s: %w", strings.ToUpper(symbol), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	return &t, nil
}

// SearchTickers matches symbols and names against a case-insensitive
// substring, capped at 25 rows.
func (db *DB) SearchTickers(q string) ([]models.SearchResult, error) {
	like := "%" + strings.ToUpper(q) + "%"
	query := `
		SELECT symbol, COALESCE(name, symbol)
		FROM ticker
		WHERE UPPER(symbol) LIKE $1 OR UPPER(name) LIKE $1
		ORDER BY symbol
		LIMIT 25
	`
	rows, err := db.conn.Query(query, like)
	if err != nil {
		return nil, fmt.Errorf("failed to search tickers: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Symbol, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		r.Source = "db"
		results = append(results, r)
	}
	return results, rows.Err()
}
