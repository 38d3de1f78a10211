package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// CreateWatchlist inserts a new watchlist and fills in generated fields
func (db *DB) CreateWatchlist(w *models.Watchlist) error {
	query := `
		INSERT INTO watchlist (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err := db.conn.QueryRow(query, w.Name, w.Description).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	w.Tickers = []models.WatchlistTicker{}
	return nil
}

// GetWatchlist retrieves a watchlist with its tickers
func (db *DB) GetWatchlist(id uuid.UUID) (*models.Watchlist, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), created_at, updated_at
		FROM watchlist
		WHERE id = $1
	`
	var w models.Watchlist
	err := db.conn.QueryRow(query, id).Scan(&w.ID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("watchlist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}

	tickers, err := db.ListWatchlistTickers(id)
	if err != nil {
		return nil, err
	}
	w.Tickers = tickers
	return &w, nil
}

// ListWatchlists retrieves all watchlists with their tickers, newest first
func (db *DB) ListWatchlists() ([]*models.Watchlist, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), created_at, updated_at
		FROM watchlist
		ORDER BY created_at DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	defer rows.Close()

	var lists []*models.Watchlist
	for rows.Next() {
		var w models.Watchlist
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		lists = append(lists, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, w := range lists {
		tickers, err := db.ListWatchlistTickers(w.ID)
		if err != nil {
			return nil, err
		}
		w.Tickers = tickers
	}
	return lists, nil
}

// DeleteWatchlist removes a watchlist; membership rows cascade
func (db *DB) DeleteWatchlist(id uuid.UUID) error {
	result, err := db.conn.Exec(`DELETE FROM watchlist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("watchlist %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddWatchlistTicker adds a symbol to a watchlist, creating the ticker
// row on first reference. Adding a symbol that is already present is a
// no-op, not a duplicate.
func (db *DB) AddWatchlistTicker(watchlistID uuid.UUID, symbol string) error {
	tickerID, err := db.UpsertTicker(symbol, "", "")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO watchlist_tickers (watchlist_id, ticker_id)
		VALUES ($1, $2)
		ON CONFLICT (watchlist_id, ticker_id) DO NOTHING
	`
	if _, err := db.conn.Exec(query, watchlistID, tickerID); err != nil {
		return fmt.Errorf("failed to add ticker to watchlist: %w", err)
	}
	return nil
}

// RemoveWatchlistTicker removes a symbol from a watchlist
func (db *DB) RemoveWatchlistTicker(watchlistID uuid.UUID, symbol string) error {
	query := `
		DELETE FROM watchlist_tickers
		WHERE watchlist_id = $1
		  AND ticker_id = (SELECT id FROM ticker WHERE symbol = $2)
	`
	if _, err := db.conn.Exec(query, watchlistID, strings.ToUpper(symbol)); err != nil {
		return fmt.Errorf("failed to remove ticker from watchlist: %w", err)
	}
	return nil
}

// ListWatchlistTickers retrieves the symbols in a watchlist, most
// recently added first.
func (db *DB) ListWatchlistTickers(watchlistID uuid.UUID) ([]models.WatchlistTicker, error) {
	query := `
		SELECT t.symbol, wt.added_at
		FROM watchlist_tickers wt
		JOIN ticker t ON wt.ticker_id = t.id
		WHERE wt.watchlist_id = $1
		ORDER BY wt.added_at DESC, t.symbol ASC
	`
	rows, err := db.conn.Query(query, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist tickers: %w", err)
	}
	defer rows.Close()

	tickers := []models.WatchlistTicker{}
	for rows.Next() {
		var wt models.WatchlistTicker
		if err := rows.Scan(&wt.Symbol, &wt.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist ticker: %w", err)
		}
		tickers = append(tickers, wt)
	}
	return tickers, rows.Err()
}
