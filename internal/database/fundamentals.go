package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// UpsertFundamentals overwrites the fundamentals snapshot for a ticker
// wholesale. No history is kept.
func (db *DB) UpsertFundamentals(f *models.Fundamentals) error {
	query := `
		INSERT INTO fundamentals_cache (
			ticker_id, pe_ratio, market_cap, beta, week_52_high, week_52_low,
			avg_volume, source, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker_id) DO UPDATE SET
			pe_ratio = EXCLUDED.pe_ratio,
			market_cap = EXCLUDED.market_cap,
			beta = EXCLUDED.beta,
			week_52_high = EXCLUDED.week_52_high,
			week_52_low = EXCLUDED.week_52_low,
			avg_volume = EXCLUDED.avg_volume,
			source = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at
	`
	fetchedAt := f.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err := db.conn.Exec(query,
		f.TickerID, nullDecimal(f.PERatio), nullInt(f.MarketCap), nullDecimal(f.Beta),
		nullDecimal(f.Week52High), nullDecimal(f.Week52Low), nullInt(f.AvgVolume),
		f.Source, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fundamentals: %w", err)
	}
	return nil
}

// GetFundamentals retrieves the fundamentals snapshot for a ticker
func (db *DB) GetFundamentals(tickerID uuid.UUID) (*models.Fundamentals, error) {
	query := `
		SELECT id, ticker_id, pe_ratio, market_cap, beta, week_52_high, week_52_low,
		       avg_volume, COALESCE(source, ''), fetched_at
		FROM fundamentals_cache
		WHERE ticker_id = $1
	`
	var f models.Fundamentals
	var peRatio, beta, week52High, week52Low sql.NullString
	var marketCap, avgVolume sql.NullInt64

	err := db.conn.QueryRow(query, tickerID).Scan(
		&f.ID, &f.TickerID, &peRatio, &marketCap, &beta,
		&week52High, &week52Low, &avgVolume, &f.Source, &f.FetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fundamentals for ticker %s: %w", tickerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fundamentals: %w", err)
	}

	f.PERatio = decimalPtr(peRatio)
	f.Beta = decimalPtr(beta)
	f.Week52High = decimalPtr(week52High)
	f.Week52Low = decimalPtr(week52Low)
	f.MarketCap = intPtr(marketCap)
	f.AvgVolume = intPtr(avgVolume)
	return &f, nil
}
