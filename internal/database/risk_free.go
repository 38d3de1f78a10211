package database

import (
	"fmt"
	"time"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// UpsertRiskFreeRates writes risk-free rate entries, overwriting the rate
// on date conflicts. Returns the number of rows written.
func (db *DB) UpsertRiskFreeRates(rates []models.RiskFreeRate) (int, error) {
	if len(rates) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO risk_free_series (date, rate)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET rate = EXCLUDED.rate
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rates {
		if _, err := stmt.Exec(r.Date, r.Rate); err != nil {
			return 0, fmt.Errorf("failed to insert risk-free rate for %s: %w", r.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(rates), nil
}

// GetRiskFreeRates retrieves the risk-free series within a date range,
// ascending by date.
func (db *DB) GetRiskFreeRates(start, end time.Time) ([]models.RiskFreeRate, error) {
	query := `
		SELECT date, rate
		FROM risk_free_series
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get risk-free rates: %w", err)
	}
	defer rows.Close()

	var rates []models.RiskFreeRate
	for rows.Next() {
		var r models.RiskFreeRate
		if err := rows.Scan(&r.Date, &r.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan risk-free rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}
