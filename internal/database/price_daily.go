package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// upsertChunkSize bounds the number of rows written per transaction so a
// single statement never grows unbounded.
const upsertChunkSize = 500

const upsertPriceQuery = `
	INSERT INTO price_daily (ticker_id, date, open, high, low, close, volume, avg_volume, pe, market_cap)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (ticker_id, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		avg_volume = EXCLUDED.avg_volume,
		pe = EXCLUDED.pe,
		market_cap = EXCLUDED.market_cap
`

// UpsertPriceRow inserts or overwrites a single (ticker, date) price row
func (db *DB) UpsertPriceRow(p *models.PriceDaily) error {
	_, err := db.conn.Exec(upsertPriceQuery,
		p.TickerID, p.Date, nullDecimal(p.Open), nullDecimal(p.High), nullDecimal(p.Low),
		p.Close, nullInt(p.Volume), nullInt(p.AvgVolume), nullDecimal(p.PE), nullInt(p.MarketCap),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price row for %s: %w", p.Date.Format("2006-01-02"), err)
	}
	return nil
}

// UpsertPriceRows writes price history in fixed-size chunks, each chunk
// committed in its own transaction. A chunk that fails is retried row by
// row so one bad row does not sacrifice its neighbors. Returns the number
// of rows written.
func (db *DB) UpsertPriceRows(prices []*models.PriceDaily) (int, error) {
	written := 0
	for _, chunk := range ChunkPrices(prices, upsertChunkSize) {
		n, err := db.upsertPriceChunk(chunk)
		if err != nil {
			// degrade to per-row inserts for this chunk
			n = 0
			for _, p := range chunk {
				if rowErr := db.UpsertPriceRow(p); rowErr == nil {
					n++
				}
			}
		}
		written += n
	}
	if written == 0 && len(prices) > 0 {
		return 0, fmt.Errorf("failed to upsert any of %d price rows", len(prices))
	}
	return written, nil
}

func (db *DB) upsertPriceChunk(prices []*models.PriceDaily) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertPriceQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		_, err := stmt.Exec(
			p.TickerID, p.Date, nullDecimal(p.Open), nullDecimal(p.High), nullDecimal(p.Low),
			p.Close, nullInt(p.Volume), nullInt(p.AvgVolume), nullDecimal(p.PE), nullInt(p.MarketCap),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert price row for %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(prices), nil
}

// ChunkPrices splits rows into slices of at most size elements,
// preserving order.
func ChunkPrices(prices []*models.PriceDaily, size int) [][]*models.PriceDaily {
	if size <= 0 {
		size = upsertChunkSize
	}
	var chunks [][]*models.PriceDaily
	for start := 0; start < len(prices); start += size {
		end := start + size
		if end > len(prices) {
			end = len(prices)
		}
		chunks = append(chunks, prices[start:end])
	}
	return chunks
}

const selectPriceColumns = `
	SELECT id, ticker_id, date, open, high, low, close, volume, avg_volume, pe, market_cap
	FROM price_daily
`

// GetPriceHistory retrieves the most recent limit rows for a ticker,
// returned in ascending date order with no duplicate dates.
func (db *DB) GetPriceHistory(tickerID uuid.UUID, limit int) ([]*models.PriceDaily, error) {
	query := `
		SELECT * FROM (` + selectPriceColumns + `
			WHERE ticker_id = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, tickerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()
	return scanPriceRows(rows)
}

// GetLatestPrice retrieves the most recent price row for a ticker
func (db *DB) GetLatestPrice(tickerID uuid.UUID) (*models.PriceDaily, error) {
	return db.GetPriceOnOrBefore(tickerID, time.Now())
}

// GetPriceOnOrBefore retrieves the most recent price row at or before the
// given date.
func (db *DB) GetPriceOnOrBefore(tickerID uuid.UUID, date time.Time) (*models.PriceDaily, error) {
	query := selectPriceColumns + `
		WHERE ticker_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`
	rows, err := db.conn.Query(query, tickerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	defer rows.Close()

	prices, err := scanPriceRows(rows)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("price for ticker %s: %w", tickerID, ErrNotFound)
	}
	return prices[0], nil
}

func scanPriceRows(rows *sql.Rows) ([]*models.PriceDaily, error) {
	var prices []*models.PriceDaily
	for rows.Next() {
		var p models.PriceDaily
		var open, high, low, pe sql.NullString
		var volume, avgVolume, marketCap sql.NullInt64

		err := rows.Scan(
			&p.ID, &p.TickerID, &p.Date, &open, &high, &low, &p.Close,
			&volume, &avgVolume, &pe, &marketCap,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}

		p.Open = decimalPtr(open)
		p.High = decimalPtr(high)
		p.Low = decimalPtr(low)
		p.PE = decimalPtr(pe)
		p.Volume = intPtr(volume)
		p.AvgVolume = intPtr(avgVolume)
		p.MarketCap = intPtr(marketCap)
		prices = append(prices, &p)
	}
	return prices, rows.Err()
}

func decimalPtr(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}

func nullInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
