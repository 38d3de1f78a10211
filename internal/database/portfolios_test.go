package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/finwatch-backend/internal/models"
)

func seedPortfolio(t *testing.T, testDB *TestDB) *models.Portfolio {
	t.Helper()
	p := &models.Portfolio{
		Name:          "growth",
		InceptionDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		InitialValue:  decimal.NewFromInt(10000),
	}
	require.NoError(t, testDB.CreatePortfolio(p))
	return p
}

func TestPortfolioRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreatePortfolio fills generated fields", func(t *testing.T) {
		testDB.TruncateAll(t)

		p := seedPortfolio(t, testDB)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.False(t, p.CreatedAt.IsZero())
	})

	t.Run("GetPortfolio returns holdings", func(t *testing.T) {
		testDB.TruncateAll(t)
		tickerID := seedTicker(t, testDB, "AAPL")
		p := seedPortfolio(t, testDB)

		cost := decimal.NewFromFloat(150.25)
		h := &models.Holding{
			PortfolioID: p.ID,
			TickerID:    tickerID,
			Shares:      decimal.NewFromInt(10),
			AverageCost: &cost,
		}
		require.NoError(t, testDB.UpsertHolding(h))

		got, err := testDB.GetPortfolio(p.ID)
		require.NoError(t, err)
		require.Len(t, got.Holdings, 1)
		assert.Equal(t, "AAPL", got.Holdings[0].Symbol)
		require.NotNil(t, got.Holdings[0].AverageCost)
		assert.True(t, cost.Equal(*got.Holdings[0].AverageCost))
	})

	t.Run("UpsertHolding replaces rather than accumulates", func(t *testing.T) {
		testDB.TruncateAll(t)
		tickerID := seedTicker(t, testDB, "AAPL")
		p := seedPortfolio(t, testDB)

		first := &models.Holding{PortfolioID: p.ID, TickerID: tickerID, Shares: decimal.NewFromInt(10)}
		require.NoError(t, testDB.UpsertHolding(first))

		second := &models.Holding{PortfolioID: p.ID, TickerID: tickerID, Shares: decimal.NewFromInt(5)}
		require.NoError(t, testDB.UpsertHolding(second))

		holdings, err := testDB.ListHoldings(p.ID)
		require.NoError(t, err)
		require.Len(t, holdings, 1, "exactly one row per (portfolio, ticker)")
		assert.True(t, decimal.NewFromInt(5).Equal(holdings[0].Shares), "latest write wins in full")
	})

	t.Run("DeleteHolding removes one position", func(t *testing.T) {
		testDB.TruncateAll(t)
		aapl := seedTicker(t, testDB, "AAPL")
		msft := seedTicker(t, testDB, "MSFT")
		p := seedPortfolio(t, testDB)

		require.NoError(t, testDB.UpsertHolding(&models.Holding{PortfolioID: p.ID, TickerID: aapl, Shares: decimal.NewFromInt(10)}))
		require.NoError(t, testDB.UpsertHolding(&models.Holding{PortfolioID: p.ID, TickerID: msft, Shares: decimal.NewFromInt(5)}))

		require.NoError(t, testDB.DeleteHolding(p.ID, "aapl"))

		holdings, err := testDB.ListHoldings(p.ID)
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.Equal(t, "MSFT", holdings[0].Symbol)

		assert.ErrorIs(t, testDB.DeleteHolding(p.ID, "AAPL"), ErrNotFound)
	})

	t.Run("DeletePortfolio cascades holdings", func(t *testing.T) {
		testDB.TruncateAll(t)
		tickerID := seedTicker(t, testDB, "AAPL")
		p := seedPortfolio(t, testDB)

		require.NoError(t, testDB.UpsertHolding(&models.Holding{PortfolioID: p.ID, TickerID: tickerID, Shares: decimal.NewFromInt(10)}))
		require.NoError(t, testDB.DeletePortfolio(p.ID))

		var count int
		err := testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM portfolio_holding`).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)

		assert.ErrorIs(t, testDB.DeletePortfolio(p.ID), ErrNotFound)
	})

	t.Run("OpenPriceOnOrBefore falls back to close", func(t *testing.T) {
		testDB.TruncateAll(t)
		tickerID := seedTicker(t, testDB, "AAPL")

		date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		withOpen := priceRow(tickerID, date, 170)
		require.NoError(t, testDB.UpsertPriceRow(withOpen))

		closeOnly := &models.PriceDaily{
			TickerID: tickerID,
			Date:     date.AddDate(0, 0, 1),
			Close:    decimal.NewFromFloat(172),
		}
		require.NoError(t, testDB.UpsertPriceRow(closeOnly))

		open, err := testDB.OpenPriceOnOrBefore(tickerID, date)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(169).Equal(open))

		fallback, err := testDB.OpenPriceOnOrBefore(tickerID, date.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(172).Equal(fallback), "missing open falls back to close")
	})
}
