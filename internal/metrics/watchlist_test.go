package metrics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/finwatch-backend/internal/models"
)

func priceAt(close float64) *models.PriceDaily {
	return &models.PriceDaily{Close: dec(close)}
}

func TestComputeWatchlistChanges(t *testing.T) {
	w := &models.Watchlist{ID: uuid.New(), Name: "tech", Description: "core tech names"}

	mc := int64(2_950_000_000_000)
	m := ComputeWatchlist(w, []TickerInput{
		{
			Symbol:  "AAPL",
			Name:    "Apple Inc.",
			Latest:  priceAt(110),
			DayAgo:  priceAt(100),
			WeekAgo: priceAt(88),
			Fundamentals: &models.Fundamentals{
				MarketCap: &mc,
				PERatio:   decPtr(29.8),
				Beta:      decPtr(1.28),
			},
		},
	})

	assert.Equal(t, "tech", m.Name)
	require.Equal(t, 1, m.NumTickers)
	tm := m.Tickers[0]
	assert.Equal(t, 110.0, tm.CurrentPrice)
	assert.Equal(t, 10.0, tm.DailyChangeDollar)
	assert.Equal(t, 10.0, tm.DailyChangePct)
	assert.Equal(t, 22.0, tm.WeeklyChangeD)
	assert.Equal(t, 25.0, tm.WeeklyChangePct)
	require.NotNil(t, tm.PERatio)
	assert.Equal(t, 29.8, *tm.PERatio)
	assert.Equal(t, mc, *tm.MarketCap)
}

func TestComputeWatchlistMissingHistory(t *testing.T) {
	w := &models.Watchlist{ID: uuid.New(), Name: "mixed"}

	m := ComputeWatchlist(w, []TickerInput{
		{Symbol: "AAPL", Latest: priceAt(110)},
		{Symbol: "NEWIPO"},
	})

	require.Equal(t, 1, m.NumTickers, "entries without price history are skipped")
	tm := m.Tickers[0]
	assert.Equal(t, 0.0, tm.DailyChangeDollar, "no prior close leaves change at zero")
	assert.Equal(t, 0.0, tm.WeeklyChangePct)
	assert.Nil(t, tm.PERatio)
	assert.Nil(t, tm.MarketCap)
}

func TestChangeFromZeroPrevClose(t *testing.T) {
	dollar, pct := changeFrom(dec(10), &models.PriceDaily{Close: dec(0)})
	assert.Equal(t, 10.0, dollar)
	assert.Equal(t, 0.0, pct, "zero denominator yields 0 percent")
}
