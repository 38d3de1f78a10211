package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/finwatch-backend/internal/models"
)

func TestWatchlistRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateWatchlist fills generated fields", func(t *testing.T) {
		testDB.TruncateAll(t)

		w := &models.Watchlist{Name: "tech", Description: "core tech names"}
		require.NoError(t, testDB.CreateWatchlist(w))

		assert.NotEqual(t, uuid.Nil, w.ID)
		assert.False(t, w.CreatedAt.IsZero())
		assert.NotNil(t, w.Tickers)
		assert.Empty(t, w.Tickers)
	})

	t.Run("GetWatchlist returns tickers", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedTicker(t, testDB, "AAPL")

		w := &models.Watchlist{Name: "tech"}
		require.NoError(t, testDB.CreateWatchlist(w))
		require.NoError(t, testDB.AddWatchlistTicker(w.ID, "AAPL"))

		got, err := testDB.GetWatchlist(w.ID)
		require.NoError(t, err)
		require.Len(t, got.Tickers, 1)
		assert.Equal(t, "AAPL", got.Tickers[0].Symbol)
	})

	t.Run("GetWatchlist unknown id returns ErrNotFound", func(t *testing.T) {
		_, err := testDB.GetWatchlist(uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AddWatchlistTicker is idempotent", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedTicker(t, testDB, "AAPL")

		w := &models.Watchlist{Name: "tech"}
		require.NoError(t, testDB.CreateWatchlist(w))

		require.NoError(t, testDB.AddWatchlistTicker(w.ID, "AAPL"))
		require.NoError(t, testDB.AddWatchlistTicker(w.ID, "AAPL"))

		tickers, err := testDB.ListWatchlistTickers(w.ID)
		require.NoError(t, err)
		assert.Len(t, tickers, 1, "repeat add must not duplicate the entry")
	})

	t.Run("AddWatchlistTicker creates the ticker on first reference", func(t *testing.T) {
		testDB.TruncateAll(t)

		w := &models.Watchlist{Name: "tech"}
		require.NoError(t, testDB.CreateWatchlist(w))

		require.NoError(t, testDB.AddWatchlistTicker(w.ID, "newco"))

		ticker, err := testDB.GetTickerBySymbol("NEWCO")
		require.NoError(t, err, "an unseen symbol gets a ticker row, not an error")
		assert.Empty(t, ticker.Name)

		tickers, err := testDB.ListWatchlistTickers(w.ID)
		require.NoError(t, err)
		require.Len(t, tickers, 1)
		assert.Equal(t, "NEWCO", tickers[0].Symbol)
	})

	t.Run("RemoveWatchlistTicker deletes membership only", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedTicker(t, testDB, "AAPL")

		w := &models.Watchlist{Name: "tech"}
		require.NoError(t, testDB.CreateWatchlist(w))
		require.NoError(t, testDB.AddWatchlistTicker(w.ID, "AAPL"))

		require.NoError(t, testDB.RemoveWatchlistTicker(w.ID, "aapl"))

		tickers, err := testDB.ListWatchlistTickers(w.ID)
		require.NoError(t, err)
		assert.Empty(t, tickers)

		_, err = testDB.GetTickerBySymbol("AAPL")
		assert.NoError(t, err, "the ticker row itself must survive")
	})

	t.Run("DeleteWatchlist cascades membership", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedTicker(t, testDB, "AAPL")

		w := &models.Watchlist{Name: "tech"}
		require.NoError(t, testDB.CreateWatchlist(w))
		require.NoError(t, testDB.AddWatchlistTicker(w.ID, "AAPL"))

		require.NoError(t, testDB.DeleteWatchlist(w.ID))

		var count int
		err := testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM watchlist_tickers`).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)

		assert.ErrorIs(t, testDB.DeleteWatchlist(w.ID), ErrNotFound)
	})

	t.Run("ListWatchlists newest first", func(t *testing.T) {
		testDB.TruncateAll(t)

		first := &models.Watchlist{Name: "first"}
		require.NoError(t, testDB.CreateWatchlist(first))
		second := &models.Watchlist{Name: "second"}
		require.NoError(t, testDB.CreateWatchlist(second))

		lists, err := testDB.ListWatchlists()
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.Equal(t, "second", lists[0].Name)
	})
}
