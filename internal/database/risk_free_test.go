package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/finwatch-backend/internal/models"
)

func TestRiskFreeRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)

	t.Run("UpsertRiskFreeRates overwrites on date conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		n, err := testDB.UpsertRiskFreeRates([]models.RiskFreeRate{
			{Date: day, Rate: decimal.NewFromFloat(0.0525)},
			{Date: day.AddDate(0, 0, 1), Rate: decimal.NewFromFloat(0.0530)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = testDB.UpsertRiskFreeRates([]models.RiskFreeRate{
			{Date: day, Rate: decimal.NewFromFloat(0.0510)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		rates, err := testDB.GetRiskFreeRates(day, day.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, rates, 2)
		assert.True(t, decimal.NewFromFloat(0.0510).Equal(rates[0].Rate))
		assert.True(t, rates[0].Date.Before(rates[1].Date))
	})

	t.Run("UpsertRiskFreeRates empty input is a no-op", func(t *testing.T) {
		n, err := testDB.UpsertRiskFreeRates(nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
