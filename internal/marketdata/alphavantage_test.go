package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphaVantageFetchSortsAscending(t *testing.T) {
	d1 := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	d2 := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	body := fmt.Sprintf(`{
	  "Time Series (Daily)": {
	    %q: {"1. open": "190.0", "2. high": "192.5", "3. low": "189.4", "4. close": "191.7", "5. volume": "48000000"},
	    %q: {"1. open": "189.1", "2. high": "191.0", "3. low": "188.5", "4. close": "190.2", "5. volume": "52000000"}
	  }
	}`, d2, d1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "demo-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(srv.URL, "demo-key")
	p.limiter.SetLimit(1000)
	result, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, result.Bars, 2)
	assert.True(t, result.Bars[0].Date.Before(result.Bars[1].Date), "bars come back oldest first")
	assert.Equal(t, 190.2, result.Bars[0].Close)
}

func TestAlphaVantageFetchDropsStaleDates(t *testing.T) {
	old := time.Now().AddDate(-2, 0, 0).Format("2006-01-02")
	recent := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	body := fmt.Sprintf(`{
	  "Time Series (Daily)": {
	    %q: {"1. open": "50.0", "2. high": "51.0", "3. low": "49.0", "4. close": "50.5", "5. volume": "1000"},
	    %q: {"1. open": "190.0", "2. high": "192.5", "3. low": "189.4", "4. close": "191.7", "5. volume": "48000000"}
	  }
	}`, old, recent)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(srv.URL, "demo-key")
	p.limiter.SetLimit(1000)
	result, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, result.Bars, 1)
	assert.Equal(t, 191.7, result.Bars[0].Close)
}

func TestAlphaVantageRateLimitNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`))
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(srv.URL, "demo-key")
	p.limiter.SetLimit(1000)
	_, err := p.Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAlphaVantageErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call"}`))
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(srv.URL, "demo-key")
	p.limiter.SetLimit(1000)
	_, err := p.Fetch(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API call")
}
