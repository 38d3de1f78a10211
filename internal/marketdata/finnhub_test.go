package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinnhubFetchCandlesAndProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/stock/candle":
			assert.Equal(t, "D", r.URL.Query().Get("resolution"))
			assert.Equal(t, "demo-key", r.URL.Query().Get("token"))
			w.Write([]byte(`{"s":"ok","t":[1717027200,1717113600],"o":[189.1,190.0],"h":[191.0,192.5],"l":[188.5,189.4],"c":[190.2,191.7],"v":[52000000,48000000]}`))
		case "/api/v1/stock/profile2":
			w.Write([]byte(`{"name":"Apple Inc","exchange":"NASDAQ NMS - GLOBAL MARKET","marketCapitalization":2950000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewFinnhubProvider(srv.URL, "demo-key")
	result, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, result.Bars, 2)
	assert.Equal(t, 190.2, result.Bars[0].Close)
	assert.Equal(t, "Apple Inc", result.Name)
	require.NotNil(t, result.Fundamentals.MarketCap)
	assert.Equal(t, int64(2_950_000_000_000), *result.Fundamentals.MarketCap)
}

func TestFinnhubNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	p := NewFinnhubProvider(srv.URL, "demo-key")
	_, err := p.Fetch(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_data")
}

func TestFinnhubProfileFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/stock/candle" {
			w.Write([]byte(`{"s":"ok","t":[1717027200],"o":[189.1],"h":[191.0],"l":[188.5],"c":[190.2],"v":[52000000]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewFinnhubProvider(srv.URL, "demo-key")
	result, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, result.Bars, 1)
	assert.Empty(t, result.Name)
	assert.Nil(t, result.Fundamentals.MarketCap)
}
