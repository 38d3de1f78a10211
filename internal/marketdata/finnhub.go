package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const finnhubDefaultBaseURL = "https://finnhub.io"

// FinnhubProvider fetches daily candles and a company profile from
// Finnhub. Requires an API key. Last resort in the fallback chain.
type FinnhubProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewFinnhubProvider creates a Finnhub provider
func NewFinnhubProvider(baseURL, apiKey string) *FinnhubProvider {
	if baseURL == "" {
		baseURL = finnhubDefaultBaseURL
	}
	return &FinnhubProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (p *FinnhubProvider) Name() string { return "finnhub" }

type finnhubCandles struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

type finnhubProfile struct {
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	MarketCap float64 `json:"marketCapitalization"`
}

func (p *FinnhubProvider) Fetch(ctx context.Context, symbol string) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", fmt.Sprintf("%d", now.AddDate(-1, 0, 0).Unix()))
	q.Set("to", fmt.Sprintf("%d", now.Unix()))
	q.Set("token", p.apiKey)
	candlesURL := fmt.Sprintf("%s/api/v1/stock/candle?%s", p.baseURL, q.Encode())

	var candles finnhubCandles
	if err := p.getJSON(ctx, candlesURL, &candles); err != nil {
		return nil, err
	}
	if candles.Status != "ok" || len(candles.Closes) == 0 {
		return nil, fmt.Errorf("no candle data (status %q)", candles.Status)
	}

	result := &Result{Symbol: symbol}
	for i, ts := range candles.Times {
		if i >= len(candles.Closes) {
			break
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: candles.Closes[i],
		}
		if i < len(candles.Opens) {
			bar.Open = finitePtr(candles.Opens[i])
		}
		if i < len(candles.Highs) {
			bar.High = finitePtr(candles.Highs[i])
		}
		if i < len(candles.Lows) {
			bar.Low = finitePtr(candles.Lows[i])
		}
		if i < len(candles.Volumes) {
			bar.Volume = int64Ptr(int64(candles.Volumes[i]))
		}
		result.Bars = append(result.Bars, bar)
	}

	// Profile is best effort: candle data alone is still a success
	pq := url.Values{}
	pq.Set("symbol", symbol)
	pq.Set("token", p.apiKey)
	profileURL := fmt.Sprintf("%s/api/v1/stock/profile2?%s", p.baseURL, pq.Encode())

	var profile finnhubProfile
	if err := p.getJSON(ctx, profileURL, &profile); err == nil {
		result.Name = profile.Name
		result.Exchange = profile.Exchange
		if profile.MarketCap > 0 {
			// finnhub reports market cap in millions
			result.Fundamentals.MarketCap = int64Ptr(int64(profile.MarketCap * 1_000_000))
		}
	}

	return result, nil
}

func (p *FinnhubProvider) getJSON(ctx context.Context, reqURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
