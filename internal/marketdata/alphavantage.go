package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const alphaVantageDefaultBaseURL = "https://www.alphavantage.co"

// AlphaVantageProvider fetches daily history from the AlphaVantage
// TIME_SERIES_DAILY endpoint. Requires an API key; fundamentals are not
// available on this plan so results are flagged partial.
type AlphaVantageProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewAlphaVantageProvider creates an AlphaVantage provider. The free
// tier allows 5 requests per minute, hence the conservative limiter.
func NewAlphaVantageProvider(baseURL, apiKey string) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = alphaVantageDefaultBaseURL
	}
	return &AlphaVantageProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
	}
}

func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

type alphaVantageResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
}

func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("apikey", p.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", p.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body alphaVantageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if body.ErrorMessage != "" {
		return nil, fmt.Errorf("api error: %s", body.ErrorMessage)
	}
	if body.Note != "" {
		return nil, fmt.Errorf("rate limited: %s", body.Note)
	}
	if len(body.TimeSeries) == 0 {
		return nil, fmt.Errorf("empty time series")
	}

	cutoff := time.Now().AddDate(-1, 0, 0)
	var bars []Bar
	for dateStr, fields := range body.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil || date.Before(cutoff) {
			continue
		}
		closePrice, err := strconv.ParseFloat(fields["4. close"], 64)
		if err != nil {
			continue
		}

		bar := Bar{Date: date, Close: closePrice}
		if v, err := strconv.ParseFloat(fields["1. open"], 64); err == nil {
			bar.Open = finitePtr(v)
		}
		if v, err := strconv.ParseFloat(fields["2. high"], 64); err == nil {
			bar.High = finitePtr(v)
		}
		if v, err := strconv.ParseFloat(fields["3. low"], 64); err == nil {
			bar.Low = finitePtr(v)
		}
		if v, err := strconv.ParseInt(fields["5. volume"], 10, 64); err == nil {
			bar.Volume = int64Ptr(v)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return &Result{Symbol: symbol, Bars: bars}, nil
}
