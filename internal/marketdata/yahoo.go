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

const yahooDefaultBaseURL = "https://query1.finance.yahoo.com"

// Yahoo rejects requests without a browser-looking agent
const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// YahooProvider fetches one year of daily candles from the unauthenticated
// Yahoo Finance chart endpoint. Primary source in the fallback chain.
type YahooProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewYahooProvider creates a Yahoo provider. An empty baseURL uses the
// public endpoint.
func NewYahooProvider(baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooDefaultBaseURL
	}
	return &YahooProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				ExchangeName       string   `json:"exchangeName"`
				LongName           string   `json:"longName"`
				ShortName          string   `json:"shortName"`
				RegularMarketPrice float64  `json:"regularMarketPrice"`
				TrailingPE         *float64 `json:"trailingPE"`
				MarketCap          *int64   `json:"marketCap"`
				Beta               *float64 `json:"beta"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("range", "1y")
	q.Set("interval", "1d")
	q.Set("includePrePost", "true")
	q.Set("events", "div,split")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("chart error: %s", body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}

	chart := body.Chart.Result[0]
	quote := chart.Indicators.Quote[0]

	result := &Result{
		Symbol:   symbol,
		Name:     chart.Meta.LongName,
		Exchange: chart.Meta.ExchangeName,
	}
	if result.Name == "" {
		result.Name = chart.Meta.ShortName
	}

	var week52High, week52Low *float64
	for i, ts := range chart.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = finitePtr(*quote.Open[i])
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = finitePtr(*quote.High[i])
			if h := quote.High[i]; week52High == nil || *h > *week52High {
				week52High = finitePtr(*h)
			}
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = finitePtr(*quote.Low[i])
			if l := quote.Low[i]; week52Low == nil || *l < *week52Low {
				week52Low = finitePtr(*l)
			}
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = quote.Volume[i]
		}
		// pre/post entries can truncate onto the same UTC day; the last wins
		if n := len(result.Bars); n > 0 && result.Bars[n-1].Date.Equal(bar.Date) {
			result.Bars[n-1] = bar
			continue
		}
		result.Bars = append(result.Bars, bar)
	}

	result.Fundamentals = Fundamentals{
		TrailingPE: chart.Meta.TrailingPE,
		MarketCap:  chart.Meta.MarketCap,
		Beta:       chart.Meta.Beta,
		Week52High: week52High,
		Week52Low:  week52Low,
	}
	return result, nil
}
