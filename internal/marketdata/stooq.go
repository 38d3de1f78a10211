package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const stooqDefaultBaseURL = "https://stooq.com"

// StooqProvider fetches daily history as CSV from Stooq. It supplies
// prices only; fundamentals are always absent, so results from this
// source are flagged partial and backfilled later.
type StooqProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewStooqProvider creates a Stooq provider. An empty baseURL uses the
// public endpoint.
func NewStooqProvider(baseURL string) *StooqProvider {
	if baseURL == "" {
		baseURL = stooqDefaultBaseURL
	}
	return &StooqProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

func (p *StooqProvider) Name() string { return "stooq" }

func (p *StooqProvider) Fetch(ctx context.Context, symbol string) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// US equities carry a ".us" suffix on stooq
	stooqSymbol := strings.ToLower(symbol)
	if !strings.Contains(stooqSymbol, ".") {
		stooqSymbol += ".us"
	}

	start := time.Now().AddDate(-1, 0, 0)
	q := url.Values{}
	q.Set("s", stooqSymbol)
	q.Set("i", "d")
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", time.Now().Format("20060102"))
	reqURL := fmt.Sprintf("%s/q/d/l/?%s", p.baseURL, q.Encode())

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

	bars, err := parseStooqCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{Symbol: symbol, Bars: bars}, nil
}

// parseStooqCSV reads Date,Open,High,Low,Close,Volume rows. Rows with an
// unparsable date or close are dropped; missing optional fields become nil.
func parseStooqCSV(r io.Reader) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	var bars []Bar
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			continue
		}

		bar := Bar{Date: date, Close: closePrice}
		if v, err := strconv.ParseFloat(rec[1], 64); err == nil {
			bar.Open = finitePtr(v)
		}
		if v, err := strconv.ParseFloat(rec[2], 64); err == nil {
			bar.High = finitePtr(v)
		}
		if v, err := strconv.ParseFloat(rec[3], 64); err == nil {
			bar.Low = finitePtr(v)
		}
		if len(rec) > 5 {
			if v, err := strconv.ParseInt(rec[5], 10, 64); err == nil {
				bar.Volume = int64Ptr(v)
			}
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
