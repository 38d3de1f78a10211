package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwatch/finwatch-backend/internal/models"
)

const fredDefaultBaseURL = "https://api.stlouisfed.org"

// fredSeriesID is the 3-month Treasury bill rate used as the risk-free
// series.
const fredSeriesID = "DGS3MO"

// FREDClient fetches the risk-free rate series from the FRED macro data
// API. Requires an API key.
type FREDClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFREDClient creates a FRED client. An empty baseURL uses the public
// endpoint.
func NewFREDClient(baseURL, apiKey string) *FREDClient {
	if baseURL == "" {
		baseURL = fredDefaultBaseURL
	}
	return &FREDClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type fredObservationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchRiskFreeRates retrieves T-bill observations since start. FRED
// reports percentages; rates are returned as fractions. Missing
// observations (reported as ".") are dropped.
func (c *FREDClient) FetchRiskFreeRates(ctx context.Context, start time.Time) ([]models.RiskFreeRate, error) {
	q := url.Values{}
	q.Set("series_id", fredSeriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("observation_start", start.Format("2006-01-02"))
	reqURL := fmt.Sprintf("%s/fred/series/observations?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body fredObservationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}

	var rates []models.RiskFreeRate
	for _, obs := range body.Observations {
		if obs.Value == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		pct, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		rates = append(rates, models.RiskFreeRate{
			Date: date,
			Rate: decimal.NewFromFloat(pct / 100),
		})
	}
	return rates, nil
}
