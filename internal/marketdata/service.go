package marketdata

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finwatch/finwatch-backend/internal/database"
	"github.com/finwatch/finwatch-backend/internal/models"
)

const (
	defaultRangeDays = 365
	maxRangeDays     = 1825
)

// defaultBenchmarks are the index ETFs served by GET /api/benchmarks
var defaultBenchmarks = []string{"SPY", "QQQ", "DIA"}

// Store is the persistence surface the service depends on.
// *database.DB satisfies it.
type Store interface {
	GetTickerBySymbol(symbol string) (*models.Ticker, error)
	UpsertTicker(symbol, name, exchange string) (uuid.UUID, error)
	GetPriceHistory(tickerID uuid.UUID, limit int) ([]*models.PriceDaily, error)
	UpsertPriceRows(prices []*models.PriceDaily) (int, error)
	GetFundamentals(tickerID uuid.UUID) (*models.Fundamentals, error)
	UpsertFundamentals(f *models.Fundamentals) error
	UpsertRiskFreeRates(rates []models.RiskFreeRate) (int, error)
}

// RefreshStats summarizes a bulk refresh run
type RefreshStats struct {
	Tickers  int       `json:"tickers"`
	Prices   int       `json:"prices"`
	RiskFree int       `json:"risk_free"`
	Skipped  int       `json:"skipped"`
	Failures []Attempt `json:"failures,omitempty"`
}

// Service composes the fallback orchestrator, the freshness cache, the
// optional Redis response cache, and the persistence sink behind the
// market data endpoints.
type Service struct {
	store      Store
	orch       *Orchestrator
	fresh      *FreshnessCache
	responses  *ResponseCache
	riskFree   *FREDClient
	benchmarks []string
	log        *logrus.Entry
}

// NewService wires a market data service. responses and riskFree may be
// nil, disabling the Redis layer and the risk-free refresh respectively.
func NewService(store Store, orch *Orchestrator, fresh *FreshnessCache, responses *ResponseCache, riskFree *FREDClient, log *logrus.Entry) *Service {
	return &Service{
		store:      store,
		orch:       orch,
		fresh:      fresh,
		responses:  responses,
		riskFree:   riskFree,
		benchmarks: defaultBenchmarks,
		log:        log,
	}
}

// GetMarketData serves GET /api/data/{symbol}. Persisted rows win; on a
// database miss the fallback chain runs (through the freshness cache,
// so a failing symbol is not re-fetched within the TTL) and the result
// is persisted before responding.
func (s *Service) GetMarketData(ctx context.Context, symbol string, rangeDays int) (*models.MarketData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if rangeDays <= 0 {
		rangeDays = defaultRangeDays
	}
	if rangeDays > maxRangeDays {
		rangeDays = maxRangeDays
	}

	if md, ok := s.fromDatabase(symbol, rangeDays); ok {
		return md, nil
	}

	if s.responses != nil {
		if md, found, err := s.responses.Get(ctx, symbol, rangeDays); err != nil {
			s.log.WithError(err).Warn("response cache read failed")
		} else if found {
			return md, nil
		}
	}

	result, err := s.fresh.GetOrFetch(ctx, symbol, s.orch.Fetch)
	if err != nil {
		return nil, err
	}

	if _, err := s.persist(result); err != nil {
		s.log.WithField("symbol", symbol).WithError(err).Error("failed to persist fetched data")
	}

	md := buildMarketData(result, rangeDays)
	if s.responses != nil {
		if err := s.responses.Set(ctx, symbol, rangeDays, md); err != nil {
			s.log.WithError(err).Warn("response cache write failed")
		}
	}
	return md, nil
}

// GetBenchmarks returns quote snapshots for the benchmark symbols.
// Failures degrade to per-symbol error objects rather than failing the
// whole response, and failed fetches are cached like any other.
func (s *Service) GetBenchmarks(ctx context.Context) []models.BenchmarkQuote {
	quotes := make([]models.BenchmarkQuote, 0, len(s.benchmarks))
	for _, symbol := range s.benchmarks {
		result, err := s.fresh.GetOrFetch(ctx, symbol, s.orch.Fetch)
		if err != nil {
			quotes = append(quotes, models.BenchmarkQuote{
				Symbol: symbol,
				Error:  "failed to fetch data for " + symbol,
			})
			continue
		}

		latest, prev := result.LatestClose()
		change := latest - prev
		changePct := 0.0
		if prev != 0 {
			changePct = change / prev * 100
		}
		quotes = append(quotes, models.BenchmarkQuote{
			Symbol:          symbol,
			LastBusinessDay: result.Bars[len(result.Bars)-1].Date.Format("2006-01-02"),
			Close:           round2(latest),
			PreviousClose:   round2(prev),
			Change:          round2(change),
			ChangePct:       round2(changePct),
		})
	}
	return quotes
}

// Refresh fetches and persists data for a symbol list, bypassing the
// freshness cache so stale rows are actually replaced. Per-symbol
// failures are recorded and skipped, not fatal. Also refreshes the
// risk-free series when a FRED client is configured.
func (s *Service) Refresh(ctx context.Context, symbols []string) (*RefreshStats, error) {
	stats := &RefreshStats{}
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		result, err := s.orch.Fetch(ctx, symbol)
		if err != nil {
			stats.Skipped++
			stats.Failures = append(stats.Failures, Attempt{Source: symbol, Error: err.Error()})
			continue
		}

		rows, err := s.persist(result)
		if err != nil {
			stats.Skipped++
			stats.Failures = append(stats.Failures, Attempt{Source: symbol, Error: err.Error()})
			continue
		}
		stats.Tickers++
		stats.Prices += rows
	}

	if s.riskFree != nil {
		rates, err := s.riskFree.FetchRiskFreeRates(ctx, time.Now().AddDate(-5, 0, 0))
		if err != nil {
			s.log.WithError(err).Warn("risk-free rate refresh failed")
		} else if n, err := s.store.UpsertRiskFreeRates(rates); err != nil {
			s.log.WithError(err).Error("failed to persist risk-free rates")
		} else {
			stats.RiskFree = n
		}
	}
	return stats, nil
}

// fromDatabase assembles a response from persisted rows, returning
// ok=false when the ticker or its price history is absent.
func (s *Service) fromDatabase(symbol string, rangeDays int) (*models.MarketData, bool) {
	ticker, err := s.store.GetTickerBySymbol(symbol)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.log.WithField("symbol", symbol).WithError(err).Error("ticker lookup failed")
		}
		return nil, false
	}

	prices, err := s.store.GetPriceHistory(ticker.ID, rangeDays)
	if err != nil {
		s.log.WithField("symbol", symbol).WithError(err).Error("price history lookup failed")
		return nil, false
	}
	if len(prices) == 0 {
		return nil, false
	}

	md := &models.MarketData{Symbol: symbol, Source: "db"}
	var week52High, week52Low *float64
	for _, p := range prices {
		closeF, _ := p.Close.Float64()
		bar := models.OHLCBar{
			float64(p.Date.UnixMilli()),
			floatOrZero(p.Open),
			floatOrZero(p.High),
			floatOrZero(p.Low),
			closeF,
			0,
		}
		if p.Volume != nil {
			bar[5] = float64(*p.Volume)
		}
		md.OHLC = append(md.OHLC, bar)

		if p.High != nil {
			h, _ := p.High.Float64()
			if week52High == nil || h > *week52High {
				week52High = &h
			}
		}
		if p.Low != nil {
			l, _ := p.Low.Float64()
			if week52Low == nil || l < *week52Low {
				week52Low = &l
			}
		}
	}

	md.Latest.Close, _ = prices[len(prices)-1].Close.Float64()
	md.Latest.PrevClose = md.Latest.Close
	if len(prices) > 1 {
		md.Latest.PrevClose, _ = prices[len(prices)-2].Close.Float64()
	}

	fund, err := s.store.GetFundamentals(ticker.ID)
	if err == nil {
		md.Fundamentals = models.FundamentalsView{
			TrailingPE: decimalToFloat(fund.PERatio),
			MarketCap:  fund.MarketCap,
			Beta:       decimalToFloat(fund.Beta),
			AvgVolume:  fund.AvgVolume,
		}
		md.Fundamentals.FiftyTwoWeekHigh = decimalToFloat(fund.Week52High)
		md.Fundamentals.FiftyTwoWeekLow = decimalToFloat(fund.Week52Low)
	} else if !errors.Is(err, database.ErrNotFound) {
		s.log.WithField("symbol", symbol).WithError(err).Warn("fundamentals lookup failed")
	}

	// derive 52-week range from price rows when the snapshot lacks it
	if md.Fundamentals.FiftyTwoWeekHigh == nil {
		md.Fundamentals.FiftyTwoWeekHigh = week52High
	}
	if md.Fundamentals.FiftyTwoWeekLow == nil {
		md.Fundamentals.FiftyTwoWeekLow = week52Low
	}
	return md, true
}

// persist writes a fetched result through the sink: ticker row, chunked
// price upserts with the fundamentals-derived columns attached, and the
// fundamentals snapshot when any field is present.
func (s *Service) persist(result *Result) (int, error) {
	tickerID, err := s.store.UpsertTicker(result.Symbol, result.Name, result.Exchange)
	if err != nil {
		return 0, err
	}

	f := result.Fundamentals
	rows := make([]*models.PriceDaily, 0, len(result.Bars))
	for _, bar := range result.Bars {
		rows = append(rows, &models.PriceDaily{
			TickerID:  tickerID,
			Date:      bar.Date,
			Open:      floatToDecimal(bar.Open),
			High:      floatToDecimal(bar.High),
			Low:       floatToDecimal(bar.Low),
			Close:     decimal.NewFromFloat(bar.Close),
			Volume:    bar.Volume,
			AvgVolume: f.AvgVolume,
			PE:        floatToDecimal(f.TrailingPE),
			MarketCap: f.MarketCap,
		})
	}

	written, err := s.store.UpsertPriceRows(rows)
	if err != nil {
		return written, err
	}

	if f.TrailingPE != nil || f.MarketCap != nil || f.Beta != nil ||
		f.Week52High != nil || f.Week52Low != nil || f.AvgVolume != nil {
		err = s.store.UpsertFundamentals(&models.Fundamentals{
			TickerID:   tickerID,
			PERatio:    floatToDecimal(f.TrailingPE),
			MarketCap:  f.MarketCap,
			Beta:       floatToDecimal(f.Beta),
			Week52High: floatToDecimal(f.Week52High),
			Week52Low:  floatToDecimal(f.Week52Low),
			AvgVolume:  f.AvgVolume,
			Source:     result.Source,
		})
		if err != nil {
			s.log.WithField("symbol", result.Symbol).WithError(err).Error("failed to persist fundamentals")
		}
	}
	return written, nil
}

// buildMarketData converts a fetched result into the response shape,
// keeping at most the trailing rangeDays bars.
func buildMarketData(result *Result, rangeDays int) *models.MarketData {
	bars := result.Bars
	if len(bars) > rangeDays {
		bars = bars[len(bars)-rangeDays:]
	}

	md := &models.MarketData{Symbol: result.Symbol, Source: result.Source}
	for _, bar := range bars {
		ohlc := models.OHLCBar{
			float64(bar.Date.UnixMilli()),
			derefOrZero(bar.Open),
			derefOrZero(bar.High),
			derefOrZero(bar.Low),
			bar.Close,
			0,
		}
		if bar.Volume != nil {
			ohlc[5] = float64(*bar.Volume)
		}
		md.OHLC = append(md.OHLC, ohlc)
	}

	md.Latest.Close, md.Latest.PrevClose = result.LatestClose()
	md.Fundamentals = models.FundamentalsView{
		TrailingPE:       result.Fundamentals.TrailingPE,
		MarketCap:        result.Fundamentals.MarketCap,
		FiftyTwoWeekHigh: result.Fundamentals.Week52High,
		FiftyTwoWeekLow:  result.Fundamentals.Week52Low,
		Beta:             result.Fundamentals.Beta,
		AvgVolume:        result.Fundamentals.AvgVolume,
	}
	return md
}

func floatOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func floatToDecimal(v *float64) *decimal.Decimal {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
