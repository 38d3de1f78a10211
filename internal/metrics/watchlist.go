package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// TickerMetrics is the computed view of one watchlist entry
type TickerMetrics struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name,omitempty"`
	CurrentPrice      float64  `json:"current_price"`
	DailyChangeDollar float64  `json:"daily_change_dollar"`
	DailyChangePct    float64  `json:"daily_change_pct"`
	WeeklyChangeD     float64  `json:"weekly_change_dollar"`
	WeeklyChangePct   float64  `json:"weekly_change_pct"`
	MarketCap         *int64   `json:"market_cap"`
	PERatio           *float64 `json:"pe_ratio"`
	Beta              *float64 `json:"beta"`
	Week52High        *float64 `json:"week_52_high"`
	Week52Low         *float64 `json:"week_52_low"`
}

// WatchlistMetrics is the computed view of a whole watchlist
type WatchlistMetrics struct {
	WatchlistID string          `json:"watchlist_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	NumTickers  int             `json:"num_tickers"`
	Tickers     []TickerMetrics `json:"tickers"`
}

// TickerInput bundles the rows needed to compute one watchlist entry.
// Latest nil means no price history; the entry is skipped. DayAgo and
// WeekAgo nil leave the respective change at zero.
type TickerInput struct {
	Symbol       string
	Name         string
	Latest       *models.PriceDaily
	DayAgo       *models.PriceDaily
	WeekAgo      *models.PriceDaily
	Fundamentals *models.Fundamentals
}

// ComputeWatchlist derives per-ticker change and fundamentals metrics
func ComputeWatchlist(w *models.Watchlist, inputs []TickerInput) *WatchlistMetrics {
	tickers := make([]TickerMetrics, 0, len(inputs))
	for _, in := range inputs {
		if in.Latest == nil {
			continue
		}

		tm := TickerMetrics{
			Symbol:       in.Symbol,
			Name:         in.Name,
			CurrentPrice: in.Latest.Close.InexactFloat64(),
		}
		tm.DailyChangeDollar, tm.DailyChangePct = changeFrom(in.Latest.Close, in.DayAgo)
		tm.WeeklyChangeD, tm.WeeklyChangePct = changeFrom(in.Latest.Close, in.WeekAgo)

		if f := in.Fundamentals; f != nil {
			tm.MarketCap = f.MarketCap
			tm.PERatio = decimalFloat(f.PERatio)
			tm.Beta = decimalFloat(f.Beta)
			tm.Week52High = decimalFloat(f.Week52High)
			tm.Week52Low = decimalFloat(f.Week52Low)
		}
		tickers = append(tickers, tm)
	}

	return &WatchlistMetrics{
		WatchlistID: w.ID.String(),
		Name:        w.Name,
		Description: w.Description,
		NumTickers:  len(tickers),
		Tickers:     tickers,
	}
}

func changeFrom(current decimal.Decimal, prev *models.PriceDaily) (dollar, pct float64) {
	if prev == nil {
		return 0, 0
	}
	diff := current.Sub(prev.Close)
	dollar = diff.InexactFloat64()
	if prev.Close.IsPositive() {
		pct = diff.Div(prev.Close).Mul(hundred).InexactFloat64()
	}
	return dollar, pct
}

func decimalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
