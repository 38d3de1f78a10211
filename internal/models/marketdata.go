package models

// OHLCBar is one candle serialized as a 6-element JSON array:
// [epoch_ms, open, high, low, close, volume]
type OHLCBar [6]float64

// LatestQuote carries the most recent and previous closing prices
type LatestQuote struct {
	Close     float64 `json:"close"`
	PrevClose float64 `json:"prevClose"`
}

// FundamentalsView is the fundamentals object embedded in market data
// responses. Nil fields serialize as JSON null so "no data" stays
// distinguishable from zero.
type FundamentalsView struct {
	TrailingPE       *float64 `json:"trailingPE"`
	MarketCap        *int64   `json:"marketCap"`
	FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  *float64 `json:"fiftyTwoWeekLow"`
	Beta             *float64 `json:"beta"`
	AvgVolume        *int64   `json:"avgVolume"`
}

// MarketData is the response body of GET /api/data/{symbol}
type MarketData struct {
	Symbol       string           `json:"symbol"`
	Latest       LatestQuote      `json:"latest"`
	OHLC         []OHLCBar        `json:"ohlc"`
	Fundamentals FundamentalsView `json:"fundamentals"`
	Source       string           `json:"source,omitempty"`
}

// BenchmarkQuote is one entry of GET /api/benchmarks. Either the price
// fields or Error is populated, never both.
type BenchmarkQuote struct {
	Symbol          string  `json:"symbol"`
	LastBusinessDay string  `json:"last_business_day,omitempty"`
	Close           float64 `json:"close,omitempty"`
	PreviousClose   float64 `json:"previous_close,omitempty"`
	Change          float64 `json:"change,omitempty"`
	ChangePct       float64 `json:"change_pct,omitempty"`
	Error           string  `json:"error,omitempty"`
}
