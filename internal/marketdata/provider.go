package marketdata

import (
	"context"
	"math"
	"time"
)

// Bar is one normalized daily candle. Open/High/Low/Volume are nil when
// the source did not supply them; Close is required for a bar to exist.
type Bar struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  float64
	Volume *int64
}

// Fundamentals is the normalized fundamentals block a provider may
// attach to a result. Any field can be nil.
type Fundamentals struct {
	TrailingPE *float64
	MarketCap  *int64
	Beta       *float64
	Week52High *float64
	Week52Low  *float64
	AvgVolume  *int64
}

// Result is the normalized output of a provider fetch
type Result struct {
	Symbol       string
	Name         string
	Exchange     string
	Bars         []Bar
	Fundamentals Fundamentals
	Source       string
}

// PartialFundamentals reports whether any of the core fundamentals
// fields are missing, so persistence can later backfill from a different
// provider without re-fetching price history.
func (r *Result) PartialFundamentals() bool {
	f := r.Fundamentals
	return f.TrailingPE == nil || f.MarketCap == nil || f.AvgVolume == nil
}

// LatestClose returns the last and second-to-last closes. When only one
// bar exists, both values are the last close.
func (r *Result) LatestClose() (latest, prev float64) {
	n := len(r.Bars)
	if n == 0 {
		return 0, 0
	}
	latest = r.Bars[n-1].Close
	prev = latest
	if n > 1 {
		prev = r.Bars[n-2].Close
	}
	return latest, prev
}

// Provider fetches normalized price history and fundamentals for a
// symbol from one external data source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*Result, error)
}

// finitePtr returns a pointer to v, or nil when v is NaN or infinite.
// Non-finite source values must round-trip as absence, never as zero.
func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}
