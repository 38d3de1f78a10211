package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Attempt records a single failed provider call for diagnostics
type Attempt struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// FetchError is returned when every provider in the chain failed. It
// carries the per-provider error messages; the route layer decides how
// to surface it.
type FetchError struct {
	Symbol   string
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Source, a.Error))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("no data sources available for %s", e.Symbol)
	}
	return fmt.Sprintf("all data sources failed for %s (%s)", e.Symbol, strings.Join(parts, "; "))
}

// Orchestrator tries providers in a fixed priority order and returns the
// first successful, non-empty result. Provider failures never propagate;
// they are recorded and the chain advances.
type Orchestrator struct {
	providers []Provider
	log       *logrus.Entry
}

// NewOrchestrator creates an orchestrator over the given providers. The
// slice order is the fallback priority.
func NewOrchestrator(log *logrus.Entry, providers ...Provider) *Orchestrator {
	return &Orchestrator{providers: providers, log: log}
}

// Fetch runs the fallback chain for one symbol. On total failure the
// returned error is a *FetchError listing every attempt.
func (o *Orchestrator) Fetch(ctx context.Context, symbol string) (*Result, error) {
	symbol = strings.ToUpper(symbol)
	var attempts []Attempt

	for _, p := range o.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.Fetch(ctx, symbol)
		if err != nil {
			o.log.WithFields(logrus.Fields{"symbol": symbol, "source": p.Name()}).
				WithError(err).Warn("provider failed, trying next")
			attempts = append(attempts, Attempt{Source: p.Name(), Error: err.Error()})
			continue
		}
		if result == nil || len(result.Bars) == 0 {
			o.log.WithFields(logrus.Fields{"symbol": symbol, "source": p.Name()}).
				Warn("provider returned empty history, trying next")
			attempts = append(attempts, Attempt{Source: p.Name(), Error: "empty result"})
			continue
		}

		result.Symbol = symbol
		result.Source = p.Name()
		o.log.WithFields(logrus.Fields{
			"symbol":  symbol,
			"source":  p.Name(),
			"bars":    len(result.Bars),
			"partial": result.PartialFundamentals(),
		}).Info("fetched market data")
		return result, nil
	}

	o.log.WithField("symbol", symbol).Error("all data sources failed")
	return nil, &FetchError{Symbol: symbol, Attempts: attempts}
}
