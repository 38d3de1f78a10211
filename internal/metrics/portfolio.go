// Package metrics computes derived, read-only portfolio and watchlist
// figures from already-loaded rows. It never touches the database, so
// every calculation is testable with plain fixtures.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwatch/finwatch-backend/internal/models"
)

var (
	hundred     = decimal.NewFromInt(100)
	defaultBeta = decimal.NewFromInt(1)
)

// PositionMetrics is the computed view of one holding
type PositionMetrics struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name,omitempty"`
	Shares            float64 `json:"shares"`
	CostBasis         float64 `json:"cost_basis"`
	CurrentPrice      float64 `json:"current_price"`
	PositionValue     float64 `json:"position_value"`
	PositionCost      float64 `json:"position_cost"`
	ReturnDollar      float64 `json:"return_dollar"`
	ReturnPct         float64 `json:"return_pct"`
	HoldingPeriodDays int     `json:"holding_period_days"`
	Beta              float64 `json:"beta"`
	Weight            float64 `json:"weight"`
}

// PortfolioMetrics is the computed view of a whole portfolio
type PortfolioMetrics struct {
	PortfolioID          string            `json:"portfolio_id"`
	Name                 string            `json:"name"`
	InceptionDate        string            `json:"inception_date"`
	InceptionDays        int               `json:"inception_days"`
	InitialValue         float64           `json:"initial_value"`
	CurrentValue         float64           `json:"current_value"`
	TotalCost            float64           `json:"total_cost"`
	TotalReturnDollar    float64           `json:"total_return_dollar"`
	TotalReturnPct       float64           `json:"total_return_pct"`
	PortfolioReturnD     float64           `json:"portfolio_return_dollar"`
	PortfolioReturnPct   float64           `json:"portfolio_return_pct"`
	AverageBeta          float64           `json:"average_beta"`
	NumPositions         int               `json:"num_positions"`
	Positions            []PositionMetrics `json:"positions"`
}

// PositionInput bundles the rows needed to price one holding. Price nil
// means no price row exists for the ticker; the position is skipped.
// Fundamentals nil (or a nil beta) falls back to beta 1.0.
type PositionInput struct {
	Holding      models.Holding
	TickerName   string
	Price        *models.PriceDaily
	Fundamentals *models.Fundamentals
}

// ComputePortfolio derives position and portfolio level metrics.
//
// Cost-basis return and portfolio return are computed separately: the
// latter is measured against the recorded initial value, which may
// legitimately diverge from summed cost bases (cash added or
// withdrawn). Zero denominators yield a 0 percentage, never an error.
func ComputePortfolio(p *models.Portfolio, inputs []PositionInput, today time.Time) *PortfolioMetrics {
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	weightedBetaSum := decimal.Zero

	positions := make([]PositionMetrics, 0, len(inputs))
	positionValues := make([]decimal.Decimal, 0, len(inputs))

	for _, in := range inputs {
		if in.Price == nil {
			continue
		}

		price := in.Price.Close
		shares := in.Holding.Shares
		cost := decimal.Zero
		if in.Holding.AverageCost != nil {
			cost = *in.Holding.AverageCost
		}

		value := price.Mul(shares)
		positionCost := cost.Mul(shares)
		returnDollar := value.Sub(positionCost)
		returnPct := decimal.Zero
		if positionCost.IsPositive() {
			returnPct = returnDollar.Div(positionCost).Mul(hundred)
		}

		beta := defaultBeta
		if in.Fundamentals != nil && in.Fundamentals.Beta != nil {
			beta = *in.Fundamentals.Beta
		}

		totalValue = totalValue.Add(value)
		totalCost = totalCost.Add(positionCost)
		weightedBetaSum = weightedBetaSum.Add(beta.Mul(value))

		positions = append(positions, PositionMetrics{
			Symbol:            in.Holding.Symbol,
			Name:              in.TickerName,
			Shares:            shares.InexactFloat64(),
			CostBasis:         cost.InexactFloat64(),
			CurrentPrice:      price.InexactFloat64(),
			PositionValue:     value.InexactFloat64(),
			PositionCost:      positionCost.InexactFloat64(),
			ReturnDollar:      returnDollar.InexactFloat64(),
			ReturnPct:         returnPct.InexactFloat64(),
			HoldingPeriodDays: daysBetween(in.Holding.AddedAt, today),
			Beta:              beta.InexactFloat64(),
		})
		positionValues = append(positionValues, value)
	}

	for i := range positions {
		if totalValue.IsPositive() {
			positions[i].Weight = positionValues[i].Div(totalValue).Mul(hundred).InexactFloat64()
		}
	}

	totalReturn := totalValue.Sub(totalCost)
	totalReturnPct := decimal.Zero
	if totalCost.IsPositive() {
		totalReturnPct = totalReturn.Div(totalCost).Mul(hundred)
	}

	averageBeta := defaultBeta
	if totalValue.IsPositive() {
		averageBeta = weightedBetaSum.Div(totalValue)
	}

	initialValue := p.InitialValue
	if initialValue.IsZero() {
		initialValue = totalCost
	}
	portfolioReturn := totalValue.Sub(initialValue)
	portfolioReturnPct := decimal.Zero
	if initialValue.IsPositive() {
		portfolioReturnPct = portfolioReturn.Div(initialValue).Mul(hundred)
	}

	return &PortfolioMetrics{
		PortfolioID:        p.ID.String(),
		Name:               p.Name,
		InceptionDate:      p.InceptionDate.Format("2006-01-02"),
		InceptionDays:      daysBetween(p.InceptionDate, today),
		InitialValue:       initialValue.InexactFloat64(),
		CurrentValue:       totalValue.InexactFloat64(),
		TotalCost:          totalCost.InexactFloat64(),
		TotalReturnDollar:  totalReturn.InexactFloat64(),
		TotalReturnPct:     totalReturnPct.InexactFloat64(),
		PortfolioReturnD:   portfolioReturn.InexactFloat64(),
		PortfolioReturnPct: portfolioReturnPct.InexactFloat64(),
		AverageBeta:        averageBeta.InexactFloat64(),
		NumPositions:       len(positions),
		Positions:          positions,
	}
}

func daysBetween(from, to time.Time) int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
