package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/finwatch/finwatch-backend/internal/database"
	"github.com/finwatch/finwatch-backend/internal/metrics"
	"github.com/finwatch/finwatch-backend/internal/models"
)

// ListPortfolios handles GET /api/portfolios
func (h *Handler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.db.ListPortfolios()
	if err != nil {
		respondError(w, err)
		return
	}
	if portfolios == nil {
		portfolios = []*models.Portfolio{}
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio handles POST /api/portfolios
func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string  `json:"name"`
		Description   string  `json:"description"`
		InceptionDate string  `json:"inception_date"`
		InitialValue  float64 `json:"initial_value"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	inception, err := time.Parse("2006-01-02", req.InceptionDate)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "inception_date must be an ISO date (YYYY-MM-DD)")
		return
	}

	p := &models.Portfolio{
		Name:          req.Name,
		Description:   req.Description,
		InceptionDate: inception,
		InitialValue:  decimal.NewFromFloat(req.InitialValue),
	}
	if err := h.db.CreatePortfolio(p); err != nil {
		respondError(w, err)
		return
	}
	p.Holdings = []models.Holding{}
	respondJSON(w, http.StatusCreated, p)
}

// DeletePortfolio handles DELETE /api/portfolios/{id}. Holdings cascade.
func (h *Handler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.db.DeletePortfolio(id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHoldings handles GET /api/portfolios/{id}/holdings
func (h *Handler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.db.GetPortfolio(id); err != nil {
		respondError(w, err)
		return
	}

	holdings, err := h.db.ListHoldings(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}

// UpsertHolding handles POST /api/portfolios/{id}/holdings. The
// (portfolio, ticker) pair is unique; posting an existing symbol
// replaces shares and cost basis in full, it never accumulates.
// When as_of is supplied, cost basis is taken from that date's open
// price instead of the client-provided value.
func (h *Handler) UpsertHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Symbol  string  `json:"symbol"`
		Qty     float64 `json:"qty"`
		AvgCost float64 `json:"avg_cost"`
		AsOf    string  `json:"as_of"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "symbol is required")
		return
	}
	if req.Qty <= 0 {
		respondDetail(w, http.StatusUnprocessableEntity, "qty must be positive")
		return
	}

	if _, err := h.db.GetPortfolio(id); err != nil {
		respondError(w, err)
		return
	}
	// tickers are created on first reference
	tickerID, err := h.db.UpsertTicker(req.Symbol, "", "")
	if err != nil {
		respondError(w, err)
		return
	}

	avgCost := decimal.NewFromFloat(req.AvgCost)
	asOf := time.Now()
	if req.AsOf != "" {
		asOf, err = time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			respondDetail(w, http.StatusUnprocessableEntity, "as_of must be an ISO date (YYYY-MM-DD)")
			return
		}
		avgCost, err = h.db.OpenPriceOnOrBefore(tickerID, asOf)
		if err != nil {
			respondError(w, err)
			return
		}
	}

	holding := &models.Holding{
		PortfolioID: id,
		TickerID:    tickerID,
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Shares:      decimal.NewFromFloat(req.Qty),
		AverageCost: &avgCost,
		AddedAt:     asOf,
	}
	if err := h.db.UpsertHolding(holding); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}

// DeleteHolding handles DELETE /api/portfolios/{id}/holdings/{symbol}
func (h *Handler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	symbol := mux.Vars(r)["symbol"]

	if err := h.db.DeleteHolding(id, symbol); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPortfolioMetrics handles GET /api/portfolios/{id}/metrics
func (h *Handler) GetPortfolioMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.db.GetPortfolio(id)
	if err != nil {
		respondError(w, err)
		return
	}

	today := time.Now()
	inputs := make([]metrics.PositionInput, 0, len(p.Holdings))
	for _, holding := range p.Holdings {
		in := metrics.PositionInput{Holding: holding}

		if ticker, err := h.db.GetTickerBySymbol(holding.Symbol); err == nil {
			in.TickerName = ticker.Name
		}

		price, err := h.db.GetPriceOnOrBefore(holding.TickerID, today)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				respondError(w, err)
				return
			}
			// positions without price data are skipped by the computation
		} else {
			in.Price = price
		}

		if f, err := h.db.GetFundamentals(holding.TickerID); err == nil {
			in.Fundamentals = f
		}
		inputs = append(inputs, in)
	}

	respondJSON(w, http.StatusOK, metrics.ComputePortfolio(p, inputs, today))
}
