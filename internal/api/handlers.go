package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finwatch/finwatch-backend/internal/database"
	"github.com/finwatch/finwatch-backend/internal/events"
	"github.com/finwatch/finwatch-backend/internal/marketdata"
	"github.com/finwatch/finwatch-backend/internal/models"
)

// MarketService is the market data surface the handlers call.
// *marketdata.Service satisfies it.
type MarketService interface {
	GetMarketData(ctx context.Context, symbol string, rangeDays int) (*models.MarketData, error)
	GetBenchmarks(ctx context.Context) []models.BenchmarkQuote
	Refresh(ctx context.Context, symbols []string) (*marketdata.RefreshStats, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db       *database.DB
	market   MarketService
	producer *events.Producer
	log      *logrus.Entry
}

// NewHandler creates a new Handler. producer may be nil to disable
// event publishing.
func NewHandler(db *database.DB, market MarketService, producer *events.Producer, log *logrus.Entry) *Handler {
	return &Handler{db: db, market: market, producer: producer, log: log}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbOK := h.db.Ping() == nil
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "db": dbOK})
}

// Search handles GET /api/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "query parameter q is required")
		return
	}

	results, err := h.db.SearchTickers(q)
	if err != nil {
		h.log.WithError(err).Warn("ticker search failed, falling back to raw echo")
		results = nil
	}

	// no DB match (or a failed lookup): echo the symbol back so the
	// client can still attempt a data fetch for it
	if len(results) == 0 {
		upper := strings.ToUpper(q)
		results = []models.SearchResult{{Symbol: upper, Name: upper, Source: "raw"}}
	}
	respondJSON(w, http.StatusOK, results)
}

// GetMarketData handles GET /api/data/{symbol}?range_days=
func (h *Handler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	rangeDays := 0
	if raw := r.URL.Query().Get("range_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondDetail(w, http.StatusUnprocessableEntity, "range_days must be a non-negative integer")
			return
		}
		rangeDays = parsed
	}

	md, err := h.market.GetMarketData(r.Context(), symbol, rangeDays)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, md)
}

// GetBenchmarks handles GET /api/benchmarks
func (h *Handler) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.GetBenchmarks(r.Context()))
}

// Refresh handles POST /api/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondDetail(w, http.StatusUnprocessableEntity, "symbols is required")
		return
	}

	stats, err := h.market.Refresh(r.Context(), req.Symbols)
	if err != nil {
		respondError(w, err)
		return
	}

	if h.producer != nil {
		for _, symbol := range refreshedSymbols(req.Symbols, stats) {
			if err := h.producer.PublishDataRefreshed(r.Context(), symbol); err != nil {
				h.log.WithField("symbol", symbol).WithError(err).Warn("failed to publish refresh event")
			}
		}
	}
	respondJSON(w, http.StatusOK, stats)
}

// refreshedSymbols filters the requested symbols down to the ones a
// refresh actually persisted, so no event is published for a symbol
// that failed or was skipped.
func refreshedSymbols(symbols []string, stats *marketdata.RefreshStats) []string {
	failed := make(map[string]struct{}, len(stats.Failures))
	for _, a := range stats.Failures {
		failed[a.Source] = struct{}{}
	}

	var refreshed []string
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if _, ok := failed[symbol]; ok {
			continue
		}
		refreshed = append(refreshed, symbol)
	}
	return refreshed
}
