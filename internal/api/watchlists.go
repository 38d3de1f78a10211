package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/finwatch/finwatch-backend/internal/database"
	"github.com/finwatch/finwatch-backend/internal/metrics"
	"github.com/finwatch/finwatch-backend/internal/models"
)

// ListWatchlists handles GET /api/watchlists
func (h *Handler) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.db.ListWatchlists()
	if err != nil {
		respondError(w, err)
		return
	}
	if lists == nil {
		lists = []*models.Watchlist{}
	}
	respondJSON(w, http.StatusOK, lists)
}

// CreateWatchlist handles POST /api/watchlists
func (h *Handler) CreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	wl := &models.Watchlist{Name: req.Name, Description: req.Description}
	if err := h.db.CreateWatchlist(wl); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, wl)
}

// DeleteWatchlist handles DELETE /api/watchlists/{id}
func (h *Handler) DeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.db.DeleteWatchlist(id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWatchlistTickers handles GET /api/watchlists/{id}/tickers
func (h *Handler) ListWatchlistTickers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.db.GetWatchlist(id); err != nil {
		respondError(w, err)
		return
	}

	tickers, err := h.db.ListWatchlistTickers(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tickers)
}

// AddWatchlistTicker handles POST /api/watchlists/{id}/tickers. Adding a
// symbol that is already on the list is idempotent.
func (h *Handler) AddWatchlistTicker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "symbol is required")
		return
	}

	if _, err := h.db.GetWatchlist(id); err != nil {
		respondError(w, err)
		return
	}
	if err := h.db.AddWatchlistTicker(id, req.Symbol); err != nil {
		respondError(w, err)
		return
	}

	if h.producer != nil {
		if ticker, err := h.db.GetTickerBySymbol(req.Symbol); err == nil {
			if err := h.producer.PublishTickerAdded(r.Context(), ticker); err != nil {
				h.log.WithField("symbol", req.Symbol).WithError(err).Warn("failed to publish ticker event")
			}
		}
	}
	respondJSON(w, http.StatusCreated, map[string]string{"symbol": strings.ToUpper(req.Symbol)})
}

// RemoveWatchlistTicker handles DELETE /api/watchlists/{id}/tickers/{symbol}
func (h *Handler) RemoveWatchlistTicker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	symbol := mux.Vars(r)["symbol"]

	if err := h.db.RemoveWatchlistTicker(id, symbol); err != nil {
		respondError(w, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishTickerRemoved(r.Context(), strings.ToUpper(symbol)); err != nil {
			h.log.WithField("symbol", symbol).WithError(err).Warn("failed to publish ticker event")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWatchlistMetrics handles GET /api/watchlists/{id}/metrics
func (h *Handler) GetWatchlistMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	wl, err := h.db.GetWatchlist(id)
	if err != nil {
		respondError(w, err)
		return
	}

	inputs := make([]metrics.TickerInput, 0, len(wl.Tickers))
	for _, wt := range wl.Tickers {
		ticker, err := h.db.GetTickerBySymbol(wt.Symbol)
		if err != nil {
			continue
		}

		latest, err := h.db.GetLatestPrice(ticker.ID)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				respondError(w, err)
				return
			}
			continue
		}

		in := metrics.TickerInput{
			Symbol: ticker.Symbol,
			Name:   ticker.Name,
			Latest: latest,
		}
		if p, err := h.db.GetPriceOnOrBefore(ticker.ID, latest.Date.AddDate(0, 0, -1)); err == nil {
			in.DayAgo = p
		}
		if p, err := h.db.GetPriceOnOrBefore(ticker.ID, latest.Date.AddDate(0, 0, -7)); err == nil {
			in.WeekAgo = p
		}
		if f, err := h.db.GetFundamentals(ticker.ID); err == nil {
			in.Fundamentals = f
		}
		inputs = append(inputs, in)
	}

	respondJSON(w, http.StatusOK, metrics.ComputeWatchlist(wl, inputs))
}

// pathUUID parses a UUID path variable, responding 422 when malformed
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
