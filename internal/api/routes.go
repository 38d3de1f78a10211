package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Market data
	api.HandleFunc("/search", handler.Search).Methods("GET")
	api.HandleFunc("/data/{symbol}", handler.GetMarketData).Methods("GET")
	api.HandleFunc("/benchmarks", handler.GetBenchmarks).Methods("GET")
	api.HandleFunc("/refresh", handler.Refresh).Methods("POST")

	// Watchlists
	api.HandleFunc("/watchlists", handler.ListWatchlists).Methods("GET")
	api.HandleFunc("/watchlists", handler.CreateWatchlist).Methods("POST")
	api.HandleFunc("/watchlists/{id}", handler.DeleteWatchlist).Methods("DELETE")
	api.HandleFunc("/watchlists/{id}/tickers", handler.ListWatchlistTickers).Methods("GET")
	api.HandleFunc("/watchlists/{id}/tickers", handler.AddWatchlistTicker).Methods("POST")
	api.HandleFunc("/watchlists/{id}/tickers/{symbol}", handler.RemoveWatchlistTicker).Methods("DELETE")
	api.HandleFunc("/watchlists/{id}/metrics", handler.GetWatchlistMetrics).Methods("GET")

	// Portfolios
	api.HandleFunc("/portfolios", handler.ListPortfolios).Methods("GET")
	api.HandleFunc("/portfolios", handler.CreatePortfolio).Methods("POST")
	api.HandleFunc("/portfolios/{id}", handler.DeletePortfolio).Methods("DELETE")
	api.HandleFunc("/portfolios/{id}/holdings", handler.ListHoldings).Methods("GET")
	api.HandleFunc("/portfolios/{id}/holdings", handler.UpsertHolding).Methods("POST")
	api.HandleFunc("/portfolios/{id}/holdings/{symbol}", handler.DeleteHolding).Methods("DELETE")
	api.HandleFunc("/portfolios/{id}/metrics", handler.GetPortfolioMetrics).Methods("GET")

	return r
}
