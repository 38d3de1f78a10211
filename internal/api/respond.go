package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finwatch/finwatch-backend/internal/database"
	"github.com/finwatch/finwatch-backend/internal/marketdata"
)

// errorBody is the uniform error response shape
type errorBody struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorBody{Detail: detail})
}

// respondError maps domain errors to HTTP statuses: missing entities and
// exhausted provider chains surface as 404, everything else as 500.
func respondError(w http.ResponseWriter, err error) {
	var fetchErr *marketdata.FetchError
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondDetail(w, http.StatusNotFound, err.Error())
	case errors.As(err, &fetchErr):
		respondDetail(w, http.StatusNotFound, fetchErr.Error())
	default:
		respondDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, dest interface{}) error {
	return json.NewDecoder(r.Body).Decode(dest)
}
