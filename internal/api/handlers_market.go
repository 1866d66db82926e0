package api

import (
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/marketdata"
)

// DataSourceHeader reports whether a market-data response is live or fallback
const DataSourceHeader = "X-Data-Source"

// handleCrypto handles GET /api/crypto - proxy a provider listing or quote.
// The response body is the provider payload, or the fallback dataset in the
// same shape, and is always 200 for a valid request.
func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	req, err := marketdata.ParseRequest(r.URL.Query())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	result := s.proxy.Fetch(r.Context(), req)
	w.Header().Set(DataSourceHeader, string(result.Source))
	respondJSON(w, http.StatusOK, result.Payload)
}

// handleWidget handles GET /api/widgets/{name} - latest polled data of a widget
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if s.widgets == nil {
		respondServiceError(w, r, apperrors.NewNotFoundError("widget", name))
		return
	}

	data, ok := s.widgets.Get(name)
	if !ok {
		respondServiceError(w, r, apperrors.NewNotFoundError("widget", name))
		return
	}

	w.Header().Set(DataSourceHeader, string(data.Source))
	respondJSON(w, http.StatusOK, data)
}
