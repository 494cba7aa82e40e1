package web

import (
	"net/http"
	"strings"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/pricing"
)

const maxBatchSymbols = 50

// symbolsParam splits the comma separated symbols query parameter.
func symbolsParam(r *http.Request) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	if len(out) == 0 {
		return nil, apperrors.NewValidationError("symbols", "symbols must list at least one symbol")
	}
	if len(out) > maxBatchSymbols {
		return nil, apperrors.NewValidationError("symbols", "too many symbols")
	}
	return out, nil
}

func (s *Server) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbols, err := symbolsParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Prices.GetBatchPrices(r.Context(), symbols))
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var items []pricing.Conversion
	if err := decodeJSON(r, &items); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(items) > maxBatchSymbols {
		s.writeError(w, r, apperrors.NewValidationError("body", "too many conversions"))
		return
	}
	for i := range items {
		items[i].Symbol = strings.ToUpper(strings.TrimSpace(items[i].Symbol))
		if items[i].Symbol == "" {
			s.writeError(w, r, apperrors.NewValidationError("symbol", "every conversion needs a symbol"))
			return
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Prices.BatchConvert(r.Context(), items))
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Prices.CacheStatus(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Prices.ClearCache(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
