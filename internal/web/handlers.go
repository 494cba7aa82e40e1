package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/currency"
	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/portfolio"
	"github.com/camuig/capital-tracker/internal/scheduler"
	"github.com/camuig/capital-tracker/internal/storage"
)

type portfolioResponse struct {
	scheduler.Snapshot
	DisplayCurrency string `json:"displayCurrency"`
	DisplayTotal    string `json:"displayTotal"`
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Portfolio.Snapshot()
	code := s.displayCurrency(r)

	writeJSON(w, http.StatusOK, portfolioResponse{
		Snapshot:        snap,
		DisplayCurrency: code,
		DisplayTotal:    currency.FormatUSD(snap.TotalValue, code, s.deps.FX),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Portfolio.RequestRefresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

// Alerts

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Alerts.Active())
}

func (s *Server) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	s.deps.Alerts.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Alerts.Dismiss(id) {
		s.writeError(w, r, apperrors.NewNotFoundError("alert", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAlertConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Alerts.Config().Get())
}

func (s *Server) handlePutAlertConfig(w http.ResponseWriter, r *http.Request) {
	var cfg alerts.Config
	if err := decodeJSON(r, &cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Alerts.Config().Update(r.Context(), cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Alerts.Config().Get())
}

// Holdings

type holdingsResponse struct {
	Holdings    portfolio.Holdings `json:"holdings"`
	Policy      string             `json:"policy"`
	LastUpdated *time.Time         `json:"lastUpdated,omitempty"`
}

func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Holdings.Current(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := holdingsResponse{Holdings: h, Policy: s.deps.Holdings.Policy()}
	if ts, ok, err := s.deps.Holdings.LastUpdated(r.Context()); err == nil && ok {
		resp.LastUpdated = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBaseHoldings(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Holdings.Base(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handlePutBaseHoldings(w http.ResponseWriter, r *http.Request) {
	var h portfolio.Holdings
	if err := decodeJSON(r, &h); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Holdings.SetBaseHoldings(r.Context(), h); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.deps.Portfolio.RequestRefresh()

	saved, err := s.deps.Holdings.Base(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Settings

type displayCurrencyBody struct {
	Currency string `json:"currency"`
}

// displayCurrency returns the saved display currency, or the default when
// none is saved or it cannot be read.
func (s *Server) displayCurrency(r *http.Request) string {
	var code string
	ok, err := s.deps.Settings.GetSetting(r.Context(), storage.SettingDisplayCurrency, &code)
	if err != nil {
		s.logger.Warn("read display currency", "error", err)
	}
	if !ok || !currency.Supported(code) {
		return currency.Default
	}
	return strings.ToUpper(code)
}

func (s *Server) handleGetDisplayCurrency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, displayCurrencyBody{Currency: s.displayCurrency(r)})
}

func (s *Server) handlePutDisplayCurrency(w http.ResponseWriter, r *http.Request) {
	var body displayCurrencyBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.Currency))
	if !currency.Supported(code) {
		s.writeError(w, r, apperrors.NewValidationError("currency", "currency must be USD or BWP"))
		return
	}
	if err := s.deps.Settings.SaveSetting(r.Context(), storage.SettingDisplayCurrency, code); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, displayCurrencyBody{Currency: code})
}

func (s *Server) handleResetDisplayCurrency(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Settings.DeleteSetting(r.Context(), storage.SettingDisplayCurrency); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, displayCurrencyBody{Currency: currency.Default})
}
