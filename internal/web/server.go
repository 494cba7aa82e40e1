package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/currency"
	"github.com/camuig/capital-tracker/internal/ledger"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/metrics"
	"github.com/camuig/capital-tracker/internal/portfolio"
	"github.com/camuig/capital-tracker/internal/pricing"
	"github.com/camuig/capital-tracker/internal/scheduler"
)

type PortfolioSource interface {
	Snapshot() scheduler.Snapshot
	RequestRefresh()
}

type AlertSource interface {
	Active() []alerts.Alert
	Dismiss(id string) bool
	Clear()
	Config() *alerts.ConfigStore
}

type HoldingsSource interface {
	Current(ctx context.Context) (portfolio.Holdings, error)
	Base(ctx context.Context) (portfolio.Holdings, error)
	SetBaseHoldings(ctx context.Context, h portfolio.Holdings) error
	LastUpdated(ctx context.Context) (time.Time, bool, error)
	Policy() string
}

type SettingsStore interface {
	SaveSetting(ctx context.Context, key string, value interface{}) error
	GetSetting(ctx context.Context, key string, dst interface{}) (bool, error)
	DeleteSetting(ctx context.Context, key string) error
}

type PriceService interface {
	GetBatchPrices(ctx context.Context, symbols []string) map[string]float64
	BatchConvert(ctx context.Context, items []pricing.Conversion) []pricing.ConversionResult
	CacheStatus(ctx context.Context) (map[string]pricing.CacheStatus, error)
	ClearCache(ctx context.Context) error
}

// Deps are the components the API reads from and writes to.
type Deps struct {
	Portfolio PortfolioSource
	Alerts    AlertSource
	Holdings  HoldingsSource
	Ledger    *ledger.Service
	Settings  SettingsStore
	Prices    PriceService
	FX        currency.Converter
}

type Server struct {
	httpServer *http.Server
	deps       Deps
	port       int
	logger     *logger.Logger
}

func NewServer(deps Deps, port int, log *logger.Logger) *Server {
	s := &Server{
		deps:   deps,
		port:   port,
		logger: log,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Delete("/", s.handleClearAlerts)
			r.Get("/config", s.handleGetAlertConfig)
			r.Put("/config", s.handlePutAlertConfig)
			r.Delete("/{id}", s.handleDismissAlert)
		})

		r.Route("/earnings", func(r chi.Router) {
			r.Get("/", s.handleListEarnings)
			r.Post("/", s.handleAddEarning)
			r.Get("/daily", s.handleDailyEarnings)
			r.Put("/{id}", s.handleUpdateEarning)
			r.Delete("/{id}", s.handleDeleteEarning)
		})

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", s.handleListTrades)
			r.Post("/", s.handleAddTrade)
			r.Get("/performance", s.handleTradePerformance)
			r.Delete("/{id}", s.handleDeleteTrade)
		})

		r.Get("/activities", s.handleListActivities)
		r.Post("/activities", s.handleAddActivity)

		r.Get("/projections", s.handleGetProjections)
		r.Post("/projections", s.handleStoreProjection)

		r.Route("/miners", func(r chi.Router) {
			r.Get("/", s.handleListMiners)
			r.Post("/", s.handleAddMiner)
			r.Get("/stats", s.handleMiningStats)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleAddTask)
			r.Put("/{id}/status", s.handleSetTaskStatus)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.handleGetPrices)
			r.Post("/convert", s.handleConvert)
			r.Get("/cache", s.handleCacheStatus)
			r.Delete("/cache", s.handleClearCache)
		})

		r.Get("/holdings", s.handleGetHoldings)
		r.Get("/holdings/base", s.handleGetBaseHoldings)
		r.Put("/holdings/base", s.handlePutBaseHoldings)

		r.Get("/settings/display-currency", s.handleGetDisplayCurrency)
		r.Put("/settings/display-currency", s.handlePutDisplayCurrency)
		r.Delete("/settings/display-currency", s.handleResetDisplayCurrency)
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
