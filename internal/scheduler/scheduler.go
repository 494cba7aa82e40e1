package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/camuig/capital-tracker/internal/advisor"
	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/metrics"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

type QuoteSource interface {
	GetQuotes(ctx context.Context, symbols []string) map[string]portfolio.Quote
}

type FXSource interface {
	Refresh(ctx context.Context, base, target string) error
}

type HoldingsSource interface {
	Current(ctx context.Context) (portfolio.Holdings, error)
}

type HistoryStore interface {
	AppendHistoryPoint(ctx context.Context, p portfolio.HistoryPoint, limit int) error
}

type Notifier interface {
	NotifyAlerts(list []alerts.Alert)
	NotifyAdvice(text string)
	NotifyError(context string, err error)
}

type Advisor interface {
	Advise(ctx context.Context, req *advisor.Request) ([]advisor.Suggestion, string, error)
}

type TaskResetter interface {
	ResetDailyTasks(ctx context.Context) (int, error)
}

type Options struct {
	Interval     time.Duration
	FXInterval   time.Duration
	FXBase       string
	FXTarget     string
	HistoryLimit int
}

// Snapshot is the state produced by the latest refresh cycle.
type Snapshot struct {
	Holdings     portfolio.Holdings         `json:"holdings"`
	Quotes       portfolio.Prices           `json:"quotes"`
	Allocations  map[string]float64         `json:"allocations"`
	TotalValue   float64                    `json:"totalValue"`
	SharpeRatio  float64                    `json:"sharpeRatio"`
	PnL          portfolio.PnL              `json:"pnl"`
	ByCategory   map[string]portfolio.Group `json:"byCategory"`
	ByType       map[string]portfolio.Group `json:"byType"`
	History      []portfolio.HistoryPoint   `json:"history"`
	ValueSeries  []portfolio.HistoryPoint   `json:"valueSeries"` // current holdings at each recorded price point
	Correlations map[string]float64         `json:"correlations"`
	Alerts       []alerts.Alert             `json:"alerts"`
	UpdatedAt    time.Time                  `json:"updatedAt"`
}

// Scheduler runs the refresh loop on a single goroutine, so refresh cycles
// never overlap.
type Scheduler struct {
	prices   QuoteSource
	fx       FXSource
	holdings HoldingsSource
	store    HistoryStore
	engine   *alerts.Engine
	notifier Notifier
	advisor  Advisor
	classes  portfolio.Classification
	opts     Options
	logger   *logger.Logger
	now      func() time.Time
	refresh  chan struct{}

	tasks   TaskResetter
	taskDay string

	mu       sync.RWMutex
	history  *portfolio.History
	observed []portfolio.PricePoint
	snapshot Snapshot
}

func NewScheduler(
	prices QuoteSource,
	fx FXSource,
	holdings HoldingsSource,
	store HistoryStore,
	engine *alerts.Engine,
	notifier Notifier,
	adv Advisor,
	classes portfolio.Classification,
	opts Options,
	log *logger.Logger,
) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.FXInterval <= 0 {
		opts.FXInterval = 10 * time.Minute
	}
	return &Scheduler{
		prices:   prices,
		fx:       fx,
		holdings: holdings,
		store:    store,
		engine:   engine,
		notifier: notifier,
		advisor:  adv,
		classes:  classes,
		opts:     opts,
		logger:   log,
		now:      time.Now,
		refresh:  make(chan struct{}, 1),
		history:  portfolio.NewHistory(opts.HistoryLimit),
	}
}

// WithTaskReset makes the scheduler reset daily tasks on the first cycle
// of each new UTC day.
func (s *Scheduler) WithTaskReset(r TaskResetter) *Scheduler {
	s.tasks = r
	s.taskDay = s.now().UTC().Format("2006-01-02")
	return s
}

func (s *Scheduler) resetTasksOnNewDay(ctx context.Context) {
	if s.tasks == nil {
		return
	}
	day := s.now().UTC().Format("2006-01-02")
	if day == s.taskDay {
		return
	}
	n, err := s.tasks.ResetDailyTasks(ctx)
	if err != nil {
		s.logger.Error("reset daily tasks", "error", err)
		return
	}
	s.taskDay = day
	s.logger.Info("daily tasks reset", "count", n, "day", day)
}

// LoadHistory seeds the in-memory history, e.g. from the store on startup.
func (s *Scheduler) LoadHistory(points []portfolio.HistoryPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Load(points)
	s.snapshot.History = s.history.Points()
}

// RequestRefresh asks for a refresh cycle as soon as possible. Requests made
// while one is already pending are merged.
func (s *Scheduler) RequestRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	fxTicker := time.NewTicker(s.opts.FXInterval)
	defer fxTicker.Stop()

	s.logger.Info("scheduler started", "interval", s.opts.Interval.String(), "fx_interval", s.opts.FXInterval.String())

	// Run immediately on start
	s.refreshFX(ctx)
	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-fxTicker.C:
			s.refreshFX(ctx)
		case <-s.refresh:
			s.refreshFX(ctx)
			s.RunCycle(ctx)
		}
	}
}

func (s *Scheduler) refreshFX(ctx context.Context) {
	if s.fx == nil {
		return
	}
	if err := s.fx.Refresh(ctx, s.opts.FXBase, s.opts.FXTarget); err != nil {
		metrics.FXRefreshes.WithLabelValues("error").Inc()
		s.logger.Warn("fx refresh failed, keeping previous rate", "error", err)
		return
	}
	metrics.FXRefreshes.WithLabelValues("ok").Inc()
}

// RunCycle performs one refresh: holdings, quotes, valuation, history,
// alert evaluation, notifications.
func (s *Scheduler) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PriceRefreshes.WithLabelValues("panic").Inc()
			s.logger.Error("panic in refresh cycle", "panic", fmt.Sprint(r))
			s.notifier.NotifyError("refresh panic", fmt.Errorf("%v", r))
		}
	}()

	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	s.resetTasksOnNewDay(ctx)

	// 1. Holdings
	holdings, err := s.holdings.Current(ctx)
	if err != nil {
		metrics.PriceRefreshes.WithLabelValues("error").Inc()
		s.logger.Error("load holdings", "error", err)
		return
	}

	// 2. Quotes
	symbols := holdings.Symbols()
	sort.Strings(symbols)
	quotes := portfolio.Prices(s.prices.GetQuotes(ctx, symbols))
	if len(quotes) == 0 {
		metrics.PriceRefreshes.WithLabelValues("empty").Inc()
		s.logger.Warn("no quotes obtained, skipping valuation", "symbols", len(symbols))
		s.mu.Lock()
		s.snapshot.Holdings = holdings
		s.snapshot.Alerts = s.engine.Active()
		s.mu.Unlock()
		return
	}

	// 3. Valuation
	allocations, total := portfolio.Allocations(holdings, quotes)
	point := portfolio.HistoryPoint{Date: s.now(), Value: total}
	observed := s.observe(point.Date, quotes)

	// 4. History
	if err := s.store.AppendHistoryPoint(ctx, point, s.opts.HistoryLimit); err != nil {
		s.logger.Error("persist history point", "error", err)
	}

	s.mu.Lock()
	s.history.Append(point)
	points := s.history.Points()
	returns := s.history.Returns()
	s.mu.Unlock()

	// 5. Alerts
	active, raised := s.engine.RunAllChecks(holdings, quotes, points)

	metrics.PriceRefreshes.WithLabelValues("ok").Inc()
	metrics.PortfolioValue.Set(total)
	metrics.ActiveAlerts.Set(float64(len(active)))
	for _, a := range raised {
		metrics.AlertsRaised.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}

	snap := Snapshot{
		Holdings:     holdings,
		Quotes:       quotes,
		Allocations:  allocations,
		TotalValue:   total,
		SharpeRatio:  portfolio.SharpeRatio(returns, portfolio.DefaultRiskFreeRate),
		ByCategory:   portfolio.GroupByCategory(holdings, quotes, s.classes),
		ByType:       portfolio.GroupByType(holdings, quotes, s.classes),
		History:      points,
		ValueSeries:  portfolio.ValueSeries(holdings, observed),
		Correlations: portfolio.Correlations(observed, symbols),
		Alerts:       active,
		UpdatedAt:    point.Date,
	}
	if len(points) > 0 {
		snap.PnL = portfolio.ComputePnL(total, points[0].Value)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Info("refresh cycle completed", "symbols", len(symbols), "quotes", len(quotes), "total", total, "raised", len(raised))

	// 6. Notifications
	if len(raised) > 0 {
		s.notifier.NotifyAlerts(raised)
		s.advise(ctx, holdings, quotes, returns, raised)
	}
}

// observe records the quoted prices, keeping as many points as the value
// history, and returns a copy of the recorded points.
func (s *Scheduler) observe(at time.Time, quotes portfolio.Prices) []portfolio.PricePoint {
	pt := portfolio.PricePoint{Date: at, Prices: make(map[string]float64, len(quotes))}
	for sym, q := range quotes {
		pt.Prices[sym] = q.Price
	}

	limit := s.opts.HistoryLimit
	if limit <= 0 {
		limit = portfolio.DefaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = append(s.observed, pt)
	if over := len(s.observed) - limit; over > 0 {
		s.observed = append([]portfolio.PricePoint(nil), s.observed[over:]...)
	}
	return append([]portfolio.PricePoint(nil), s.observed...)
}

func (s *Scheduler) advise(ctx context.Context, holdings portfolio.Holdings, quotes portfolio.Prices, returns []float64, raised []alerts.Alert) {
	if s.advisor == nil {
		return
	}

	var critical []alerts.Alert
	for _, a := range raised {
		if a.Severity == alerts.SeverityCritical {
			critical = append(critical, a)
		}
	}
	if len(critical) == 0 {
		return
	}

	req := advisor.BuildRequest(holdings, quotes, s.classes, returns, critical)
	suggestions, _, err := s.advisor.Advise(ctx, req)
	if err != nil {
		s.logger.Error("advisor request", "error", err)
		return
	}
	s.notifier.NotifyAdvice(advisor.FormatNote(suggestions))
}

// Snapshot returns the latest cycle state with the current active alerts.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	snap.Alerts = s.engine.Active()
	if snap.Holdings == nil {
		snap.Holdings = portfolio.Holdings{}
	}
	return snap
}
