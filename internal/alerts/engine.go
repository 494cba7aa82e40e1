package alerts

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

const (
	DefaultDedupWindow = time.Hour
	DefaultRetention   = 24 * time.Hour
)

var DefaultCoreSymbols = []string{"BTC", "ETH"}

type Options struct {
	CoreSymbols []string
	DedupWindow time.Duration
	Retention   time.Duration
}

// Engine evaluates alert rules and keeps the in-memory list of active
// alerts. An alert is dropped from the list when dismissed or once it is
// older than the retention window.
type Engine struct {
	config  *ConfigStore
	classes portfolio.Classification
	core    map[string]bool
	dedup   time.Duration
	retain  time.Duration
	logger  *logger.Logger
	now     func() time.Time
	newID   func() string

	mu     sync.Mutex
	alerts []Alert
}

func NewEngine(config *ConfigStore, classes portfolio.Classification, opts Options, log *logger.Logger) *Engine {
	if len(opts.CoreSymbols) == 0 {
		opts.CoreSymbols = DefaultCoreSymbols
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = DefaultDedupWindow
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}

	core := make(map[string]bool, len(opts.CoreSymbols))
	for _, s := range opts.CoreSymbols {
		core[strings.ToUpper(s)] = true
	}

	return &Engine{
		config:  config,
		classes: classes,
		core:    core,
		dedup:   opts.DedupWindow,
		retain:  opts.Retention,
		logger:  log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Config returns the threshold store backing the engine.
func (e *Engine) Config() *ConfigStore {
	return e.config
}

func (e *Engine) newAlert(t Type, sev Severity, symbol, msg string, data map[string]float64, action Action) Alert {
	return Alert{
		ID:        e.newID(),
		Type:      t,
		Severity:  sev,
		Symbol:    symbol,
		Message:   msg,
		Timestamp: e.now(),
		Data:      data,
		Action:    action,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CheckPriceMovements evaluates the 24h change of every held symbol that
// has both a quote and a classification. The rules are independent, so one
// symbol may produce several candidates.
func (e *Engine) CheckPriceMovements(holdings portfolio.Holdings, prices portfolio.Prices) []Alert {
	return e.checkPriceMovements(e.config.Get(), holdings, prices)
}

func (e *Engine) checkPriceMovements(cfg Config, holdings portfolio.Holdings, prices portfolio.Prices) []Alert {
	core := cfg.coreSet()
	if core == nil {
		core = e.core
	}
	sev := cfg.Severities

	var out []Alert
	for _, sym := range sortedKeys(holdings) {
		q, ok := prices[sym]
		if !ok {
			continue
		}
		asset, ok := e.classes[sym]
		if !ok {
			continue
		}

		change := q.Change24h / 100
		if math.IsNaN(change) || math.IsInf(change, 0) {
			continue
		}
		name := e.classes.NameOf(sym)
		data := map[string]float64{"change": change, "price": q.Price}

		if core[sym] && math.Abs(change) >= cfg.PriceMovement.Threshold10 {
			out = append(out, e.newAlert(TypePriceMovement, sev.CoreMove, sym,
				fmt.Sprintf("%s moved %.2f%% in 24h", name, change*100), data, ""))
		}

		if asset.Category == portfolio.CategoryMidLowCap && change >= cfg.PriceMovement.Threshold30 {
			out = append(out, e.newAlert(TypePriceMovement, sev.MidCapGain, sym,
				fmt.Sprintf("%s gained %.2f%% - Consider 5%% cashout", name, change*100), data, ActionCashout5))
		}

		if math.Abs(change) >= cfg.PriceMovement.Threshold10 {
			level, dir := sev.PriceUp, "up"
			if change <= 0 {
				level, dir = sev.PriceDown, "down"
			}
			out = append(out, e.newAlert(TypePriceMovement, level, sym,
				fmt.Sprintf("%s %s %.2f%%", name, dir, math.Abs(change*100)), data, ""))
		}
	}
	return out
}

// CheckAllocationDeviations flags classified holdings whose share of the
// portfolio is too far from the target allocation.
func (e *Engine) CheckAllocationDeviations(holdings portfolio.Holdings, prices portfolio.Prices) []Alert {
	return e.checkAllocationDeviations(e.config.Get(), holdings, prices)
}

func (e *Engine) checkAllocationDeviations(cfg Config, holdings portfolio.Holdings, prices portfolio.Prices) []Alert {
	allocations, _ := portfolio.Allocations(holdings, prices)

	var out []Alert
	for _, sym := range sortedKeys(allocations) {
		asset, ok := e.classes[sym]
		if !ok {
			continue
		}
		current := allocations[sym]
		deviation := portfolio.AllocationDeviation(current, asset.TargetAllocation)
		if deviation <= cfg.AllocationDeviation.Threshold {
			continue
		}

		level := cfg.Severities.AllocationDeviation
		if deviation > cfg.AllocationDeviation.HighThreshold {
			level = cfg.Severities.AllocationDeviationHigh
		}
		out = append(out, e.newAlert(TypeAllocationDeviation, level, sym,
			fmt.Sprintf("%s allocation is %.2f%% (target: %.2f%%)", e.classes.NameOf(sym), current*100, asset.TargetAllocation*100),
			map[string]float64{
				"currentAllocation": current,
				"targetAllocation":  asset.TargetAllocation,
				"deviation":         deviation,
			},
			ActionRebalance))
	}
	return out
}

// CheckPortfolioValue compares two consecutive portfolio values. Nothing is
// raised when the previous value is 0.
func (e *Engine) CheckPortfolioValue(current, previous float64) []Alert {
	return e.checkPortfolioValue(e.config.Get(), current, previous)
}

func (e *Engine) checkPortfolioValue(cfg Config, current, previous float64) []Alert {
	if previous == 0 {
		return nil
	}

	change := (current - previous) / previous
	data := map[string]float64{"currentValue": current, "previousValue": previous, "change": change}

	switch {
	case change <= cfg.PortfolioValue.ThresholdDown:
		return []Alert{e.newAlert(TypePortfolioValue, cfg.Severities.PortfolioDown, "",
			fmt.Sprintf("Portfolio value down %.2f%%", math.Abs(change)*100), data, "")}
	case change >= cfg.PortfolioValue.ThresholdUp:
		return []Alert{e.newAlert(TypePortfolioValue, cfg.Severities.PortfolioUp, "",
			fmt.Sprintf("Portfolio value up %.2f%%", change*100), data, "")}
	}
	return nil
}

// CheckSharpeRatio raises when the Sharpe ratio of returns is below the
// threshold. Fewer than two returns raise nothing, even though SharpeRatio
// reports 0 for them and 0 is below the default threshold of 1.
func (e *Engine) CheckSharpeRatio(returns []float64) []Alert {
	if len(returns) < 2 {
		return nil
	}
	cfg := e.config.Get()
	sharpe := portfolio.SharpeRatio(returns, portfolio.DefaultRiskFreeRate)
	if sharpe >= cfg.SharpeRatio.Threshold {
		return nil
	}
	return []Alert{e.newAlert(TypeSharpeRatio, cfg.Severities.SharpeRatio, "",
		fmt.Sprintf("Sharpe Ratio below threshold: %.2f", sharpe),
		map[string]float64{"sharpeRatio": sharpe},
		ActionCashoutToStable)}
}

// CheckVolatility flags non-stable classified assets whose volatility is
// above the threshold. The annualized volatility of series[symbol] is used
// when it has at least two prices, else the absolute 24h change.
func (e *Engine) CheckVolatility(prices portfolio.Prices, series map[string][]float64) []Alert {
	cfg := e.config.Get()

	var out []Alert
	for _, sym := range sortedKeys(prices) {
		asset, ok := e.classes[sym]
		if !ok || asset.Type == portfolio.TypeStable {
			continue
		}

		vol := math.Abs(prices[sym].Change24h)
		if s := series[sym]; len(s) >= 2 {
			vol = portfolio.Volatility(s)
		}
		if vol <= cfg.Volatility.Threshold {
			continue
		}
		out = append(out, e.newAlert(TypeVolatility, cfg.Severities.Volatility, sym,
			fmt.Sprintf("%s experiencing high volatility: %.2f%%", e.classes.NameOf(sym), vol),
			map[string]float64{"volatility": vol}, ""))
	}
	return out
}

// pruneLocked drops alerts older than the retention window.
func (e *Engine) pruneLocked() {
	now := e.now()
	kept := e.alerts[:0]
	for _, a := range e.alerts {
		if now.Sub(a.Timestamp) < e.retain {
			kept = append(kept, a)
		}
	}
	e.alerts = kept
}

// Add appends a unless an alert with the same symbol and type was raised
// within the dedup window. It reports whether a was added.
func (e *Engine) Add(a Alert) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(a)
}

func (e *Engine) addLocked(a Alert) bool {
	if a.ID == "" {
		a.ID = e.newID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = e.now()
	}

	e.pruneLocked()
	now := e.now()
	for _, existing := range e.alerts {
		if existing.Symbol == a.Symbol && existing.Type == a.Type && now.Sub(existing.Timestamp) < e.dedup {
			return false
		}
	}
	e.alerts = append(e.alerts, a)
	return true
}

// Active returns the alerts still within the retention window, oldest first.
func (e *Engine) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeLocked()
}

func (e *Engine) activeLocked() []Alert {
	e.pruneLocked()
	out := make([]Alert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// Dismiss removes the alert with the given id and reports whether it existed.
func (e *Engine) Dismiss(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, a := range e.alerts {
		if a.ID == id {
			e.alerts = append(e.alerts[:i], e.alerts[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = nil
}

// RunAllChecks evaluates price movement, allocation deviation and (with at
// least two history points) portfolio value against one config snapshot.
// It returns the active list and the alerts newly added by this run.
func (e *Engine) RunAllChecks(holdings portfolio.Holdings, prices portfolio.Prices, history []portfolio.HistoryPoint) ([]Alert, []Alert) {
	cfg := e.config.Get()

	candidates := e.checkPriceMovements(cfg, holdings, prices)
	candidates = append(candidates, e.checkAllocationDeviations(cfg, holdings, prices)...)
	if n := len(history); n >= 2 {
		candidates = append(candidates, e.checkPortfolioValue(cfg, history[n-1].Value, history[n-2].Value)...)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	raised := make([]Alert, 0, len(candidates))
	for _, a := range candidates {
		if e.addLocked(a) {
			raised = append(raised, a)
		}
	}
	if len(raised) > 0 {
		e.logger.Info("alerts raised", "count", len(raised), "candidates", len(candidates))
	}
	return e.activeLocked(), raised
}
