package storage

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// ProjectionTargets are the USDT milestones reported by CalculateProjections.
var ProjectionTargets = []float64{3000, 10000, 50000}

// MaxProjectionDays is the horizon beyond which a target counts as
// unreachable.
const MaxProjectionDays = 100 * 365

type TradePerformance struct {
	TotalPNL    float64 `json:"totalPNL"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"winRate"` // percent
	AvgPNL      float64 `json:"avgPNL"`
	TotalTrades int     `json:"totalTrades"`
}

type MiningStats struct {
	TotalDaily   float64 `json:"totalDaily"`
	Weekly       float64 `json:"weekly"`
	Monthly      float64 `json:"monthly"`
	ActiveMiners int     `json:"activeMiners"`
}

// amount converts a stored float to a decimal. Rows holding NaN or an
// infinity are reported as not ok and left out of every aggregate.
func amount(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// toFloat saturates at the float64 range instead of returning an infinity.
func toFloat(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

func sumEarnings(earnings []Earning) decimal.Decimal {
	total := decimal.Zero
	for _, e := range earnings {
		if v, ok := amount(e.AmountUSDT); ok {
			total = total.Add(v)
		}
	}
	return total
}

// TotalEarningsToday sums today's earnings in USDT.
func (r *Repository) TotalEarningsToday(ctx context.Context) (float64, error) {
	earnings, err := r.EarningsByDate(ctx, r.Today())
	if err != nil {
		return 0, err
	}
	return toFloat(sumEarnings(earnings)), nil
}

// EarningsLast7Days sums earnings from seven days ago through today,
// both ends inclusive.
func (r *Repository) EarningsLast7Days(ctx context.Context) (float64, error) {
	now := r.now().UTC()
	start := now.AddDate(0, 0, -7).Format(dateLayout)
	earnings, err := r.EarningsByDateRange(ctx, start, now.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return toFloat(sumEarnings(earnings)), nil
}

// EarningsByDay totals earnings per date in [start, end].
func (r *Repository) EarningsByDay(ctx context.Context, start, end string) (map[string]float64, error) {
	earnings, err := r.EarningsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	for _, e := range earnings {
		if v, ok := amount(e.AmountUSDT); ok {
			totals[e.Date] = totals[e.Date].Add(v)
		}
	}

	out := make(map[string]float64, len(totals))
	for date, total := range totals {
		out[date] = toFloat(total)
	}
	return out, nil
}

// TradePerformance summarizes trades, optionally restricted to one exchange.
// Trades whose PNL is not a finite number are not counted.
func (r *Repository) TradePerformance(ctx context.Context, exchange string) (TradePerformance, error) {
	var (
		trades []Trade
		err    error
	)
	if exchange != "" {
		trades, err = r.TradesByExchange(ctx, exchange)
	} else {
		trades, err = GetAll[Trade](ctx, r.Store)
	}
	if err != nil {
		return TradePerformance{}, err
	}

	var perf TradePerformance
	total := decimal.Zero
	for _, t := range trades {
		pnl, ok := amount(t.PNLUSDT)
		if !ok {
			continue
		}
		perf.TotalTrades++
		total = total.Add(pnl)
		if pnl.IsPositive() {
			perf.Wins++
		}
	}

	perf.TotalPNL = toFloat(total)
	if perf.TotalTrades > 0 {
		n := decimal.NewFromInt(int64(perf.TotalTrades))
		perf.AvgPNL = toFloat(total.Div(n))
		perf.WinRate = decimal.NewFromInt(int64(perf.Wins)).Div(n).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return perf, nil
}

func (r *Repository) MiningStats(ctx context.Context) (MiningStats, error) {
	miners, err := r.ActiveMiners(ctx)
	if err != nil {
		return MiningStats{}, err
	}

	daily := decimal.Zero
	for _, m := range miners {
		if v, ok := amount(m.DailyMiningUSDT); ok {
			daily = daily.Add(v)
		}
	}

	return MiningStats{
		TotalDaily:   toFloat(daily),
		Weekly:       toFloat(daily.Mul(decimal.NewFromInt(7))),
		Monthly:      toFloat(daily.Mul(decimal.NewFromInt(30))),
		ActiveMiners: len(miners),
	}, nil
}

// CalculateProjections estimates the daily income from the last week of
// earnings, active miners and average trade PNL (losses count as zero), and
// extrapolates it. A target further away than MaxProjectionDays is reported
// as unreachable. The result is not stored.
func (r *Repository) CalculateProjections(ctx context.Context) (Projection, error) {
	week, err := r.EarningsLast7Days(ctx)
	if err != nil {
		return Projection{}, err
	}
	mining, err := r.MiningStats(ctx)
	if err != nil {
		return Projection{}, err
	}
	perf, err := r.TradePerformance(ctx, "")
	if err != nil {
		return Projection{}, err
	}

	daily := decimal.NewFromFloat(week).Div(decimal.NewFromInt(7)).
		Add(decimal.NewFromFloat(mining.TotalDaily)).
		Add(decimal.Max(decimal.NewFromFloat(perf.AvgPNL), decimal.Zero))

	p := Projection{
		Date:            r.Today(),
		DailyAvg:        toFloat(daily),
		WeekProjection:  toFloat(daily.Mul(decimal.NewFromInt(7))),
		MonthProjection: toFloat(daily.Mul(decimal.NewFromInt(30))),
		DaysToTarget:    make([]TargetDays, 0, len(ProjectionTargets)),
		Timestamp:       r.now(),
	}
	for _, target := range ProjectionTargets {
		td := TargetDays{Target: target}
		if daily.IsPositive() {
			days := decimal.Max(decimal.NewFromFloat(target).Div(daily).Ceil(), decimal.NewFromInt(1))
			if days.LessThanOrEqual(decimal.NewFromInt(MaxProjectionDays)) {
				td.Days = int(days.IntPart())
				td.Reachable = true
			}
		}
		p.DaysToTarget = append(p.DaysToTarget, td)
	}
	return p, nil
}
