package portfolio

import "math"

// DefaultRiskFreeRate is the per-period risk-free rate used by SharpeRatio.
const DefaultRiskFreeRate = 0.02

// Allocations returns each held symbol's fraction of the total value, and the
// total. A missing price counts as 0. With a zero total every fraction is 0.
func Allocations(holdings Holdings, prices Prices) (map[string]float64, float64) {
	total := TotalValue(holdings, prices)

	fractions := make(map[string]float64, len(holdings))
	for sym, amount := range holdings {
		if total > 0 {
			fractions[sym] = finiteOrZero(amount * prices.PriceOf(sym) / total)
		} else {
			fractions[sym] = 0
		}
	}
	return fractions, total
}

// TotalValue is the sum of amount x price over all held symbols. Terms that
// overflow are left out, and a sum that overflows is 0.
func TotalValue(holdings Holdings, prices Prices) float64 {
	var total float64
	for sym, amount := range holdings {
		if v := amount * prices.PriceOf(sym); finite(v) {
			total += v
		}
	}
	return finiteOrZero(total)
}

// AllocationDeviation is the absolute distance between current and target.
func AllocationDeviation(current, target float64) float64 {
	return math.Abs(current - target)
}

// SharpeRatio is (mean(returns) - riskFree) / stddev(returns), or 0 when
// returns is empty or has no spread.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	if len(returns) == 0 || allEqual(returns) {
		return 0
	}
	avg := mean(returns)
	sd := math.Sqrt(variance(returns, avg))
	if sd == 0 || !finite(sd) {
		return 0
	}
	return finiteOrZero((avg - riskFree) / sd)
}

// DailyReturns converts a price series into period returns. A step whose
// previous price is not positive is skipped.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		out = append(out, (prices[i]-prices[i-1])/prices[i-1])
	}
	return out
}

// Volatility is the annualized standard deviation of daily returns, in
// percent: sqrt(variance * 365) * 100. Fewer than 2 points yield 0.
func Volatility(prices []float64) float64 {
	returns := DailyReturns(prices)
	if len(returns) == 0 {
		return 0
	}
	v := variance(returns, mean(returns))
	return finiteOrZero(math.Sqrt(v*365) * 100)
}

// Correlation is the Pearson correlation of the two series' daily returns.
// It is 0 when lengths differ, a series is too short, or either side has no
// variance.
func Correlation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	var ra, rb []float64
	for i := 1; i < len(a); i++ {
		if a[i-1] <= 0 || b[i-1] <= 0 {
			continue
		}
		ra = append(ra, (a[i]-a[i-1])/a[i-1])
		rb = append(rb, (b[i]-b[i-1])/b[i-1])
	}
	if len(ra) == 0 {
		return 0
	}

	ma, mb := mean(ra), mean(rb)
	var num, sqa, sqb float64
	for i := range ra {
		da, db := ra[i]-ma, rb[i]-mb
		num += da * db
		sqa += da * da
		sqb += db * db
	}
	den := math.Sqrt(sqa * sqb)
	if den == 0 {
		return 0
	}
	return finiteOrZero(num / den)
}

// PnL is a profit-and-loss figure.
type PnL struct {
	Absolute   float64 `json:"absolute"`
	Percentage float64 `json:"percentage"`
}

// ComputePnL compares current with initial. Percentage is 0 when initial is
// not positive.
func ComputePnL(current, initial float64) PnL {
	p := PnL{Absolute: current - initial}
	if initial > 0 {
		p.Percentage = p.Absolute / initial * 100
	}
	return p
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// population variance
func variance(xs []float64, avg float64) float64 {
	var sum float64
	for _, x := range xs {
		d := x - avg
		sum += d * d
	}
	return sum / float64(len(xs))
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finiteOrZero(x float64) float64 {
	if !finite(x) {
		return 0
	}
	return x
}
