package portfolio

import (
	"sort"
	"time"
)

// AssetValue is one holding valued at its current price.
type AssetValue struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Price     float64 `json:"price"`
	Value     float64 `json:"value"`
	Change24h float64 `json:"change24h"`
}

// Group is one partition of the holdings.
type Group struct {
	TotalValue float64      `json:"totalValue"`
	Assets     []AssetValue `json:"assets"`
}

// GroupByCategory partitions holdings by asset category. Symbols missing from
// the classification are left out.
func GroupByCategory(holdings Holdings, prices Prices, classes Classification) map[string]Group {
	return groupBy(holdings, prices, classes, func(a Asset) string { return string(a.Category) })
}

// GroupByType partitions holdings by asset type. Symbols missing from the
// classification are left out.
func GroupByType(holdings Holdings, prices Prices, classes Classification) map[string]Group {
	return groupBy(holdings, prices, classes, func(a Asset) string { return string(a.Type) })
}

func groupBy(holdings Holdings, prices Prices, classes Classification, key func(Asset) string) map[string]Group {
	grouped := make(map[string]Group)
	for _, sym := range sortedSymbols(holdings) {
		asset, ok := classes[sym]
		if !ok {
			continue
		}
		q := prices[sym]
		amount := holdings[sym]
		value := finiteOrZero(amount * q.Price)

		g := grouped[key(asset)]
		g.TotalValue = finiteOrZero(g.TotalValue + value)
		g.Assets = append(g.Assets, AssetValue{
			Symbol:    sym,
			Name:      asset.Name,
			Amount:    amount,
			Price:     q.Price,
			Value:     value,
			Change24h: q.Change24h,
		})
		grouped[key(asset)] = g
	}
	return grouped
}

// PricePoint is the set of prices observed at one moment.
type PricePoint struct {
	Date   time.Time          `json:"date"`
	Prices map[string]float64 `json:"prices"`
}

// ValueSeries values the holdings at each historical price point.
func ValueSeries(holdings Holdings, points []PricePoint) []HistoryPoint {
	out := make([]HistoryPoint, 0, len(points))
	for _, pt := range points {
		var value float64
		for sym, amount := range holdings {
			value += finiteOrZero(amount * pt.Prices[sym])
		}
		out = append(out, HistoryPoint{Date: pt.Date, Value: finiteOrZero(value)})
	}
	return out
}

// PairSeries returns the prices of a and b at the points quoting both.
func PairSeries(points []PricePoint, a, b string) ([]float64, []float64) {
	var sa, sb []float64
	for _, pt := range points {
		pa, okA := pt.Prices[a]
		pb, okB := pt.Prices[b]
		if okA && okB {
			sa = append(sa, pa)
			sb = append(sb, pb)
		}
	}
	return sa, sb
}

// Correlations returns the return correlation of every pair of symbols,
// keyed "A/B" with A sorted before B.
func Correlations(points []PricePoint, symbols []string) map[string]float64 {
	syms := append([]string(nil), symbols...)
	sort.Strings(syms)

	out := make(map[string]float64)
	for i := 0; i < len(syms); i++ {
		for j := i + 1; j < len(syms); j++ {
			a, b := PairSeries(points, syms[i], syms[j])
			out[syms[i]+"/"+syms[j]] = Correlation(a, b)
		}
	}
	return out
}

func sortedSymbols(h Holdings) []string {
	syms := h.Symbols()
	sort.Strings(syms)
	return syms
}
