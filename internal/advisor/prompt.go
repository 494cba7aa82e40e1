package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

const systemPrompt = `You are a cautious crypto portfolio assistant.
You receive a portfolio with current and target allocations and the alerts that were just raised.
Suggest at most five rebalancing steps that bring the portfolio closer to its targets.

Rules:
1. Only use symbols that appear in the portfolio.
2. percent is the share of the position to move, between 0 and 100.
3. Prefer moving profits of mid/low caps and memecoins into stablecoins after large gains.
4. Never suggest leverage or new assets.

Answer strictly in JSON (array of objects):
[
  {
    "action": "REDUCE",
    "symbol": "SOL",
    "percent": 5,
    "reasoning": "Reason for the step"
  }
]

If no action is needed return an empty array [].`

// BuildRequest assembles the advisor input from the current portfolio state.
func BuildRequest(holdings portfolio.Holdings, prices portfolio.Prices, classes portfolio.Classification, returns []float64, raised []alerts.Alert) *Request {
	allocations, total := portfolio.Allocations(holdings, prices)

	symbols := holdings.Symbols()
	sort.Strings(symbols)

	req := &Request{
		TotalValue: total,
		Sharpe:     portfolio.SharpeRatio(returns, portfolio.DefaultRiskFreeRate),
		Alerts:     raised,
	}
	for _, sym := range symbols {
		q := prices[sym]
		asset := classes[sym]
		req.Positions = append(req.Positions, Position{
			Symbol:     sym,
			Amount:     holdings[sym],
			Price:      q.Price,
			Change24h:  q.Change24h,
			Allocation: allocations[sym],
			Target:     asset.TargetAllocation,
			Category:   asset.Category,
		})
	}
	return req
}

func BuildUserPrompt(req *Request) string {
	var sb strings.Builder

	sb.WriteString("## Portfolio\n")
	sb.WriteString(fmt.Sprintf("Total value: %.2f USD / Sharpe ratio: %.2f\n\n", req.TotalValue, req.Sharpe))

	if len(req.Positions) > 0 {
		sb.WriteString("| Symbol | Category | Amount | Price | 24h% | Allocation% | Target% |\n")
		sb.WriteString("|--------|----------|--------|-------|------|-------------|---------|\n")
		for _, p := range req.Positions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.6g | %.4f | %+.1f | %.1f | %.1f |\n",
				p.Symbol, p.Category, p.Amount, p.Price, p.Change24h, p.Allocation*100, p.Target*100))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("The portfolio is empty.\n\n")
	}

	sb.WriteString("## Alerts\n")
	if len(req.Alerts) == 0 {
		sb.WriteString("No alerts.\n")
	}
	for _, a := range req.Alerts {
		sb.WriteString(fmt.Sprintf("- [%s] %s", a.Severity, a.Message))
		if a.Action != "" {
			sb.WriteString(fmt.Sprintf(" (suggested: %s)", a.Action))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nSuggest rebalancing steps in JSON.")

	return sb.String()
}

// FormatNote renders suggestions as a short Markdown list.
func FormatNote(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return "No rebalancing needed."
	}
	var sb strings.Builder
	for _, s := range suggestions {
		sb.WriteString(fmt.Sprintf("• %s %s %.0f%%", s.Action, s.Symbol, s.Percent))
		if s.Reasoning != "" {
			sb.WriteString(" - " + s.Reasoning)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
