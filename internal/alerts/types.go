package alerts

import "time"

type Type string

const (
	TypePriceMovement       Type = "price_movement"
	TypePortfolioValue      Type = "portfolio_value"
	TypeAllocationDeviation Type = "allocation_deviation"
	TypeSharpeRatio         Type = "sharpe_ratio"
	TypeVolatility          Type = "volatility"
	TypeNews                Type = "news"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Action is the suggested response to an alert.
type Action string

const (
	ActionCashout5        Action = "CASHOUT_5_PERCENT"
	ActionRebalance       Action = "REBALANCE"
	ActionCashoutToStable Action = "CASHOUT_5_PERCENT_TO_STABLE"
)

type Alert struct {
	ID        string             `json:"id"`
	Type      Type               `json:"type"`
	Severity  Severity           `json:"severity"`
	Symbol    string             `json:"symbol,omitempty"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Data      map[string]float64 `json:"data"`
	Action    Action             `json:"action,omitempty"`
}
