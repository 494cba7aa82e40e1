package advisor

import (
	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

type Position struct {
	Symbol     string
	Amount     float64
	Price      float64
	Change24h  float64 // percent
	Allocation float64 // fraction
	Target     float64 // fraction
	Category   portfolio.Category
}

type Request struct {
	Positions  []Position
	TotalValue float64
	Sharpe     float64
	Alerts     []alerts.Alert
}

type Suggestion struct {
	Action    string  `json:"action"` // REDUCE, INCREASE, CASHOUT_TO_STABLE, HOLD
	Symbol    string  `json:"symbol"`
	Percent   float64 `json:"percent"`
	Reasoning string  `json:"reasoning"`
}
