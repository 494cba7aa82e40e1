// Package portfolio holds the pure valuation and risk math of the tracker.
// Nothing here performs I/O, and no function returns NaN or Inf.
package portfolio

import "strings"

// Holdings maps an upper-case token symbol to the amount held.
type Holdings map[string]float64

// Symbols returns the held symbols.
func (h Holdings) Symbols() []string {
	out := make([]string, 0, len(h))
	for sym := range h {
		out = append(out, sym)
	}
	return out
}

// Normalize upper-cases symbols, merging duplicates, and drops empty symbols
// and non-positive amounts.
func (h Holdings) Normalize() Holdings {
	out := make(Holdings, len(h))
	for sym, amount := range h {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || amount <= 0 {
			continue
		}
		out[sym] += amount
	}
	return out
}

// Quote is a market quote in USD.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"` // percent
	Volume24h float64 `json:"volume24h"`
	MarketCap float64 `json:"marketCap"`
}

// Prices maps a symbol to its latest quote.
type Prices map[string]Quote

// PriceOf returns the price of sym, or 0 when there is no quote.
func (p Prices) PriceOf(sym string) float64 {
	if q, ok := p[sym]; ok {
		return q.Price
	}
	return 0
}

type Category string

const (
	CategoryBTCETH      Category = "btc_eth"
	CategoryMidLowCap   Category = "mid_low_cap"
	CategoryMemecoins   Category = "memecoins"
	CategoryStablecoins Category = "stablecoins"
)

type AssetType string

const (
	TypeLayer1    AssetType = "layer1"
	TypeAI        AssetType = "ai"
	TypeUsability AssetType = "usability"
	TypeMeme      AssetType = "meme"
	TypeStable    AssetType = "stable"
)

type RiskTier string

const (
	RiskSafest   RiskTier = "safest"
	RiskModerate RiskTier = "moderate"
	RiskRisky    RiskTier = "risky"
)

// Asset is the static classification of one symbol.
type Asset struct {
	Symbol           string    `yaml:"-" json:"symbol"`
	Name             string    `yaml:"name" json:"name"`
	Category         Category  `yaml:"category" json:"category"`
	Type             AssetType `yaml:"type" json:"type"`
	TargetAllocation float64   `yaml:"target_allocation" json:"targetAllocation"`
	Risk             RiskTier  `yaml:"risk" json:"risk"`
}

// Classification maps a symbol to its asset classification.
type Classification map[string]Asset

// NameOf returns the display name of sym, falling back to the symbol.
func (c Classification) NameOf(sym string) string {
	if a, ok := c[sym]; ok && a.Name != "" {
		return a.Name
	}
	return sym
}
