package config

import "github.com/camuig/capital-tracker/internal/portfolio"

// CoinGecko ids for the symbols the tracker knows out of the box. Entries in
// pricing.coin_ids override these.
var defaultCoinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"ETC":   "ethereum-classic",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"VET":   "vechain",
	"ICP":   "internet-computer",
	"FIL":   "filecoin",
	"TRX":   "tron",
	"NEAR":  "near",
	"APT":   "aptos",
	"SUI":   "sui",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"DOGE":  "dogecoin",
	"SHIB":  "shiba-inu",
	"PEPE":  "pepe",
	"BONK":  "bonk",
	"WIF":   "dogwifcoin",
	"FET":   "fetch-ai",
	"RNDR":  "render-token",
	"TAO":   "bittensor",
	"INJ":   "injective-protocol",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

// DefaultAssets is the classification used when the config file has no
// assets section.
func DefaultAssets() map[string]portfolio.Asset {
	return map[string]portfolio.Asset{
		"BTC":  {Name: "Bitcoin", Category: portfolio.CategoryBTCETH, Type: portfolio.TypeLayer1, TargetAllocation: 0.05, Risk: portfolio.RiskSafest},
		"ETH":  {Name: "Ethereum", Category: portfolio.CategoryBTCETH, Type: portfolio.TypeLayer1, TargetAllocation: 0.05, Risk: portfolio.RiskSafest},
		"LINK": {Name: "Chainlink", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeUsability, TargetAllocation: 0.08, Risk: portfolio.RiskSafest},
		"SOL":  {Name: "Solana", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeLayer1, TargetAllocation: 0.10, Risk: portfolio.RiskSafest},
		"SUI":  {Name: "Sui", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeLayer1, TargetAllocation: 0.08, Risk: portfolio.RiskSafest},
		"AVAX": {Name: "Avalanche", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeLayer1, TargetAllocation: 0.06, Risk: portfolio.RiskModerate},
		"XRP":  {Name: "Ripple", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeUsability, TargetAllocation: 0.04, Risk: portfolio.RiskModerate},
		"DOT":  {Name: "Polkadot", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeLayer1, TargetAllocation: 0.04, Risk: portfolio.RiskModerate},
		"FET":  {Name: "Fetch.ai", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeAI, TargetAllocation: 0.05, Risk: portfolio.RiskModerate},
		"RNDR": {Name: "Render", Category: portfolio.CategoryMidLowCap, Type: portfolio.TypeAI, TargetAllocation: 0.05, Risk: portfolio.RiskModerate},
		"DOGE": {Name: "Dogecoin", Category: portfolio.CategoryMemecoins, Type: portfolio.TypeMeme, TargetAllocation: 0.03, Risk: portfolio.RiskRisky},
		"SHIB": {Name: "Shiba Inu", Category: portfolio.CategoryMemecoins, Type: portfolio.TypeMeme, TargetAllocation: 0.02, Risk: portfolio.RiskRisky},
		"PEPE": {Name: "Pepe", Category: portfolio.CategoryMemecoins, Type: portfolio.TypeMeme, TargetAllocation: 0.02, Risk: portfolio.RiskRisky},
		"MONK": {Name: "MonkeyPox", Category: portfolio.CategoryMemecoins, Type: portfolio.TypeMeme, TargetAllocation: 0.015, Risk: portfolio.RiskRisky},
		"MUMU": {Name: "Mumu", Category: portfolio.CategoryMemecoins, Type: portfolio.TypeMeme, TargetAllocation: 0.015, Risk: portfolio.RiskRisky},
		"USDT": {Name: "Tether", Category: portfolio.CategoryStablecoins, Type: portfolio.TypeStable, TargetAllocation: 0.15, Risk: portfolio.RiskSafest},
		"USDC": {Name: "USD Coin", Category: portfolio.CategoryStablecoins, Type: portfolio.TypeStable, TargetAllocation: 0.15, Risk: portfolio.RiskSafest},
	}
}
