package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/camuig/capital-tracker/internal/config"
	"github.com/camuig/capital-tracker/internal/currency"
	"github.com/camuig/capital-tracker/internal/holdings"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/market"
	"github.com/camuig/capital-tracker/internal/portfolio"
	"github.com/camuig/capital-tracker/internal/pricing"
	"github.com/camuig/capital-tracker/internal/storage"
	"github.com/camuig/capital-tracker/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "compute holdings without saving them")
	notify := flag.Bool("notify", false, "send the portfolio summary to Telegram")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	ctx := context.Background()
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database open error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "database init error: %v\n", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(store)

	hold := holdings.NewManager(repo, cfg.Holdings.Policy, log.Component("holdings"))
	var h portfolio.Holdings
	if *dryRun {
		h, err = hold.Compute(ctx)
	} else {
		h, err = hold.Recompute(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "recompute error: %v\n", err)
		os.Exit(1)
	}

	if len(h) == 0 {
		fmt.Println("No holdings.")
		return
	}

	marketClient := market.NewClient(cfg.PricingTimeout(), log.Component("market"))
	gecko := market.NewCoinGecko(marketClient, cfg.Pricing.BaseURL, cfg.Pricing.APIKey, cfg.Pricing.CoinIDs, cfg.Pricing.RequestsPerMinute)
	prices := pricing.NewClient(gecko, pricing.NewMemoryCache(), cfg.PriceCacheTTL(), log.Component("pricing"))

	symbols := h.Symbols()
	sort.Strings(symbols)
	quotes := portfolio.Prices(prices.GetQuotes(ctx, symbols))
	allocations, total := portfolio.Allocations(h, quotes)

	fmt.Printf("Holdings (%s policy, %d symbol(s)):\n\n", hold.Policy(), len(h))
	for _, sym := range symbols {
		fmt.Printf("  %-8s %14.6f  @ %12.4f  = %12.2f USD  (%5.1f%%)\n",
			sym, h[sym], quotes.PriceOf(sym), h[sym]*quotes.PriceOf(sym), allocations[sym]*100)
	}
	fmt.Println()

	fx := market.NewFX(marketClient, cfg.FX.Endpoints, cfg.FXRefreshInterval())
	if err := fx.Refresh(ctx, cfg.FX.Base, cfg.FX.Target); err != nil {
		log.Warn("fx refresh failed", "error", err)
	}
	fmt.Printf("Total: %s (%s)\n", currency.Format(total, currency.USD), currency.FormatUSD(total, cfg.FX.Target, fx))

	today, errToday := repo.TotalEarningsToday(ctx)
	week, errWeek := repo.EarningsLast7Days(ctx)
	if errToday == nil && errWeek == nil {
		fmt.Printf("Earnings: %.2f USDT today, %.2f USDT last 7 days\n", today, week)
	}

	if *dryRun {
		fmt.Println("Dry run - holdings not saved.")
	}

	if *notify {
		notifier := telegram.NewNotifier(cfg, log.Component("telegram"))
		var displayCurrency string
		if ok, err := store.GetSetting(ctx, storage.SettingDisplayCurrency, &displayCurrency); err != nil || !ok {
			displayCurrency = currency.Default
		}
		var change float64
		if last, err := store.LoadHistory(ctx, 1); err == nil && len(last) == 1 && last[0].Value > 0 {
			change = (total - last[0].Value) / last[0].Value
		}
		notifier.NotifyPortfolio(total, displayCurrency, fx, change)
	}
}
