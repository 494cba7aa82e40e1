package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/camuig/capital-tracker/internal/advisor"
	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/config"
	"github.com/camuig/capital-tracker/internal/holdings"
	"github.com/camuig/capital-tracker/internal/ledger"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/market"
	"github.com/camuig/capital-tracker/internal/pricing"
	"github.com/camuig/capital-tracker/internal/scheduler"
	"github.com/camuig/capital-tracker/internal/storage"
	"github.com/camuig/capital-tracker/internal/telegram"
	"github.com/camuig/capital-tracker/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Init logger
	log := logger.New(cfg.Logging.Level)
	log.Info("starting capital-tracker", "db", cfg.Storage.Path, "cache", cfg.Cache.Backend, "holdings_policy", cfg.Holdings.Policy)

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init database
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(store)

	// Price sources
	cache := newCache(ctx, cfg, log)
	marketClient := market.NewClient(cfg.PricingTimeout(), log.Component("market"))
	gecko := market.NewCoinGecko(marketClient, cfg.Pricing.BaseURL, cfg.Pricing.APIKey, cfg.Pricing.CoinIDs, cfg.Pricing.RequestsPerMinute)
	fx := market.NewFX(marketClient, cfg.FX.Endpoints, cfg.FXRefreshInterval())
	prices := pricing.NewClient(gecko, cache, cfg.PriceCacheTTL(), log.Component("pricing"))

	// Alerts
	classes := cfg.Classification()
	alertConfig := alerts.NewConfigStore(store)
	if err := alertConfig.Load(ctx); err != nil {
		log.Warn("stored alert config rejected, using defaults", "error", err)
	}
	engine := alerts.NewEngine(alertConfig, classes, alerts.Options{
		CoreSymbols: cfg.Alerts.CoreSymbols,
		DedupWindow: cfg.AlertDedupWindow(),
		Retention:   cfg.AlertRetention(),
	}, log.Component("alerts"))

	// Holdings
	hold := holdings.NewManager(repo, cfg.Holdings.Policy, log.Component("holdings"))
	if _, err := hold.Recompute(ctx); err != nil {
		log.Error("initial holdings recompute failed", "error", err)
	}

	// Notifications
	notifier := telegram.NewNotifier(cfg, log.Component("telegram"))
	var adv scheduler.Advisor
	if cfg.Advisor.Enabled {
		adv = advisor.New(cfg.Advisor.APIKey, cfg.Advisor.BaseURL, cfg.Advisor.Model, cfg.AdvisorTimeout(), log.Component("advisor"))
	}

	// Scheduler
	sched := scheduler.NewScheduler(prices, fx, hold, store, engine, notifier, adv, classes, scheduler.Options{
		Interval:     cfg.RefreshInterval(),
		FXInterval:   cfg.FXRefreshInterval(),
		FXBase:       cfg.FX.Base,
		FXTarget:     cfg.FX.Target,
		HistoryLimit: cfg.Refresh.HistoryLimit,
	}, log.Component("scheduler")).WithTaskReset(repo)

	if history, err := store.LoadHistory(ctx, cfg.Refresh.HistoryLimit); err != nil {
		log.Error("load portfolio history failed", "error", err)
	} else {
		sched.LoadHistory(history)
		log.Info("portfolio history loaded", "points", len(history))
	}

	// API
	ledgerSvc := ledger.NewService(repo, prices, hold, sched, cfg.Earnings.DailyTargetUSDT, log.Component("ledger"))
	webServer := web.NewServer(web.Deps{
		Portfolio: sched,
		Alerts:    engine,
		Holdings:  hold,
		Ledger:    ledgerSvc,
		Settings:  store,
		Prices:    prices,
		FX:        fx,
	}, cfg.Web.Port, log.Component("web"))

	// Start scheduler in goroutine
	go sched.Run(ctx)

	// Start web server in goroutine
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus("🟢 Capital tracker started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	// Graceful shutdown
	cancel() // stop scheduler

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	notifier.NotifyStatus("🛑 Capital tracker stopped")
	log.Info("capital-tracker stopped")
}

// newCache returns the Redis quote cache when configured and reachable, the
// in-process cache otherwise.
func newCache(ctx context.Context, cfg *config.Config, log *logger.Logger) pricing.Cache {
	if cfg.Cache.Backend != config.BackendRedis {
		return pricing.NewMemoryCache()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, falling back to memory cache", "addr", cfg.Cache.Redis.Addr, "error", err)
		_ = rdb.Close()
		return pricing.NewMemoryCache()
	}

	log.Info("redis quote cache enabled", "addr", cfg.Cache.Redis.Addr, "prefix", cfg.Cache.Redis.Prefix)
	return pricing.NewRedisCache(rdb, cfg.Cache.Redis.Prefix)
}
