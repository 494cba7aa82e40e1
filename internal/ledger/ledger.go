// Package ledger validates and records user-entered earnings, trades and
// activities, and keeps the derived holdings in step with them.
package ledger

import (
	"context"
	"math"
	"strings"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/portfolio"
	"github.com/camuig/capital-tracker/internal/storage"
)

// DefaultDailyTarget is the USDT amount an earning must reach to count as
// achieving the daily target.
const DefaultDailyTarget = 0.05

type Converter interface {
	ConvertToUSDT(ctx context.Context, symbol string, amount float64) float64
}

type HoldingsRecomputer interface {
	Recompute(ctx context.Context) (portfolio.Holdings, error)
}

type RefreshRequester interface {
	RequestRefresh()
}

type Service struct {
	repo        *storage.Repository
	prices      Converter
	holdings    HoldingsRecomputer
	refresher   RefreshRequester
	dailyTarget float64
	logger      *logger.Logger
}

func NewService(
	repo *storage.Repository,
	prices Converter,
	holdings HoldingsRecomputer,
	refresher RefreshRequester,
	dailyTarget float64,
	log *logger.Logger,
) *Service {
	if dailyTarget <= 0 {
		dailyTarget = DefaultDailyTarget
	}
	return &Service{
		repo:        repo,
		prices:      prices,
		holdings:    holdings,
		refresher:   refresher,
		dailyTarget: dailyTarget,
		logger:      log,
	}
}

func (s *Service) Repository() *storage.Repository {
	return s.repo
}

// Earnings

func (s *Service) prepareEarning(ctx context.Context, e *storage.Earning) error {
	e.TokenName = strings.ToUpper(strings.TrimSpace(e.TokenName))
	if e.TokenName == "" || !(e.AmountToken > 0) || math.IsInf(e.AmountToken, 0) {
		return apperrors.NewValidationError("amountToken", "Enter token and amount > 0")
	}
	e.PlatformName = strings.TrimSpace(e.PlatformName)
	e.AmountUSDT = s.prices.ConvertToUSDT(ctx, e.TokenName, e.AmountToken)
	if !finite(e.AmountUSDT) {
		return apperrors.NewValidationError("amountToken", "USDT value is out of range")
	}
	e.TargetAchieved = e.AmountUSDT >= s.dailyTarget
	return nil
}

// AddEarning validates e, values it in USDT, stores it, recomputes the
// holdings and asks for a price refresh, in that order.
func (s *Service) AddEarning(ctx context.Context, e storage.Earning) (storage.Earning, error) {
	if err := s.prepareEarning(ctx, &e); err != nil {
		return storage.Earning{}, err
	}
	if _, err := s.repo.AddEarning(ctx, &e); err != nil {
		return storage.Earning{}, err
	}

	s.logger.Info("earning recorded", "id", e.ID, "token", e.TokenName, "usdt", e.AmountUSDT, "target_achieved", e.TargetAchieved)
	s.afterEarningsChange(ctx)
	return e, nil
}

func (s *Service) UpdateEarning(ctx context.Context, id storage.ID, e storage.Earning) (storage.Earning, error) {
	existing, err := storage.Get[storage.Earning](ctx, s.repo.Store, id)
	if err != nil {
		return storage.Earning{}, err
	}
	if existing == nil {
		return storage.Earning{}, apperrors.NewNotFoundError("earning", id.String())
	}

	e.ID = id
	if err := s.prepareEarning(ctx, &e); err != nil {
		return storage.Earning{}, err
	}
	if err := s.repo.UpdateEarning(ctx, &e); err != nil {
		return storage.Earning{}, err
	}

	s.afterEarningsChange(ctx)
	return e, nil
}

func (s *Service) DeleteEarning(ctx context.Context, id storage.ID) error {
	existing, err := storage.Get[storage.Earning](ctx, s.repo.Store, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.NewNotFoundError("earning", id.String())
	}
	if err := s.repo.Delete(ctx, storage.Earnings, id); err != nil {
		return err
	}

	s.afterEarningsChange(ctx)
	return nil
}

func (s *Service) afterEarningsChange(ctx context.Context) {
	if _, err := s.holdings.Recompute(ctx); err != nil {
		s.logger.Error("recompute holdings", "error", err)
	}
	if s.refresher != nil {
		s.refresher.RequestRefresh()
	}
}

// Trades

func (s *Service) AddTrade(ctx context.Context, t storage.Trade) (storage.Trade, error) {
	t.Pair = strings.ToUpper(strings.TrimSpace(t.Pair))
	if t.Pair == "" || !(t.Size > 0) {
		return storage.Trade{}, apperrors.NewValidationError("size", "Enter pair and size > 0")
	}
	if t.EntryPrice < 0 || t.ExitPrice < 0 {
		return storage.Trade{}, apperrors.NewValidationError("price", "Prices must not be negative")
	}
	if !finite(t.EntryPrice) || !finite(t.ExitPrice) || !finite(t.Size) ||
		!finite(storage.TradePNL(t.EntryPrice, t.ExitPrice, t.Size)) {
		return storage.Trade{}, apperrors.NewValidationError("size", "PNL is out of range")
	}
	if _, err := s.repo.AddTrade(ctx, &t); err != nil {
		return storage.Trade{}, err
	}

	s.logger.Info("trade recorded", "id", t.ID, "pair", t.Pair, "pnl", t.PNLUSDT)
	return t, nil
}

func (s *Service) DeleteTrade(ctx context.Context, id storage.ID) error {
	existing, err := storage.Get[storage.Trade](ctx, s.repo.Store, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.NewNotFoundError("trade", id.String())
	}
	return s.repo.Delete(ctx, storage.Trades, id)
}

// Activities

func (s *Service) AddActivity(ctx context.Context, a storage.Activity) (storage.Activity, error) {
	a.PlatformName = strings.TrimSpace(a.PlatformName)
	if a.PlatformName == "" || !(a.AmountUSDT > 0) || math.IsInf(a.AmountUSDT, 0) {
		return storage.Activity{}, apperrors.NewValidationError("amountUSDT", "Enter platform and amount > 0")
	}
	if _, err := s.repo.AddActivity(ctx, &a); err != nil {
		return storage.Activity{}, err
	}
	return a, nil
}

// Miners

func (s *Service) AddMiner(ctx context.Context, m storage.Miner) (storage.Miner, error) {
	m.MinerName = strings.TrimSpace(m.MinerName)
	if m.MinerName == "" {
		return storage.Miner{}, apperrors.NewValidationError("minerName", "Enter miner name")
	}
	if m.DailyMiningUSDT < 0 || !finite(m.DailyMiningUSDT) {
		return storage.Miner{}, apperrors.NewValidationError("dailyMiningUSDT", "Daily mining must be a number >= 0")
	}
	m.Status = strings.ToLower(strings.TrimSpace(m.Status))
	if m.Status != "" && m.Status != storage.MinerActive && m.Status != storage.MinerInactive {
		return storage.Miner{}, apperrors.NewValidationError("status", "Status must be active or inactive")
	}
	if _, err := s.repo.AddMiner(ctx, &m); err != nil {
		return storage.Miner{}, err
	}

	s.logger.Info("miner recorded", "id", m.ID, "miner", m.MinerName, "daily_usdt", m.DailyMiningUSDT)
	return m, nil
}

// Tasks

var taskFrequencies = map[string]string{
	"daily":  storage.FrequencyDaily,
	"weekly": storage.FrequencyWeekly,
	"once":   storage.FrequencyOnce,
}

// AddTask records a platform task. The frequency defaults to Daily.
func (s *Service) AddTask(ctx context.Context, t storage.Task) (storage.Task, error) {
	t.PlatformName = strings.TrimSpace(t.PlatformName)
	t.Title = strings.TrimSpace(t.Title)
	if t.PlatformName == "" || t.Title == "" {
		return storage.Task{}, apperrors.NewValidationError("title", "Enter platform and title")
	}

	freq := strings.ToLower(strings.TrimSpace(t.Frequency))
	if freq == "" {
		freq = "daily"
	}
	canonical, ok := taskFrequencies[freq]
	if !ok {
		return storage.Task{}, apperrors.NewValidationError("frequency", "Frequency must be Daily, Weekly or Once")
	}
	t.Frequency = canonical
	t.Status = ""

	if _, err := s.repo.AddTask(ctx, &t); err != nil {
		return storage.Task{}, err
	}
	return t, nil
}

// SetTaskStatus marks a task Done or Not Done.
func (s *Service) SetTaskStatus(ctx context.Context, id storage.ID, status string) (storage.Task, error) {
	status = strings.TrimSpace(status)
	if status != storage.TaskDone && status != storage.TaskNotDone {
		return storage.Task{}, apperrors.NewValidationError("status", "Status must be Done or Not Done")
	}
	if err := s.repo.UpdateTaskStatus(ctx, id, status); err != nil {
		return storage.Task{}, err
	}
	task, err := storage.Get[storage.Task](ctx, s.repo.Store, id)
	if err != nil {
		return storage.Task{}, err
	}
	if task == nil {
		return storage.Task{}, apperrors.NewNotFoundError("task", id.String())
	}
	return *task, nil
}

// Projections

// StoreProjection calculates the current projection and saves it.
func (s *Service) StoreProjection(ctx context.Context) (storage.Projection, error) {
	p, err := s.repo.CalculateProjections(ctx)
	if err != nil {
		return storage.Projection{}, err
	}
	if _, err := s.repo.AddProjection(ctx, &p); err != nil {
		return storage.Projection{}, err
	}
	return p, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
