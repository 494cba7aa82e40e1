package ledger

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/holdings"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/portfolio"
	"github.com/camuig/capital-tracker/internal/pricing"
	"github.com/camuig/capital-tracker/internal/storage"
)

type recorder struct {
	events []string
}

type fakeConverter struct {
	rec    *recorder
	prices map[string]float64
}

func (f *fakeConverter) ConvertToUSDT(_ context.Context, symbol string, amount float64) float64 {
	f.rec.events = append(f.rec.events, "convert:"+symbol)
	return amount * f.prices[symbol]
}

type fakeRecomputer struct {
	rec  *recorder
	repo *storage.Repository
	seen []int
}

func (f *fakeRecomputer) Recompute(ctx context.Context) (portfolio.Holdings, error) {
	f.rec.events = append(f.rec.events, "recompute")
	all, err := f.repo.AllEarnings(ctx)
	if err != nil {
		return nil, err
	}
	f.seen = append(f.seen, len(all))
	return portfolio.Holdings{}, nil
}

type fakeRefresher struct{ rec *recorder }

func (f *fakeRefresher) RequestRefresh() { f.rec.events = append(f.rec.events, "refresh") }

type fixture struct {
	svc  *Service
	repo *storage.Repository
	rec  *recorder
	hold *fakeRecomputer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Init(context.Background()))

	repo := storage.NewRepository(st)
	rec := &recorder{}
	hold := &fakeRecomputer{rec: rec, repo: repo}
	conv := &fakeConverter{rec: rec, prices: map[string]float64{"SOL": 150, "USDT": 1, "XYZ": 0.001}}
	svc := NewService(repo, conv, hold, &fakeRefresher{rec: rec}, 0, logger.Discard())
	return &fixture{svc: svc, repo: repo, rec: rec, hold: hold}
}

func TestAddEarningOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.AddEarning(ctx, storage.Earning{TokenName: " sol ", AmountToken: 2, PlatformName: "Jupiter"})
	require.NoError(t, err)

	assert.NotZero(t, e.ID)
	assert.Equal(t, "SOL", e.TokenName)
	assert.Equal(t, 300.0, e.AmountUSDT)
	assert.True(t, e.TargetAchieved)
	assert.Equal(t, []string{"convert:SOL", "recompute", "refresh"}, f.rec.events)
	assert.Equal(t, []int{1}, f.hold.seen)
}

func TestAddEarningBelowTarget(t *testing.T) {
	f := newFixture(t)

	e, err := f.svc.AddEarning(context.Background(), storage.Earning{TokenName: "XYZ", AmountToken: 10})
	require.NoError(t, err)
	assert.InDelta(t, 0.01, e.AmountUSDT, 1e-12)
	assert.False(t, e.TargetAchieved)
}

func TestAddEarningValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []storage.Earning{
		{TokenName: "", AmountToken: 1},
		{TokenName: "SOL", AmountToken: 0},
		{TokenName: "SOL", AmountToken: -1},
	} {
		_, err := f.svc.AddEarning(ctx, in)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "Enter token and amount > 0", apperrors.Categorize(err).Message)
	}

	assert.Empty(t, f.rec.events)
	all, err := f.repo.AllEarnings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAddEarningRejectsOverflowingValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddEarning(ctx, storage.Earning{TokenName: "SOL", AmountToken: math.MaxFloat64})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "amountToken", apperrors.Categorize(err).Details["field"])

	_, err = f.svc.AddEarning(ctx, storage.Earning{TokenName: "SOL", AmountToken: math.Inf(1)})
	assert.True(t, apperrors.IsValidation(err))

	all, err := f.repo.AllEarnings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

type unreachableSource struct{ calls int }

func (u *unreachableSource) FetchQuotes(context.Context, []string) (map[string]portfolio.Quote, error) {
	u.calls++
	return nil, apperrors.NewNetworkError("coingecko", context.DeadlineExceeded)
}

func TestStablecoinEarningsAccumulateIntoHoldings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := &unreachableSource{}
	prices := pricing.NewClient(src, pricing.NewMemoryCache(), 0, logger.Discard())
	manager := holdings.NewManager(f.repo, holdings.PolicyEarnings, logger.Discard())
	svc := NewService(f.repo, prices, manager, nil, 0, logger.Discard())

	e, err := svc.AddEarning(ctx, storage.Earning{TokenName: "USDT", AmountToken: 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, e.AmountUSDT)

	current, err := manager.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, portfolio.Holdings{"USDT": 5}, current)

	_, err = svc.AddEarning(ctx, storage.Earning{TokenName: "usdt", AmountToken: 3})
	require.NoError(t, err)

	current, err = manager.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, portfolio.Holdings{"USDT": 8}, current)
	assert.Zero(t, src.calls)
}

func TestUpdateAndDeleteEarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.AddEarning(ctx, storage.Earning{TokenName: "SOL", AmountToken: 1})
	require.NoError(t, err)

	updated, err := f.svc.UpdateEarning(ctx, e.ID, storage.Earning{TokenName: "USDT", AmountToken: 4, Date: "2024-01-02"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.AmountUSDT)

	got, err := storage.Get[storage.Earning](ctx, f.repo.Store, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "USDT", got.TokenName)
	assert.Equal(t, "2024-01-02", got.Date)

	_, err = f.svc.UpdateEarning(ctx, 999, storage.Earning{TokenName: "SOL", AmountToken: 1})
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, f.svc.DeleteEarning(ctx, e.ID))
	assert.True(t, apperrors.IsNotFound(f.svc.DeleteEarning(ctx, e.ID)))
	assert.Equal(t, []int{1, 1, 0}, f.hold.seen)
	assert.Equal(t, 3, strings.Count(strings.Join(f.rec.events, ","), "refresh"))
}

func TestAddTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.svc.AddTrade(ctx, storage.Trade{Pair: "btc/usdt", EntryPrice: 100, ExitPrice: 120, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 40.0, tr.PNLUSDT)
	assert.Equal(t, "BTC/USDT", tr.Pair)

	_, err = f.svc.AddTrade(ctx, storage.Trade{Pair: "", Size: 1})
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.AddTrade(ctx, storage.Trade{Pair: "ETH/USDT", Size: 0})
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.AddTrade(ctx, storage.Trade{Pair: "ETH/USDT", Size: 1, EntryPrice: -1})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.AddTrade(ctx, storage.Trade{Pair: "ETH/USDT", EntryPrice: 0, ExitPrice: 1e308, Size: 10})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "PNL is out of range", apperrors.Categorize(err).Message)
	_, err = f.svc.AddTrade(ctx, storage.Trade{Pair: "ETH/USDT", ExitPrice: math.NaN(), Size: 1})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.DeleteTrade(ctx, tr.ID))
	assert.True(t, apperrors.IsNotFound(f.svc.DeleteTrade(ctx, tr.ID)))
}

func TestAddActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.AddActivity(ctx, storage.Activity{PlatformName: "Layer3", AmountUSDT: 1.25, ActivityType: "quest"})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.NotEmpty(t, a.Date)

	_, err = f.svc.AddActivity(ctx, storage.Activity{PlatformName: " ", AmountUSDT: 1})
	require.Error(t, err)
	assert.Equal(t, "Enter platform and amount > 0", apperrors.Categorize(err).Message)
}

func TestAddMiner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.AddMiner(ctx, storage.Miner{MinerName: " rig-1 ", DailyMiningUSDT: 0.8})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "rig-1", m.MinerName)
	assert.Equal(t, storage.MinerActive, m.Status)

	_, err = f.svc.AddMiner(ctx, storage.Miner{MinerName: "rig-2", DailyMiningUSDT: 5, Status: "Inactive"})
	require.NoError(t, err)

	for _, bad := range []storage.Miner{
		{MinerName: " "},
		{MinerName: "x", DailyMiningUSDT: -1},
		{MinerName: "x", DailyMiningUSDT: math.Inf(1)},
		{MinerName: "x", Status: "broken"},
	} {
		_, err := f.svc.AddMiner(ctx, bad)
		assert.True(t, apperrors.IsValidation(err), "%+v", bad)
	}

	stats, err := f.repo.MiningStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveMiners)
	assert.InDelta(t, 0.8, stats.TotalDaily, 1e-12)
}

func TestTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.AddTask(ctx, storage.Task{PlatformName: "Layer3", Title: "daily quest", Status: storage.TaskDone})
	require.NoError(t, err)
	assert.Equal(t, storage.FrequencyDaily, task.Frequency)
	assert.Equal(t, storage.TaskNotDone, task.Status)

	weekly, err := f.svc.AddTask(ctx, storage.Task{PlatformName: "Galxe", Title: "raffle", Frequency: "weekly"})
	require.NoError(t, err)
	assert.Equal(t, storage.FrequencyWeekly, weekly.Frequency)

	_, err = f.svc.AddTask(ctx, storage.Task{PlatformName: "Galxe", Title: "x", Frequency: "hourly"})
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.AddTask(ctx, storage.Task{PlatformName: "Galxe"})
	assert.True(t, apperrors.IsValidation(err))

	done, err := f.svc.SetTaskStatus(ctx, task.ID, storage.TaskDone)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskDone, done.Status)
	require.NotNil(t, done.LastUpdated)

	_, err = f.svc.SetTaskStatus(ctx, task.ID, "Maybe")
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.SetTaskStatus(ctx, 999, storage.TaskDone)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStoreProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.StoreProjection(ctx)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	latest, err := f.repo.LatestProjection(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, p.ID, latest.ID)
}
