package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.db")
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, _ := openTestStore(t)
	require.NoError(t, st.Init(context.Background()))
	return st
}

func TestOperationsBeforeInitFail(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	_, err := st.Add(ctx, &Earning{Date: "2024-01-01"})
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
	assert.True(t, errors.Is(err, ErrNotInitialized))

	_, err = GetAll[Earning](ctx, st)
	assert.True(t, apperrors.IsStorage(err))

	_, err = st.GetSetting(ctx, SettingHoldings, &map[string]float64{})
	assert.True(t, apperrors.IsStorage(err))
}

func TestInitIsIdempotent(t *testing.T) {
	st, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Init(ctx))

	var first schemaMeta
	require.NoError(t, st.db.Take(&first, 1).Error)
	assert.Equal(t, SchemaVersion, first.Version)

	_, err := st.Add(ctx, &Earning{Date: "2024-01-01", TokenName: "BTC"})
	require.NoError(t, err)

	require.NoError(t, st.Init(ctx))
	var second schemaMeta
	require.NoError(t, st.db.Take(&second, 1).Error)
	assert.True(t, first.MigratedAt.Equal(second.MigratedAt))

	// Reopening keeps the data and skips migration.
	require.NoError(t, st.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Init(ctx))

	all, err := GetAll[Earning](ctx, reopened)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "BTC", all[0].TokenName)
}

func TestCRUD(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Add(ctx, &Earning{Date: "2024-01-01", PlatformName: "Bybit", TokenName: "ETH", AmountToken: 0.5})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := Get[Earning](ctx, st, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bybit", got.PlatformName)
	assert.Equal(t, 0.5, got.AmountToken)

	got.Notes = "edited"
	require.NoError(t, st.Update(ctx, got))

	got, err = Get[Earning](ctx, st, id)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Notes)

	require.NoError(t, st.Delete(ctx, Earnings, id))
	got, err = Get[Earning](ctx, st, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := GetAll[Earning](ctx, st)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestAddWithCollidingIDFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Add(ctx, &Trade{ID: 5, Date: "2024-01-01"})
	require.NoError(t, err)

	_, err = st.Add(ctx, &Trade{ID: 5, Date: "2024-01-02"})
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
}

func TestUpdateMissingCollectionFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.db.Migrator().DropTable(string(Miners)))

	err := st.Update(ctx, &Miner{ID: 1, MinerName: "rig"})
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
}

func TestDecodeDropsNonKeyIDs(t *testing.T) {
	cases := map[string]ID{
		`{"id": 7}`:         7,
		`{"id": "12"}`:      12,
		`{"id": "abc"}`:     0,
		`{"id": {"x": 1}}`:  0,
		`{"id": [1]}`:       0,
		`{"id": true}`:      0,
		`{"id": 1.5}`:       0,
		`{"id": -3}`:        0,
		`{"id": null}`:      0,
		`{"tokenName":"X"}`: 0,
	}
	for input, want := range cases {
		var e Earning
		require.NoError(t, json.Unmarshal([]byte(input), &e), input)
		assert.Equal(t, want, e.ID, input)
	}
}

func TestDecodedRecordWithInvalidIDGetsAssignedOne(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var e Earning
	require.NoError(t, json.Unmarshal([]byte(`{"id": {"bad": true}, "date": "2024-02-01", "tokenName": "SOL"}`), &e))
	id, err := st.Add(ctx, &e)
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestGetByIndex(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, ex := range []string{"Bybit", "OKX", "Bybit"} {
		_, err := st.Add(ctx, &Trade{Date: "2024-01-01", Exchange: ex})
		require.NoError(t, err)
	}

	bybit, err := GetByIndex[Trade](ctx, st, "exchange", "Bybit")
	require.NoError(t, err)
	assert.Len(t, bybit, 2)

	none, err := GetByIndex[Trade](ctx, st, "exchange", "Kraken")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = GetByIndex[Trade](ctx, st, "pair", "BTC/USDT")
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
}

func TestGetByDateRangeIsInclusive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-01", "2024-01-05", "2024-01-10", "2024-01-11"} {
		_, err := st.Add(ctx, &Activity{Date: d})
		require.NoError(t, err)
	}

	got, err := GetByDateRange[Activity](ctx, st, "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-01", got[0].Date)
	assert.Equal(t, "2024-01-10", got[2].Date)

	empty, err := GetByDateRange[Activity](ctx, st, "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSettings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var missing map[string]float64
	found, err := st.GetSetting(ctx, SettingHoldings, &missing)
	require.NoError(t, err)
	assert.False(t, found)

	holdings := map[string]float64{"BTC": 0.25, "ETH": 3}
	require.NoError(t, st.SaveSetting(ctx, SettingHoldings, holdings))
	require.NoError(t, st.SaveSetting(ctx, SettingHoldings, map[string]float64{"BTC": 0.5}))

	var got map[string]float64
	found, err = st.GetSetting(ctx, SettingHoldings, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]float64{"BTC": 0.5}, got)

	require.NoError(t, st.SaveSetting(ctx, SettingDisplayCurrency, nil))
	var currency string
	found, err = st.GetSetting(ctx, SettingDisplayCurrency, &currency)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.DeleteSetting(ctx, SettingHoldings))
	found, err = st.GetSetting(ctx, SettingHoldings, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHistoryPersistenceIsPruned(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		p := portfolio.HistoryPoint{Date: base.Add(time.Duration(i) * time.Minute), Value: float64(100 + i)}
		require.NoError(t, st.AppendHistoryPoint(ctx, p, 3))
	}

	points, err := st.LoadHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []float64{102, 103, 104}, []float64{points[0].Value, points[1].Value, points[2].Value})

	last, err := st.LoadHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, 103.0, last[0].Value)
}
