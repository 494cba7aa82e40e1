package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/logger"
)

func TestFXFallsBackThroughEndpoints(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	var gotPath string
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"rates": {"BWP": 13.6, "EUR": 0.9}}`))
	}))
	defer up.Close()

	fx := NewFX(NewClient(time.Second, logger.Discard()), []string{
		down.URL + "/latest?base={base}",
		up.URL + "/latest/{base}",
	}, time.Minute)

	assert.Equal(t, 1.0, fx.Rate("USD", "BWP"))

	rate, err := fx.FetchRate(context.Background(), "usd", "bwp")
	require.NoError(t, err)
	assert.Equal(t, 13.6, rate)
	assert.Equal(t, "/latest/USD", gotPath)
	assert.Equal(t, 13.6, fx.Rate("USD", "BWP"))
	assert.Equal(t, 136.0, fx.Convert(10, "USD", "BWP"))
	assert.Equal(t, 5.0, fx.Convert(5, "USD", "usd"))
}

func TestFXKeepsPreviousRateOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"rates": {"BWP": 13.5}}`))
	}))
	defer srv.Close()

	fx := NewFX(NewClient(time.Second, logger.Discard()), []string{srv.URL}, time.Minute)
	_, err := fx.FetchRate(context.Background(), "USD", "BWP")
	require.NoError(t, err)

	fail.Store(true)
	_, err = fx.FetchRate(context.Background(), "USD", "BWP")
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, 13.5, fx.Rate("USD", "BWP"))
}

func TestFXMissingTargetIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates": {"EUR": 0.9}}`))
	}))
	defer srv.Close()

	fx := NewFX(NewClient(time.Second, logger.Discard()), []string{srv.URL}, time.Minute)
	_, err := fx.FetchRate(context.Background(), "USD", "BWP")
	require.Error(t, err)
	assert.Equal(t, 1.0, fx.Rate("USD", "BWP"))
}

func TestFXRefreshHonoursTTL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"rates": {"BWP": 13.5}}`))
	}))
	defer srv.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fx := NewFX(NewClient(time.Second, logger.Discard()), []string{srv.URL}, 10*time.Minute)
	fx.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, fx.Refresh(ctx, "USD", "BWP"))
	require.NoError(t, fx.Refresh(ctx, "USD", "BWP"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, now, fx.LastUpdated("USD", "BWP"))

	now = now.Add(11 * time.Minute)
	require.NoError(t, fx.Refresh(ctx, "USD", "BWP"))
	assert.Equal(t, int32(2), calls.Load())
}
