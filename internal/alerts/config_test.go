package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

type memSettings struct {
	mu      sync.Mutex
	values  map[string][]byte
	saveErr error
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string][]byte)}
}

func (m *memSettings) SaveSetting(_ context.Context, key string, value interface{}) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	return nil
}

func (m *memSettings) GetSetting(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	if !ok || string(data) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func TestConfigStoreDefaults(t *testing.T) {
	s := NewConfigStore(newMemSettings())
	require.NoError(t, s.Load(context.Background()))

	cfg := s.Get()
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 0.10, cfg.PriceMovement.Threshold10)
	assert.Equal(t, -0.10, cfg.PortfolioValue.ThresholdDown)
	assert.Equal(t, 0.10, cfg.AllocationDeviation.HighThreshold)
	assert.Equal(t, 50.0, cfg.Volatility.Threshold)
}

func TestConfigStoreOverlaysPersistedValues(t *testing.T) {
	settings := newMemSettings()
	ctx := context.Background()
	require.NoError(t, settings.SaveSetting(ctx, SettingKey, json.RawMessage(`{"volatility":{"threshold":70}}`)))

	s := NewConfigStore(settings)
	require.NoError(t, s.Load(ctx))

	cfg := s.Get()
	assert.Equal(t, 70.0, cfg.Volatility.Threshold)
	assert.Equal(t, 0.30, cfg.PriceMovement.Threshold30)
}

func TestConfigStorePersistsSeveritiesAndCoreSymbols(t *testing.T) {
	settings := newMemSettings()
	ctx := context.Background()
	require.NoError(t, settings.SaveSetting(ctx, SettingKey, json.RawMessage(
		`{"coreSymbols":["btc","sol"],"severities":{"volatility":"critical"}}`)))

	s := NewConfigStore(settings)
	require.NoError(t, s.Load(ctx))

	cfg := s.Get()
	assert.Equal(t, []string{"btc", "sol"}, cfg.CoreSymbols)
	assert.Equal(t, SeverityCritical, cfg.Severities.Volatility)
	assert.Equal(t, SeverityHigh, cfg.Severities.PriceDown)
	assert.Equal(t, map[string]bool{"BTC": true, "SOL": true}, cfg.coreSet())
}

func TestConfigStoreIgnoresInvalidPersistedConfig(t *testing.T) {
	settings := newMemSettings()
	ctx := context.Background()
	require.NoError(t, settings.SaveSetting(ctx, SettingKey, json.RawMessage(`{"portfolioValue":{"thresholdDown":0.5}}`)))

	s := NewConfigStore(settings)
	require.Error(t, s.Load(ctx))
	assert.Equal(t, DefaultConfig(), s.Get())
}

func TestConfigStoreUpdate(t *testing.T) {
	settings := newMemSettings()
	ctx := context.Background()
	s := NewConfigStore(settings)

	cfg := DefaultConfig()
	cfg.SharpeRatio.Threshold = 0.5
	require.NoError(t, s.Update(ctx, cfg))
	assert.Equal(t, 0.5, s.Get().SharpeRatio.Threshold)

	reloaded := NewConfigStore(settings)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, cfg, reloaded.Get())
}

func TestConfigStoreUpdateRejectsInvalid(t *testing.T) {
	s := NewConfigStore(newMemSettings())
	ctx := context.Background()

	bad := DefaultConfig()
	bad.AllocationDeviation.HighThreshold = 0.01
	err := s.Update(ctx, bad)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, DefaultConfig(), s.Get())
}

func TestConfigStoreUpdateKeepsSnapshotWhenSaveFails(t *testing.T) {
	settings := newMemSettings()
	settings.saveErr = errors.New("disk full")
	s := NewConfigStore(settings)

	cfg := DefaultConfig()
	cfg.Volatility.Threshold = 99
	require.Error(t, s.Update(context.Background(), cfg))
	assert.Equal(t, 50.0, s.Get().Volatility.Threshold)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero threshold10", func(c *Config) { c.PriceMovement.Threshold10 = 0 }, "priceMovement.threshold10"},
		{"positive thresholdDown", func(c *Config) { c.PortfolioValue.ThresholdDown = 0.1 }, "portfolioValue.thresholdDown"},
		{"negative volatility", func(c *Config) { c.Volatility.Threshold = -1 }, "volatility.threshold"},
		{"high below threshold", func(c *Config) { c.AllocationDeviation.HighThreshold = 0.01 }, "allocationDeviation.highThreshold"},
		{"unknown severity", func(c *Config) { c.Severities.PriceDown = "urgent" }, "severities.priceDown"},
		{"missing severity", func(c *Config) { c.Severities.Volatility = "" }, "severities.volatility"},
		{"blank core symbol", func(c *Config) { c.CoreSymbols = []string{"BTC", " "} }, "coreSymbols"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			ce := apperrors.Categorize(err)
			require.NotNil(t, ce)
			assert.Equal(t, tt.field, ce.Details["field"])
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}
