package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 60*time.Second, cfg.PriceCacheTTL())
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 10*time.Minute, cfg.FXRefreshInterval())
	assert.Equal(t, time.Hour, cfg.AlertDedupWindow())
	assert.Equal(t, 24*time.Hour, cfg.AlertRetention())
	assert.Equal(t, 365, cfg.Refresh.HistoryLimit)
	assert.Equal(t, PolicyEarnings, cfg.Holdings.Policy)
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Alerts.CoreSymbols)
	assert.Equal(t, "bitcoin", cfg.Pricing.CoinIDs["BTC"])
	assert.Len(t, cfg.FX.Endpoints, 3)
	assert.InDelta(t, 0.05, cfg.Earnings.DailyTargetUSDT, 1e-12)

	assets := cfg.Classification()
	require.Contains(t, assets, "BTC")
	assert.Equal(t, "Bitcoin", assets["BTC"].Name)
	assert.Equal(t, "BTC", assets["BTC"].Symbol)
}

func TestLoadKeepsConfiguredAssets(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
assets:
  KAS:
    name: Kaspa
    category: mid_low_cap
    type: layer1
    target_allocation: 0.1
    risk: moderate
pricing:
  coin_ids:
    KAS: kaspa
`))
	require.NoError(t, err)

	assert.Len(t, cfg.Assets, 1)
	assert.Equal(t, "Kaspa", cfg.Classification()["KAS"].Name)
	assert.Equal(t, "kaspa", cfg.Pricing.CoinIDs["KAS"])
	assert.Equal(t, "bitcoin", cfg.Pricing.CoinIDs["BTC"])
}

func TestLoadOverlaysSecretsFromEnv(t *testing.T) {
	t.Setenv("TRACKER_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TRACKER_COINGECKO_API_KEY", "cg-key")

	cfg, err := Load(writeConfig(t, "telegram:\n  enabled: true\n  chat_id: 42\n"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "cg-key", cfg.Pricing.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad interval", "refresh:\n  interval: soon\n"},
		{"bad policy", "holdings:\n  policy: average\n"},
		{"redis without addr", "cache:\n  backend: redis\n"},
		{"telegram without token", "telegram:\n  enabled: true\n  chat_id: 1\n"},
		{"advisor without key", "advisor:\n  enabled: true\n"},
		{"lower case symbol", "assets:\n  btc:\n    target_allocation: 0.1\n"},
		{"allocation above one", "assets:\n  BTC:\n    target_allocation: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
