package alerts

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

// SettingKey is the settings key the alert thresholds are persisted under.
const SettingKey = "alertConfig"

type PriceMovementConfig struct {
	Threshold5  float64 `json:"threshold5"`
	Threshold10 float64 `json:"threshold10"`
	Threshold30 float64 `json:"threshold30"`
}

type PortfolioValueConfig struct {
	ThresholdUp   float64 `json:"thresholdUp"`
	ThresholdDown float64 `json:"thresholdDown"`
}

type AllocationDeviationConfig struct {
	Threshold     float64 `json:"threshold"`
	HighThreshold float64 `json:"highThreshold"`
}

type SharpeRatioConfig struct {
	Threshold float64 `json:"threshold"`
}

type VolatilityConfig struct {
	Threshold float64 `json:"threshold"`
}

// SeverityConfig sets the severity each rule raises its alerts with.
type SeverityConfig struct {
	CoreMove                Severity `json:"coreMove"`
	MidCapGain              Severity `json:"midCapGain"`
	PriceUp                 Severity `json:"priceUp"`
	PriceDown               Severity `json:"priceDown"`
	AllocationDeviation     Severity `json:"allocationDeviation"`
	AllocationDeviationHigh Severity `json:"allocationDeviationHigh"`
	PortfolioUp             Severity `json:"portfolioUp"`
	PortfolioDown           Severity `json:"portfolioDown"`
	SharpeRatio             Severity `json:"sharpeRatio"`
	Volatility              Severity `json:"volatility"`
}

func (s Severity) valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Config holds the alert thresholds. Price and portfolio thresholds are
// fractions (0.10 = 10%); the volatility threshold is in percent.
// An empty CoreSymbols leaves the engine's own core set in effect.
type Config struct {
	PriceMovement       PriceMovementConfig       `json:"priceMovement"`
	PortfolioValue      PortfolioValueConfig      `json:"portfolioValue"`
	AllocationDeviation AllocationDeviationConfig `json:"allocationDeviation"`
	SharpeRatio         SharpeRatioConfig         `json:"sharpeRatio"`
	Volatility          VolatilityConfig          `json:"volatility"`
	CoreSymbols         []string                  `json:"coreSymbols"`
	Severities          SeverityConfig            `json:"severities"`
}

func DefaultSeverities() SeverityConfig {
	return SeverityConfig{
		CoreMove:                SeverityHigh,
		MidCapGain:              SeverityCritical,
		PriceUp:                 SeverityMedium,
		PriceDown:               SeverityHigh,
		AllocationDeviation:     SeverityMedium,
		AllocationDeviationHigh: SeverityHigh,
		PortfolioUp:             SeverityMedium,
		PortfolioDown:           SeverityCritical,
		SharpeRatio:             SeverityHigh,
		Volatility:              SeverityHigh,
	}
}

func DefaultConfig() Config {
	return Config{
		PriceMovement:       PriceMovementConfig{Threshold5: 0.05, Threshold10: 0.10, Threshold30: 0.30},
		PortfolioValue:      PortfolioValueConfig{ThresholdUp: 0.20, ThresholdDown: -0.10},
		AllocationDeviation: AllocationDeviationConfig{Threshold: 0.05, HighThreshold: 0.10},
		SharpeRatio:         SharpeRatioConfig{Threshold: 1.0},
		Volatility:          VolatilityConfig{Threshold: 50},
		Severities:          DefaultSeverities(),
	}
}

func (c Config) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"priceMovement.threshold5", c.PriceMovement.Threshold5},
		{"priceMovement.threshold10", c.PriceMovement.Threshold10},
		{"priceMovement.threshold30", c.PriceMovement.Threshold30},
		{"portfolioValue.thresholdUp", c.PortfolioValue.ThresholdUp},
		{"allocationDeviation.threshold", c.AllocationDeviation.Threshold},
		{"allocationDeviation.highThreshold", c.AllocationDeviation.HighThreshold},
		{"volatility.threshold", c.Volatility.Threshold},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return apperrors.NewValidationError(p.field, p.field+" must be a positive number")
		}
	}
	if d := c.PortfolioValue.ThresholdDown; math.IsNaN(d) || d >= 0 || d <= -1 {
		return apperrors.NewValidationError("portfolioValue.thresholdDown", "portfolioValue.thresholdDown must be between -1 and 0")
	}
	if c.AllocationDeviation.HighThreshold < c.AllocationDeviation.Threshold {
		return apperrors.NewValidationError("allocationDeviation.highThreshold", "allocationDeviation.highThreshold must not be below threshold")
	}
	if s := c.SharpeRatio.Threshold; math.IsNaN(s) || math.IsInf(s, 0) {
		return apperrors.NewValidationError("sharpeRatio.threshold", "sharpeRatio.threshold must be a finite number")
	}
	for _, sym := range c.CoreSymbols {
		if strings.TrimSpace(sym) == "" {
			return apperrors.NewValidationError("coreSymbols", "coreSymbols must not contain empty symbols")
		}
	}

	sev := c.Severities
	for _, r := range []struct {
		field string
		value Severity
	}{
		{"coreMove", sev.CoreMove},
		{"midCapGain", sev.MidCapGain},
		{"priceUp", sev.PriceUp},
		{"priceDown", sev.PriceDown},
		{"allocationDeviation", sev.AllocationDeviation},
		{"allocationDeviationHigh", sev.AllocationDeviationHigh},
		{"portfolioUp", sev.PortfolioUp},
		{"portfolioDown", sev.PortfolioDown},
		{"sharpeRatio", sev.SharpeRatio},
		{"volatility", sev.Volatility},
	} {
		if !r.value.valid() {
			return apperrors.NewValidationError("severities."+r.field,
				fmt.Sprintf("severities.%s must be one of low, medium, high, critical", r.field))
		}
	}
	return nil
}

// coreSet returns the upper-cased CoreSymbols, or nil when none are set.
func (c Config) coreSet() map[string]bool {
	if len(c.CoreSymbols) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.CoreSymbols))
	for _, sym := range c.CoreSymbols {
		set[strings.ToUpper(strings.TrimSpace(sym))] = true
	}
	return set
}

// SettingsStore persists JSON settings by key.
type SettingsStore interface {
	SaveSetting(ctx context.Context, key string, value interface{}) error
	GetSetting(ctx context.Context, key string, dst interface{}) (bool, error)
}

// ConfigStore hands out immutable Config snapshots. Updates replace the
// snapshot; nothing mutates one in place.
type ConfigStore struct {
	settings SettingsStore
	current  atomic.Pointer[Config]
}

func NewConfigStore(settings SettingsStore) *ConfigStore {
	s := &ConfigStore{settings: settings}
	cfg := DefaultConfig()
	s.current.Store(&cfg)
	return s
}

// Get returns the current snapshot.
func (s *ConfigStore) Get() Config {
	return *s.current.Load()
}

// Load overlays the persisted config on the defaults. An invalid persisted
// config is ignored and the defaults stay in effect.
func (s *ConfigStore) Load(ctx context.Context) error {
	cfg := DefaultConfig()
	found, err := s.settings.GetSetting(ctx, SettingKey, &cfg)
	if err != nil {
		return fmt.Errorf("load alert config: %w", err)
	}
	if !found {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("persisted alert config: %w", err)
	}
	s.current.Store(&cfg)
	return nil
}

// Update validates cfg, persists it and then makes it current.
func (s *ConfigStore) Update(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.settings.SaveSetting(ctx, SettingKey, cfg); err != nil {
		return fmt.Errorf("save alert config: %w", err)
	}
	s.current.Store(&cfg)
	return nil
}
