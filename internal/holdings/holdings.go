// Package holdings derives the token holdings snapshot from the earnings
// ledger and keeps it in the settings table.
package holdings

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/portfolio"
	"github.com/camuig/capital-tracker/internal/storage"
)

// Reconciliation policies.
const (
	// PolicyEarnings makes holdings equal to the earnings totals.
	PolicyEarnings = "earnings"
	// PolicyMerged adds the earnings totals on top of the base holdings.
	PolicyMerged = "merged"
)

type Store interface {
	AllEarnings(ctx context.Context) ([]storage.Earning, error)
	SaveSetting(ctx context.Context, key string, value interface{}) error
	GetSetting(ctx context.Context, key string, dst interface{}) (bool, error)
}

// FromEarnings sums amountToken per upper-cased token. Non-positive amounts
// are ignored, as is any row that would push a sum out of float range.
func FromEarnings(earnings []storage.Earning) portfolio.Holdings {
	out := make(portfolio.Holdings)
	for _, e := range earnings {
		sym := strings.ToUpper(strings.TrimSpace(e.TokenName))
		if sym == "" || !(e.AmountToken > 0) || math.IsInf(e.AmountToken, 0) {
			continue
		}
		if next := out[sym] + e.AmountToken; !math.IsInf(next, 0) {
			out[sym] = next
		}
	}
	return out
}

type Manager struct {
	store  Store
	policy string
	logger *logger.Logger
	now    func() time.Time
}

func NewManager(store Store, policy string, log *logger.Logger) *Manager {
	if policy == "" {
		policy = PolicyEarnings
	}
	return &Manager{store: store, policy: policy, logger: log, now: time.Now}
}

func (m *Manager) Policy() string {
	return m.policy
}

// Recompute rebuilds the holdings snapshot from all earnings and persists it
// together with its update time. Running it twice yields the same snapshot.
func (m *Manager) Recompute(ctx context.Context) (portfolio.Holdings, error) {
	h, err := m.Compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.store.SaveSetting(ctx, storage.SettingHoldings, h); err != nil {
		return nil, fmt.Errorf("save holdings: %w", err)
	}
	if err := m.store.SaveSetting(ctx, storage.SettingHoldingsLastUpdated, m.now().UTC()); err != nil {
		return nil, fmt.Errorf("save holdings timestamp: %w", err)
	}

	m.logger.Info("holdings recomputed", "symbols", len(h), "policy", m.policy)
	return h, nil
}

// Compute derives the holdings without persisting them.
func (m *Manager) Compute(ctx context.Context) (portfolio.Holdings, error) {
	earnings, err := m.store.AllEarnings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load earnings: %w", err)
	}
	h := FromEarnings(earnings)

	if m.policy == PolicyMerged {
		base, err := m.Base(ctx)
		if err != nil {
			return nil, err
		}
		for sym, amount := range base {
			h[sym] += amount
		}
	}
	return h, nil
}

// Current returns the persisted snapshot, empty when none was saved.
func (m *Manager) Current(ctx context.Context) (portfolio.Holdings, error) {
	return m.load(ctx, storage.SettingHoldings)
}

// Base returns the manually set base holdings.
func (m *Manager) Base(ctx context.Context) (portfolio.Holdings, error) {
	return m.load(ctx, storage.SettingBaseHoldings)
}

func (m *Manager) load(ctx context.Context, key string) (portfolio.Holdings, error) {
	h := make(portfolio.Holdings)
	if _, err := m.store.GetSetting(ctx, key, &h); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if h == nil {
		h = make(portfolio.Holdings)
	}
	return h, nil
}

// LastUpdated returns when the snapshot was last recomputed.
func (m *Manager) LastUpdated(ctx context.Context) (time.Time, bool, error) {
	var t time.Time
	found, err := m.store.GetSetting(ctx, storage.SettingHoldingsLastUpdated, &t)
	return t, found, err
}

// SetBaseHoldings validates and stores the base holdings, recomputing the
// snapshot under the merged policy. Recompute never writes this key.
func (m *Manager) SetBaseHoldings(ctx context.Context, h portfolio.Holdings) error {
	for sym, amount := range h {
		if strings.TrimSpace(sym) == "" {
			return apperrors.NewValidationError("symbol", "symbol must not be empty")
		}
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			return apperrors.NewValidationError("amount", fmt.Sprintf("amount for %s must be a non-negative number", sym))
		}
	}

	if err := m.store.SaveSetting(ctx, storage.SettingBaseHoldings, h.Normalize()); err != nil {
		return fmt.Errorf("save base holdings: %w", err)
	}
	if m.policy == PolicyMerged {
		if _, err := m.Recompute(ctx); err != nil {
			return err
		}
	}
	return nil
}
