package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

const (
	TaskNotDone = "Not Done"
	TaskDone    = "Done"

	FrequencyDaily  = "Daily"
	FrequencyWeekly = "Weekly"
	FrequencyOnce   = "Once"

	MinerActive   = "active"
	MinerInactive = "inactive"
)

const dateLayout = "2006-01-02"

// Repository holds the domain helpers on top of the generic collection
// operations of Store.
type Repository struct {
	*Store
	now func() time.Time
}

func NewRepository(store *Store) *Repository {
	return &Repository{Store: store, now: time.Now}
}

// WithClock replaces the repository clock.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// Today returns the current ISO date.
func (r *Repository) Today() string {
	return r.now().UTC().Format(dateLayout)
}

// Earnings

func (r *Repository) AddEarning(ctx context.Context, e *Earning) (ID, error) {
	if e.Date == "" {
		e.Date = r.Today()
	}
	e.Timestamp = r.now()
	return r.Add(ctx, e)
}

func (r *Repository) UpdateEarning(ctx context.Context, e *Earning) error {
	if e.Date == "" {
		e.Date = r.Today()
	}
	e.Timestamp = r.now()
	return r.Update(ctx, e)
}

func (r *Repository) AllEarnings(ctx context.Context) ([]Earning, error) {
	return GetAll[Earning](ctx, r.Store)
}

func (r *Repository) EarningsByDate(ctx context.Context, date string) ([]Earning, error) {
	return GetByIndex[Earning](ctx, r.Store, "date", date)
}

func (r *Repository) EarningsByPlatform(ctx context.Context, platform string) ([]Earning, error) {
	return GetByIndex[Earning](ctx, r.Store, "platformName", platform)
}

func (r *Repository) EarningsByDateRange(ctx context.Context, start, end string) ([]Earning, error) {
	return GetByDateRange[Earning](ctx, r.Store, start, end)
}

// Trades

// AddTrade stamps the trade and computes PNL_USDT = (exit - entry) x size.
func (r *Repository) AddTrade(ctx context.Context, t *Trade) (ID, error) {
	if t.Date == "" {
		t.Date = r.Today()
	}
	t.PNLUSDT = TradePNL(t.EntryPrice, t.ExitPrice, t.Size)
	t.Timestamp = r.now()
	return r.Add(ctx, t)
}

func TradePNL(entry, exit, size float64) float64 {
	pnl := decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(entry)).
		Mul(decimal.NewFromFloat(size))
	return pnl.InexactFloat64()
}

func (r *Repository) TradesByExchange(ctx context.Context, exchange string) ([]Trade, error) {
	return GetByIndex[Trade](ctx, r.Store, "exchange", exchange)
}

func (r *Repository) TradesByDateRange(ctx context.Context, start, end string) ([]Trade, error) {
	return GetByDateRange[Trade](ctx, r.Store, start, end)
}

// Activities

func (r *Repository) AddActivity(ctx context.Context, a *Activity) (ID, error) {
	if a.Date == "" {
		a.Date = r.Today()
	}
	a.Timestamp = r.now()
	return r.Add(ctx, a)
}

func (r *Repository) ActivitiesByDate(ctx context.Context, date string) ([]Activity, error) {
	return GetByIndex[Activity](ctx, r.Store, "date", date)
}

func (r *Repository) ActivitiesByDateRange(ctx context.Context, start, end string) ([]Activity, error) {
	return GetByDateRange[Activity](ctx, r.Store, start, end)
}

// Miners

func (r *Repository) AddMiner(ctx context.Context, m *Miner) (ID, error) {
	if m.Status == "" {
		m.Status = MinerActive
	}
	m.Timestamp = r.now()
	return r.Add(ctx, m)
}

func (r *Repository) AllMiners(ctx context.Context) ([]Miner, error) {
	return GetAll[Miner](ctx, r.Store)
}

func (r *Repository) ActiveMiners(ctx context.Context) ([]Miner, error) {
	return GetByIndex[Miner](ctx, r.Store, "status", MinerActive)
}

// Tasks

func (r *Repository) AddTask(ctx context.Context, t *Task) (ID, error) {
	if t.Status == "" {
		t.Status = TaskNotDone
	}
	t.CreatedAt = r.now()
	return r.Add(ctx, t)
}

func (r *Repository) AllTasks(ctx context.Context) ([]Task, error) {
	return GetAll[Task](ctx, r.Store)
}

func (r *Repository) UpdateTaskStatus(ctx context.Context, id ID, status string) error {
	task, err := Get[Task](ctx, r.Store, id)
	if err != nil {
		return err
	}
	if task == nil {
		return apperrors.NewNotFoundError("task", id.String())
	}
	now := r.now()
	task.Status = status
	task.LastUpdated = &now
	return r.Update(ctx, task)
}

// ResetDailyTasks sets every daily task back to "Not Done" and returns how
// many were reset.
func (r *Repository) ResetDailyTasks(ctx context.Context) (int, error) {
	tasks, err := GetByIndex[Task](ctx, r.Store, "frequency", FrequencyDaily)
	if err != nil {
		return 0, err
	}
	now := r.now()
	for i := range tasks {
		tasks[i].Status = TaskNotDone
		tasks[i].LastReset = &now
		if err := r.Update(ctx, &tasks[i]); err != nil {
			return i, err
		}
	}
	return len(tasks), nil
}

// Projections

func (r *Repository) AddProjection(ctx context.Context, p *Projection) (ID, error) {
	if p.Date == "" {
		p.Date = r.Today()
	}
	p.Timestamp = r.now()
	return r.Add(ctx, p)
}

// LatestProjection returns the most recently stored projection, or nil.
func (r *Repository) LatestProjection(ctx context.Context) (*Projection, error) {
	const op = "latest projection"
	db, err := r.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var p Projection
	err = db.Order("timestamp DESC, id DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return &p, nil
}
