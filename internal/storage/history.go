package storage

import (
	"context"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

// AppendHistoryPoint persists p and prunes the oldest rows beyond limit.
func (s *Store) AppendHistoryPoint(ctx context.Context, p portfolio.HistoryPoint, limit int) error {
	const op = "append history"
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}

	row := HistoryRecord{Date: p.Date, Value: p.Value}
	if err := db.Create(&row).Error; err != nil {
		return apperrors.NewStorageError(op, err)
	}

	if limit > 0 {
		err := db.Exec(
			"DELETE FROM portfolio_history WHERE id NOT IN (SELECT id FROM portfolio_history ORDER BY id DESC LIMIT ?)",
			limit,
		).Error
		if err != nil {
			return apperrors.NewStorageError(op, err)
		}
	}
	return nil
}

// LoadHistory returns the newest limit points, oldest first.
func (s *Store) LoadHistory(ctx context.Context, limit int) ([]portfolio.HistoryPoint, error) {
	const op = "load history"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var rows []HistoryRecord
	q := db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}

	points := make([]portfolio.HistoryPoint, len(rows))
	for i, row := range rows {
		points[len(rows)-1-i] = portfolio.HistoryPoint{Date: row.Date, Value: row.Value}
	}
	return points, nil
}
