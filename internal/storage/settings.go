package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

// Settings keys.
const (
	SettingHoldings            = "holdings"
	SettingBaseHoldings        = "baseHoldings"
	SettingHoldingsLastUpdated = "holdingsLastUpdated"
	SettingAlertConfig         = "alertConfig"
	SettingDisplayCurrency     = "displayCurrency"
)

// SaveSetting stores value under key as JSON. The last write wins.
func (s *Store) SaveSetting(ctx context.Context, key string, value interface{}) error {
	op := "save setting " + key
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStorageError(op, fmt.Errorf("encode: %w", err))
	}

	row := Setting{Key: key, Value: string(data)}
	if err := db.Save(&row).Error; err != nil {
		return apperrors.NewStorageError(op, err)
	}
	return nil
}

// GetSetting decodes the value stored under key into dst. It reports false
// when the key is absent or holds null.
func (s *Store) GetSetting(ctx context.Context, key string, dst interface{}) (bool, error) {
	op := "get setting " + key
	db, err := s.conn(ctx, op)
	if err != nil {
		return false, err
	}

	var row Setting
	err = db.Where("setting_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStorageError(op, err)
	}

	if row.Value == "" || row.Value == "null" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(row.Value), dst); err != nil {
		return false, apperrors.NewStorageError(op, fmt.Errorf("decode: %w", err))
	}
	return true, nil
}

func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	op := "delete setting " + key
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}
	if err := db.Where("setting_key = ?", key).Delete(&Setting{}).Error; err != nil {
		return apperrors.NewStorageError(op, err)
	}
	return nil
}
