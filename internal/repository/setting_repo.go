package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"presale/internal/models"
	"presale/pkg/logger"
	"presale/pkg/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository is the key/value config store. Values are stored as JSON.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *SettingRepository) WithTx(tx *gorm.DB) *SettingRepository {
	return &SettingRepository{db: tx}
}

// seed inserts key=raw unless the key already exists.
func (r *SettingRepository) seed(ctx context.Context, key, raw string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoNothing: true,
	}).Create(&models.Setting{Key: key, Value: raw}).Error
}

func (r *SettingRepository) find(ctx context.Context, key string, lock bool) (*models.Setting, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s models.Setting
	if err := q.Where("setting_key = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetRaw returns the stored JSON for key, seeding it with def when missing.
// Concurrent seeders agree on whichever default was inserted first.
func (r *SettingRepository) GetRaw(ctx context.Context, key, def string) (string, error) {
	s, err := r.find(ctx, key, false)
	if err == nil {
		return s.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if err := r.seed(ctx, key, def); err != nil {
		return "", err
	}
	s, err = r.find(ctx, key, false)
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// Set upserts key. Last writer wins.
func (r *SettingRepository) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: string(raw)}).Error
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]models.Setting, error) {
	var list []models.Setting
	err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&list).Error
	return list, err
}

// IncrementCounter adds one to the integer stored under key and returns the
// new value. The row is locked for the rest of the surrounding transaction,
// so callers must run it inside one.
func (r *SettingRepository) IncrementCounter(ctx context.Context, key string) (int64, error) {
	if err := r.seed(ctx, key, "0"); err != nil {
		return 0, err
	}
	s, err := r.find(ctx, key, true)
	if err != nil {
		return 0, err
	}
	current, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		metrics.ConfigDecodeErrors.Inc()
		logger.Warn("Counter value is corrupt, restarting from zero", "key", key, "value", s.Value)
		current = 0
	}
	next := current + 1
	err = r.db.WithContext(ctx).Model(&models.Setting{}).
		Where("setting_key = ?", key).
		Update("value", strconv.FormatInt(next, 10)).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// GetValue decodes the value stored under key. A missing key is seeded with
// def. A value that cannot be decoded yields def and is left as stored.
func GetValue[T any](ctx context.Context, r *SettingRepository, key string, def T) (T, error) {
	rawDef, err := json.Marshal(def)
	if err != nil {
		return def, err
	}
	raw, err := r.GetRaw(ctx, key, string(rawDef))
	if err != nil {
		return def, err
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		metrics.ConfigDecodeErrors.Inc()
		logger.Warn("Stored config value is corrupt, using default", "key", key, "error", err)
		return def, nil
	}
	return out, nil
}
