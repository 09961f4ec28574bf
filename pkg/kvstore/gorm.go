package kvstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry maps the kv_entries table.
type Entry struct {
	Key       string     `gorm:"column:storage_key;primaryKey"`
	Value     string     `gorm:"column:value;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string { return "kv_entries" }

// Gorm persists values in a SQL table through GORM. Expired rows read as missing.
type Gorm struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewGorm(db *gorm.DB, ttl time.Duration) (*Gorm, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	return &Gorm{db: db, ttl: ttl, now: time.Now}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := g.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", g.now().UTC()).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (g *Gorm) Set(ctx context.Context, key, value string) error {
	now := g.now().UTC()
	entry := Entry{Key: key, Value: value, UpdatedAt: now}
	if g.ttl > 0 {
		expires := now.Add(g.ttl)
		entry.ExpiresAt = &expires
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&entry).Error
}

// DeleteExpired removes rows whose TTL has passed and returns how many were dropped.
func (g *Gorm) DeleteExpired(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", g.now().UTC()).
		Delete(&Entry{})
	return res.RowsAffected, res.Error
}
