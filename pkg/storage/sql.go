package storage

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRecord is one row of the session_state table.
type StateRecord struct {
	SessionID string    `gorm:"column:session_id;primaryKey"`
	Name      string    `gorm:"column:name;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (StateRecord) TableName() string { return "session_state" }

type sqlStore struct {
	client *db.Client
}

func (s *sqlStore) Get(ctx context.Context, sessionID, name string) ([]byte, bool, error) {
	var rec StateRecord
	err := s.client.DB().WithContext(ctx).
		Where("session_id = ? AND name = ?", sessionID, name).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(rec.Value), true, nil
}

func (s *sqlStore) Put(ctx context.Context, sessionID, name string, value []byte) error {
	rec := StateRecord{
		SessionID: sessionID,
		Name:      name,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
	return s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *sqlStore) Delete(ctx context.Context, sessionID, name string) error {
	return s.client.DB().WithContext(ctx).
		Where("session_id = ? AND name = ?", sessionID, name).
		Delete(&StateRecord{}).Error
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *sqlStore) Close() error {
	return nil
}
