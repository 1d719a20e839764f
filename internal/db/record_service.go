package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/storage"
)

// RecordStore is a storage.KV backed by the records table
type RecordStore struct {
	db *gorm.DB
}

var _ storage.KV = (*RecordStore)(nil)

// NewRecordStore wraps an open database
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Get returns the value stored under name
func (s *RecordStore) Get(ctx context.Context, name string) ([]byte, error) {
	var record models.Record
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return []byte(record.Value), nil
}

// Put creates or replaces the value stored under name
func (s *RecordStore) Put(ctx context.Context, name string, value []byte) error {
	record := models.Record{Name: name, Value: string(value)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
}

// Delete removes name; deleting a missing record is not an error
func (s *RecordStore) Delete(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Record{}).Error
}

// Clear removes every record
func (s *RecordStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Record{}).Error
}
