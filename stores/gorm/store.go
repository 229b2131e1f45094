// Package gorm provides a GORM-backed SecretStore for server-side apps that
// already carry a relational database. The caller supplies the *gorm.DB;
// no driver is pulled in here.
package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	basic "github.com/basicdb/basic-go"
)

// SecretModel is the GORM model for stored secrets.
type SecretModel struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName sets the table name for SecretModel.
func (SecretModel) TableName() string { return "basic_secrets" }

// AutoMigrate runs the database migration for the secrets table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SecretModel{})
}

// Store implements basic.SecretStore using GORM.
type Store struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed secret store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var model SecretModel
	err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, basic.ErrSecretNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	model := SecretModel{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Save(&model).Error
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&SecretModel{}, "key = ?", key).Error
}
