// Package gorm provides a database-backed splitauth.Store for apps that
// already run a relational database. It keeps the same wholesale
// load-all/save-all contract as the file store; the table is simply another
// place to put the flat collection, not a different data model.
package gorm

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	sa "github.com/tabsplit/splitauth"
)

// UserModel is the persisted row for one user record.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Position     int    `gorm:"index"`
	DisplayName  string
	Email        string `gorm:"uniqueIndex"`
	Username     string
	PasswordHash string
	ExternalID   string
	AvatarURL    string
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// TableName keeps the table name explicit rather than derived.
func (UserModel) TableName() string { return "splitauth_users" }

// AutoMigrate creates or migrates the splitauth tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// Store implements splitauth.Store over a gorm database handle. A mutex
// serializes load-modify-save cycles exactly like the file store does; the
// database transaction only guarantees the save itself is all-or-nothing.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewStore wraps an already-open gorm handle. Callers pick the driver.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LoadAll() ([]sa.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) SaveAll(records []sa.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(records)
}

func (s *Store) Update(fn func(records []sa.UserRecord) ([]sa.UserRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return s.saveLocked(updated)
}

func (s *Store) loadLocked() ([]sa.UserRecord, error) {
	var models []UserModel
	if err := s.db.Order("position").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("loading user records: %w", err)
	}

	records := make([]sa.UserRecord, 0, len(models))
	for _, m := range models {
		records = append(records, sa.UserRecord{
			ID:           m.ID,
			DisplayName:  m.DisplayName,
			Email:        m.Email,
			Username:     m.Username,
			PasswordHash: m.PasswordHash,
			ExternalID:   m.ExternalID,
			AvatarURL:    m.AvatarURL,
			CreatedAt:    m.CreatedAt,
			LastLoginAt:  m.LastLoginAt,
		})
	}
	return records, nil
}

func (s *Store) saveLocked(records []sa.UserRecord) error {
	models := make([]UserModel, 0, len(records))
	for i, rec := range records {
		models = append(models, UserModel{
			ID:           rec.ID,
			Position:     i,
			DisplayName:  rec.DisplayName,
			Email:        rec.Email,
			Username:     rec.Username,
			PasswordHash: rec.PasswordHash,
			ExternalID:   rec.ExternalID,
			AvatarURL:    rec.AvatarURL,
			CreatedAt:    rec.CreatedAt,
			LastLoginAt:  rec.LastLoginAt,
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&UserModel{}).Error; err != nil {
			return fmt.Errorf("clearing user records: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("saving user records: %w", err)
		}
		return nil
	})
}
