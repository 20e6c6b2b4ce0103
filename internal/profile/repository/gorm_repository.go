package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feedup/feedup-backend/internal/profile/domain"
)

// GormProfileStore implements domain.LocalStore on Postgres.
type GormProfileStore struct {
	db *gorm.DB
}

// NewGormProfileStore creates a new profile store.
func NewGormProfileStore(db *gorm.DB) *GormProfileStore {
	return &GormProfileStore{db: db}
}

// AutoMigrate runs the schema migration.
func (s *GormProfileStore) AutoMigrate() error {
	return s.db.AutoMigrate(&domain.UserProfile{})
}

func (s *GormProfileStore) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(profile).Error
}

func (s *GormProfileStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *GormProfileStore) DeleteProfile(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.UserProfile{}).Error
}
