package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feedup/feedup-backend/internal/favorite/domain"
)

// GormFavoriteStore implements domain.LocalStore on Postgres.
type GormFavoriteStore struct {
	db *gorm.DB
}

// NewGormFavoriteStore creates a new favorite store.
func NewGormFavoriteStore(db *gorm.DB) *GormFavoriteStore {
	return &GormFavoriteStore{db: db}
}

// AutoMigrate runs the schema migration.
func (s *GormFavoriteStore) AutoMigrate() error {
	return s.db.AutoMigrate(&domain.Favorite{})
}

func (s *GormFavoriteStore) UpsertFavorite(ctx context.Context, favorite *domain.Favorite) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(favorite).Error
}

func (s *GormFavoriteStore) UpsertFavorites(ctx context.Context, favorites []domain.Favorite) error {
	if len(favorites) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&favorites).Error
}

func (s *GormFavoriteStore) GetFavorite(ctx context.Context, recipeID, userID string) (*domain.Favorite, error) {
	var favorite domain.Favorite
	err := s.db.WithContext(ctx).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		First(&favorite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &favorite, nil
}

func (s *GormFavoriteStore) GetFavorites(ctx context.Context, userID string, limit, offset int) ([]domain.Favorite, error) {
	var favorites []domain.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&favorites).Error
	return favorites, err
}

func (s *GormFavoriteStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *GormFavoriteStore) DeleteFavorite(ctx context.Context, recipeID, userID string) error {
	return s.db.WithContext(ctx).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		Delete(&domain.Favorite{}).Error
}

func (s *GormFavoriteStore) DeleteAllByUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.Favorite{}).Error
}
