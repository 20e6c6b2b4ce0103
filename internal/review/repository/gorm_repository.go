package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feedup/feedup-backend/internal/review/domain"
)

// GormReviewStore implements domain.LocalStore on Postgres.
type GormReviewStore struct {
	db *gorm.DB
}

// NewGormReviewStore creates a new review store.
func NewGormReviewStore(db *gorm.DB) *GormReviewStore {
	return &GormReviewStore{db: db}
}

// AutoMigrate runs the schema migration.
func (s *GormReviewStore) AutoMigrate() error {
	return s.db.AutoMigrate(&domain.RecipeReview{})
}

func (s *GormReviewStore) UpsertReview(ctx context.Context, review *domain.RecipeReview) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(review).Error
}

func (s *GormReviewStore) UpsertReviews(ctx context.Context, reviews []domain.RecipeReview) error {
	if len(reviews) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&reviews).Error
}

func (s *GormReviewStore) GetReview(ctx context.Context, recipeID, userID string) (*domain.RecipeReview, error) {
	var review domain.RecipeReview
	err := s.db.WithContext(ctx).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *GormReviewStore) GetReviewsForRecipe(ctx context.Context, recipeID string, sort domain.SortOption, limit, offset int) ([]domain.RecipeReview, error) {
	var reviews []domain.RecipeReview
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order(orderClause(sort)).
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

func (s *GormReviewStore) GetReviewsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.RecipeReview, error) {
	var reviews []domain.RecipeReview
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

func (s *GormReviewStore) CountForRecipe(ctx context.Context, recipeID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.RecipeReview{}).
		Where("recipe_id = ?", recipeID).
		Count(&count).Error
	return count, err
}

func (s *GormReviewStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.RecipeReview{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *GormReviewStore) DeleteReview(ctx context.Context, recipeID, userID string) error {
	return s.db.WithContext(ctx).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		Delete(&domain.RecipeReview{}).Error
}

func (s *GormReviewStore) DeleteAllForRecipe(ctx context.Context, recipeID string) error {
	return s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Delete(&domain.RecipeReview{}).Error
}

func (s *GormReviewStore) DeleteAllByUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.RecipeReview{}).Error
}

func orderClause(sort domain.SortOption) string {
	switch sort {
	case domain.SortOldestFirst:
		return "created_at ASC"
	case domain.SortHighestRating:
		return "rating DESC, created_at DESC"
	case domain.SortLowestRating:
		return "rating ASC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
