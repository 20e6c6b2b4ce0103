package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feedup/feedup-backend/internal/recipe/domain"
)

// GormRecipeStore implements domain.LocalStore on GORM.
type GormRecipeStore struct {
	db *gorm.DB
}

// NewGormRecipeStore creates a new GORM recipe store.
func NewGormRecipeStore(db *gorm.DB) *GormRecipeStore {
	return &GormRecipeStore{db: db}
}

// AutoMigrate runs database migrations for the recipe tables.
func (s *GormRecipeStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&domain.Recipe{},
		&domain.RecipeStep{},
		&domain.RecipeIngredient{},
	)
}

// UpsertRecipe inserts or replaces the recipe row by its id.
func (s *GormRecipeStore) UpsertRecipe(ctx context.Context, recipe *domain.Recipe) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(recipe).Error
	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}
	return nil
}

// UpsertSteps inserts or replaces steps keyed by (recipe id, step number).
func (s *GormRecipeStore) UpsertSteps(ctx context.Context, steps []domain.RecipeStep) error {
	if len(steps) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&steps).Error
	if err != nil {
		return fmt.Errorf("failed to upsert steps: %w", err)
	}
	return nil
}

// UpsertIngredients inserts or replaces ingredients keyed by (recipe id, name).
func (s *GormRecipeStore) UpsertIngredients(ctx context.Context, ingredients []domain.RecipeIngredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&ingredients).Error
	if err != nil {
		return fmt.Errorf("failed to upsert ingredients: %w", err)
	}
	return nil
}

// GetRecipe retrieves a recipe by id, or nil when absent.
func (s *GormRecipeStore) GetRecipe(ctx context.Context, recipeID string) (*domain.Recipe, error) {
	var recipe domain.Recipe
	err := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe: %w", err)
	}
	return &recipe, nil
}

// GetRecipeWithDetails assembles the recipe with its steps, ingredients and
// review aggregates.
func (s *GormRecipeStore) GetRecipeWithDetails(ctx context.Context, recipeID string) (*domain.RecipeWithDetails, error) {
	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil || recipe == nil {
		return nil, err
	}
	return s.withDetails(ctx, *recipe)
}

// GetPublicRecipesWithDetails returns a page of public recipes, newest first.
func (s *GormRecipeStore) GetPublicRecipesWithDetails(ctx context.Context, limit, offset int) ([]domain.RecipeWithDetails, error) {
	var recipes []domain.Recipe
	query := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to find public recipes: %w", err)
	}
	return s.allWithDetails(ctx, recipes)
}

// GetUserRecipesWithDetails returns all recipes owned by the user.
func (s *GormRecipeStore) GetUserRecipesWithDetails(ctx context.Context, userID string) ([]domain.RecipeWithDetails, error) {
	var recipes []domain.Recipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user recipes: %w", err)
	}
	return s.allWithDetails(ctx, recipes)
}

// CountPublicRecipes returns the number of locally cached public recipes.
func (s *GormRecipeStore) CountPublicRecipes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("is_public = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count public recipes: %w", err)
	}
	return count, nil
}

// GetSteps returns the recipe's steps ordered by step number.
func (s *GormRecipeStore) GetSteps(ctx context.Context, recipeID string) ([]domain.RecipeStep, error) {
	var steps []domain.RecipeStep
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("step_number ASC").
		Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find steps: %w", err)
	}
	return steps, nil
}

// DeleteStep removes one step row.
func (s *GormRecipeStore) DeleteStep(ctx context.Context, recipeID string, stepNumber int) error {
	err := s.db.WithContext(ctx).
		Where("recipe_id = ? AND step_number = ?", recipeID, stepNumber).
		Delete(&domain.RecipeStep{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}
	return nil
}

// ShiftStepsAfter renumbers steps after a deletion to keep the 1..N ordering
// dense.
func (s *GormRecipeStore) ShiftStepsAfter(ctx context.Context, recipeID string, deletedStepNumber int) error {
	err := s.db.WithContext(ctx).
		Table("recipe_steps").
		Where("recipe_id = ? AND step_number > ?", recipeID, deletedStepNumber).
		UpdateColumn("step_number", gorm.Expr("step_number - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to renumber steps: %w", err)
	}
	return nil
}

// DeleteRecipe removes the recipe and cascades to its steps, ingredients and
// reviews in one transaction.
func (s *GormRecipeStore) DeleteRecipe(ctx context.Context, recipeID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Table("recipe_reviews").Where("recipe_id = ?", recipeID).Delete(nil).Error; err != nil {
			return err
		}
		return tx.Where("recipe_id = ?", recipeID).Delete(&domain.Recipe{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// DeleteAllPublicRecipes clears the locally cached public feed slice together
// with the steps, ingredients and reviews of the recipes it drops.
func (s *GormRecipeStore) DeleteAllPublicRecipes(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		publicIDs := tx.Model(&domain.Recipe{}).
			Select("recipe_id").
			Where("is_public = ?", true)
		if err := tx.Where("recipe_id IN (?)", publicIDs).Delete(&domain.RecipeStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id IN (?)", publicIDs).Delete(&domain.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Table("recipe_reviews").Where("recipe_id IN (?)", publicIDs).Delete(nil).Error; err != nil {
			return err
		}
		return tx.Where("is_public = ?", true).Delete(&domain.Recipe{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete public recipes: %w", err)
	}
	return nil
}

type reviewAggregate struct {
	Average float64
	Count   int
}

func (s *GormRecipeStore) withDetails(ctx context.Context, recipe domain.Recipe) (*domain.RecipeWithDetails, error) {
	steps, err := s.GetSteps(ctx, recipe.RecipeID)
	if err != nil {
		return nil, err
	}

	var ingredients []domain.RecipeIngredient
	err = s.db.WithContext(ctx).
		Where("recipe_id = ?", recipe.RecipeID).
		Order("name ASC").
		Find(&ingredients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredients: %w", err)
	}

	var agg reviewAggregate
	err = s.db.WithContext(ctx).
		Table("recipe_reviews").
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("recipe_id = ?", recipe.RecipeID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return &domain.RecipeWithDetails{
		Recipe:        recipe,
		Steps:         steps,
		Ingredients:   ingredients,
		AverageRating: float32(agg.Average),
		ReviewCount:   agg.Count,
	}, nil
}

func (s *GormRecipeStore) allWithDetails(ctx context.Context, recipes []domain.Recipe) ([]domain.RecipeWithDetails, error) {
	out := make([]domain.RecipeWithDetails, 0, len(recipes))
	for _, recipe := range recipes {
		details, err := s.withDetails(ctx, recipe)
		if err != nil {
			return nil, err
		}
		out = append(out, *details)
	}
	return out, nil
}
