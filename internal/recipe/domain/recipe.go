package domain

import (
	"context"

	"github.com/feedup/feedup-backend/internal/cache"
)

// Collection is the remote document collection holding recipes. Each document
// embeds the recipe fields plus its steps and ingredients.
const Collection = "recipes"

// Equipment is a named tool with an illustration.
type Equipment struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Recipe is the recipe entity. LastUpdated is the freshness timestamp driving
// cache staleness decisions; CreatedAt never changes after creation. Both are
// epoch milliseconds.
type Recipe struct {
	RecipeID    string `json:"recipeId" gorm:"primaryKey"`
	UserID      string `json:"userId" gorm:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Servings    int    `json:"servings"`
	CookingTime int    `json:"cookingTime"`
	Difficulty  string `json:"difficulty"`
	Cost        string `json:"cost"`
	Category    string `json:"category"`
	Origin      string `json:"origin"`

	Allergens  []string    `json:"allergens" gorm:"serializer:json"`
	DietTags   []string    `json:"dietTags" gorm:"serializer:json"`
	Equipments []Equipment `json:"equipments" gorm:"serializer:json"`

	ImageURL string `json:"imageUrl"`
	VideoURL string `json:"videoUrl"`

	IsPublic    bool  `json:"isPublic" gorm:"index"`
	LastUpdated int64 `json:"lastUpdated"`
	CreatedAt   int64 `json:"createdAt" gorm:"autoCreateTime:false"`
}

// TableName specifies the table name
func (Recipe) TableName() string {
	return "recipes"
}

// RecipeStep is one step of a recipe. Step numbers are a dense 1..N ordering;
// deleting a step renumbers the following ones so no gap remains.
type RecipeStep struct {
	RecipeID    string `json:"recipeId" gorm:"primaryKey"`
	StepNumber  int    `json:"stepNumber" gorm:"primaryKey"`
	Instruction string `json:"instruction"`

	HasTimer             bool   `json:"hasTimer"`
	TimerDurationMinutes int    `json:"timerDurationMinutes"`
	TimerLabel           string `json:"timerLabel"`

	CreatedAt int64 `json:"createdAt" gorm:"autoCreateTime:false"`
}

func (RecipeStep) TableName() string {
	return "recipe_steps"
}

// RecipeIngredient is keyed by (recipe, name): upserting an ingredient with
// the same name replaces it.
type RecipeIngredient struct {
	RecipeID string `json:"recipeId" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"primaryKey"`

	ImageURL   string `json:"imageUrl"`
	Quantity   string `json:"quantity"`
	IsOptional bool   `json:"isOptional"`

	CreatedAt int64 `json:"createdAt" gorm:"autoCreateTime:false"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// RecipeWithDetails is the read-only view of a recipe joined with its steps,
// ingredients and review aggregates. Never persisted as its own row.
type RecipeWithDetails struct {
	Recipe        Recipe             `json:"recipe"`
	Steps         []RecipeStep       `json:"steps"`
	Ingredients   []RecipeIngredient `json:"ingredients"`
	AverageRating float32            `json:"averageRating"`
	ReviewCount   int                `json:"reviewCount"`
}

// LocalStore is the durable on-device store contract for recipes and their
// children. Upserts are idempotent, keyed by each entity's identity.
type LocalStore interface {
	UpsertRecipe(ctx context.Context, recipe *Recipe) error
	UpsertSteps(ctx context.Context, steps []RecipeStep) error
	UpsertIngredients(ctx context.Context, ingredients []RecipeIngredient) error

	GetRecipe(ctx context.Context, recipeID string) (*Recipe, error)
	GetRecipeWithDetails(ctx context.Context, recipeID string) (*RecipeWithDetails, error)
	GetPublicRecipesWithDetails(ctx context.Context, limit, offset int) ([]RecipeWithDetails, error)
	GetUserRecipesWithDetails(ctx context.Context, userID string) ([]RecipeWithDetails, error)
	CountPublicRecipes(ctx context.Context) (int64, error)

	GetSteps(ctx context.Context, recipeID string) ([]RecipeStep, error)
	DeleteStep(ctx context.Context, recipeID string, stepNumber int) error
	// ShiftStepsAfter renumbers steps above the deleted position down by one.
	ShiftStepsAfter(ctx context.Context, recipeID string, deletedStepNumber int) error

	// DeleteRecipe cascades to the recipe's steps, ingredients and reviews.
	DeleteRecipe(ctx context.Context, recipeID string) error
	DeleteAllPublicRecipes(ctx context.Context) error
}

// Repository is the exposed recipe interface: a cache-policy engine over the
// local store with read-through to the remote document store.
type Repository interface {
	// Create persists the recipe locally and, when public, mirrors it to the
	// remote store fire-and-forget. A missing recipe id is generated. Returns
	// the final recipe id.
	Create(ctx context.Context, recipe *Recipe, steps []RecipeStep, ingredients []RecipeIngredient) (string, error)

	// GetWithDetails returns the recipe with its children and review
	// aggregates, or (nil, nil) when it does not exist anywhere.
	GetWithDetails(ctx context.Context, recipeID string, forceRefresh bool) (*RecipeWithDetails, error)

	// PublicFeed pages through public recipes, newest first.
	PublicFeed(ctx context.Context, page, pageSize int, forceRefresh, reset bool) (cache.Page[RecipeWithDetails], error)

	// UserRecipes lists the caller's own recipes from the local store.
	UserRecipes(ctx context.Context, userID string) ([]RecipeWithDetails, error)

	Steps(ctx context.Context, recipeID string) ([]RecipeStep, error)
	DeleteStep(ctx context.Context, recipeID string, stepNumber int) error
	Delete(ctx context.Context, recipeID string) error
}
