package domain

import (
	"context"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/remote"
)

// Collection is the remote document collection holding reviews. Documents are
// keyed by the composite "{recipeId}_{userId}" id.
const Collection = "reviews"

// Sort options for a recipe's review feed. Each option paginates on its own
// cursor scope.
type SortOption string

const (
	SortNewestFirst   SortOption = "newest_first"
	SortOldestFirst   SortOption = "oldest_first"
	SortHighestRating SortOption = "highest_rating"
	SortLowestRating  SortOption = "lowest_rating"
)

// OrderBy returns the remote order field and direction for the sort option.
func (s SortOption) OrderBy() (field string, descending bool) {
	switch s {
	case SortOldestFirst:
		return "createdAt", false
	case SortHighestRating:
		return "rating", true
	case SortLowestRating:
		return "rating", false
	default:
		return "createdAt", true
	}
}

// RecipeReview is one user's review of a recipe: (recipe id, user id) is the
// identity, so a new submission overwrites the prior one. UpdatedAt is the
// freshness timestamp; CreatedAt is fixed at first submission.
type RecipeReview struct {
	RecipeID string `json:"recipeId" gorm:"primaryKey"`
	UserID   string `json:"userId" gorm:"primaryKey;index"`

	Rating  float32 `json:"rating"`
	Comment string  `json:"comment"`

	CreatedAt int64 `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt int64 `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (RecipeReview) TableName() string {
	return "recipe_reviews"
}

// DocumentID builds the composite remote document id for a review.
func DocumentID(recipeID, userID string) string {
	return recipeID + "_" + userID
}

// ToDocument builds the remote payload for a review.
func (r *RecipeReview) ToDocument() map[string]any {
	return map[string]any{
		"recipeId":  r.RecipeID,
		"userId":    r.UserID,
		"rating":    r.Rating,
		"comment":   r.Comment,
		"createdAt": r.CreatedAt,
		"updatedAt": r.UpdatedAt,
	}
}

// FromDocument parses a remote review document.
func FromDocument(doc *remote.Document) RecipeReview {
	return RecipeReview{
		RecipeID:  doc.String("recipeId"),
		UserID:    doc.String("userId"),
		Rating:    float32(doc.Float64("rating")),
		Comment:   doc.String("comment"),
		CreatedAt: doc.Int64("createdAt"),
		UpdatedAt: doc.Int64("updatedAt"),
	}
}

// ReviewStats aggregates a recipe's reviews.
type ReviewStats struct {
	TotalReviews  int         `json:"totalReviews"`
	AverageRating float32     `json:"averageRating"`
	Distribution  map[int]int `json:"ratingDistribution"`
}

// LocalStore is the durable on-device store contract for reviews.
type LocalStore interface {
	UpsertReview(ctx context.Context, review *RecipeReview) error
	UpsertReviews(ctx context.Context, reviews []RecipeReview) error

	GetReview(ctx context.Context, recipeID, userID string) (*RecipeReview, error)
	GetReviewsForRecipe(ctx context.Context, recipeID string, sort SortOption, limit, offset int) ([]RecipeReview, error)
	GetReviewsByUser(ctx context.Context, userID string, limit, offset int) ([]RecipeReview, error)
	CountForRecipe(ctx context.Context, recipeID string) (int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)

	DeleteReview(ctx context.Context, recipeID, userID string) error
	DeleteAllForRecipe(ctx context.Context, recipeID string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}

// Repository is the exposed review interface.
type Repository interface {
	// Save upserts the review locally and mirrors it remotely fire-and-forget.
	// The creation timestamp of an existing review is preserved.
	Save(ctx context.Context, review *RecipeReview) error
	Delete(ctx context.Context, recipeID, userID string) error

	// Get returns the user's review for the recipe, or (nil, nil).
	Get(ctx context.Context, recipeID, userID string, forceRefresh bool) (*RecipeReview, error)

	PageForRecipe(ctx context.Context, recipeID string, sort SortOption, page, pageSize int, forceRefresh, reset bool) (cache.Page[RecipeReview], error)
	PageByUser(ctx context.Context, userID string, page, pageSize int, forceRefresh, reset bool) (cache.Page[RecipeReview], error)

	// Stats aggregates the recipe's reviews from the remote store, or
	// (nil, nil) when there are none or the store is unreachable.
	Stats(ctx context.Context, recipeID string) (*ReviewStats, error)
}
