package domain

import (
	"context"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/remote"
)

// Collection is the remote document collection holding favorites, keyed by
// the composite "{recipeId}_{userId}" id.
const Collection = "favorites"

// Favorite marks a recipe bookmarked by a user. CreatedAt orders the
// favorites feed; UpdatedAt is the freshness timestamp.
type Favorite struct {
	RecipeID string `json:"recipeId" gorm:"primaryKey"`
	UserID   string `json:"userId" gorm:"primaryKey;index"`

	CreatedAt int64 `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt int64 `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// DocumentID builds the composite remote document id for a favorite.
func DocumentID(recipeID, userID string) string {
	return recipeID + "_" + userID
}

// ToDocument builds the remote payload for a favorite.
func (f *Favorite) ToDocument() map[string]any {
	return map[string]any{
		"recipeId":  f.RecipeID,
		"userId":    f.UserID,
		"createdAt": f.CreatedAt,
		"updatedAt": f.UpdatedAt,
	}
}

// FromDocument parses a remote favorite document.
func FromDocument(doc *remote.Document) Favorite {
	return Favorite{
		RecipeID:  doc.String("recipeId"),
		UserID:    doc.String("userId"),
		CreatedAt: doc.Int64("createdAt"),
		UpdatedAt: doc.Int64("updatedAt"),
	}
}

// LocalStore is the durable on-device store contract for favorites.
type LocalStore interface {
	UpsertFavorite(ctx context.Context, favorite *Favorite) error
	UpsertFavorites(ctx context.Context, favorites []Favorite) error

	GetFavorite(ctx context.Context, recipeID, userID string) (*Favorite, error)
	GetFavorites(ctx context.Context, userID string, limit, offset int) ([]Favorite, error)
	CountByUser(ctx context.Context, userID string) (int64, error)

	DeleteFavorite(ctx context.Context, recipeID, userID string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}

// Repository is the exposed favorite interface.
type Repository interface {
	// Add upserts the favorite locally and mirrors it remotely fire-and-forget.
	Add(ctx context.Context, recipeID, userID string) error
	Remove(ctx context.Context, recipeID, userID string) error

	// Get returns the favorite mark, or (nil, nil) when the recipe is not
	// favorited.
	Get(ctx context.Context, recipeID, userID string, forceRefresh bool) (*Favorite, error)
	IsFavorite(ctx context.Context, recipeID, userID string) (bool, error)

	Page(ctx context.Context, userID string, page, pageSize int, forceRefresh, reset bool) (cache.Page[Favorite], error)

	// RefreshAll replaces the user's local favorites with the full remote set.
	RefreshAll(ctx context.Context, userID string) error
}
