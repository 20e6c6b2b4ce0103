//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	httpDelivery "github.com/feedup/feedup-backend/internal/delivery/http"
	favoritedomain "github.com/feedup/feedup-backend/internal/favorite/domain"
	favoriterepo "github.com/feedup/feedup-backend/internal/favorite/repository"
	"github.com/feedup/feedup-backend/internal/namestore"
	profiledomain "github.com/feedup/feedup-backend/internal/profile/domain"
	profilerepo "github.com/feedup/feedup-backend/internal/profile/repository"
	recipedomain "github.com/feedup/feedup-backend/internal/recipe/domain"
	reciperepo "github.com/feedup/feedup-backend/internal/recipe/repository"
	"github.com/feedup/feedup-backend/internal/remote"
	reviewdomain "github.com/feedup/feedup-backend/internal/review/domain"
	reviewrepo "github.com/feedup/feedup-backend/internal/review/repository"
	"github.com/feedup/feedup-backend/kafka"
)

// Local store providers
func ProvideRecipeStore(db *gorm.DB) recipedomain.LocalStore {
	return reciperepo.NewGormRecipeStore(db)
}

func ProvideReviewStore(db *gorm.DB) reviewdomain.LocalStore {
	return reviewrepo.NewGormReviewStore(db)
}

func ProvideFavoriteStore(db *gorm.DB) favoritedomain.LocalStore {
	return favoriterepo.NewGormFavoriteStore(db)
}

func ProvideProfileStore(db *gorm.DB) profiledomain.LocalStore {
	return profilerepo.NewGormProfileStore(db)
}

// Cached repository providers
func ProvideRecipeRepository(local recipedomain.LocalStore, store remote.Store, events *kafka.Publisher) recipedomain.Repository {
	return reciperepo.NewTracingRecipeRepository(reciperepo.NewCachedRecipeRepository(local, store, events))
}

func ProvideReviewRepository(local reviewdomain.LocalStore, store remote.Store, events *kafka.Publisher) reviewdomain.Repository {
	return reviewrepo.NewCachedReviewRepository(local, store, events)
}

func ProvideFavoriteRepository(local favoritedomain.LocalStore, store remote.Store) favoritedomain.Repository {
	return favoriterepo.NewCachedFavoriteRepository(local, store)
}

func ProvideProfileRepository(local profiledomain.LocalStore, store remote.Store) profiledomain.Repository {
	return profilerepo.NewCachedProfileRepository(local, store)
}

func ProvideNameStore(profiles profiledomain.Repository) *namestore.UserNameStore {
	return namestore.NewUserNameStore(profiles)
}

// Wire sets
var StoreSet = wire.NewSet(
	ProvideRecipeStore,
	ProvideReviewStore,
	ProvideFavoriteStore,
	ProvideProfileStore,
)

var RepositorySet = wire.NewSet(
	ProvideRecipeRepository,
	ProvideReviewRepository,
	ProvideFavoriteRepository,
	ProvideProfileRepository,
	ProvideNameStore,
)

// InitializeHandler initializes the HTTP handler with all dependencies
func InitializeHandler(db *gorm.DB, store remote.Store, events *kafka.Publisher) *httpDelivery.Handler {
	wire.Build(
		StoreSet,
		RepositorySet,
		httpDelivery.NewHandler,
	)
	return nil
}
