package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/favorite/domain"
	"github.com/feedup/feedup-backend/internal/remote"
	"github.com/feedup/feedup-backend/pkg/logger"
	"github.com/feedup/feedup-backend/pkg/metrics"
)

const entity = "favorite"

// CachedFavoriteRepository implements domain.Repository: write-through
// favorite marks with a fire-and-forget remote mirror, and cursor pagination
// over the user's favorites feed.
type CachedFavoriteRepository struct {
	local  domain.LocalStore
	remote remote.Store
	pager  *cache.Pager
}

// NewCachedFavoriteRepository creates the cached favorite repository.
func NewCachedFavoriteRepository(local domain.LocalStore, remoteStore remote.Store) *CachedFavoriteRepository {
	return &CachedFavoriteRepository{
		local:  local,
		remote: remoteStore,
		pager:  cache.NewPager(),
	}
}

// Add implements domain.Repository.
func (r *CachedFavoriteRepository) Add(ctx context.Context, recipeID, userID string) error {
	now := cache.NowMillis()
	favorite := &domain.Favorite{
		RecipeID:  recipeID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Re-favoriting keeps the original mark time so the feed order is stable.
	existing, err := r.local.GetFavorite(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		favorite.CreatedAt = existing.CreatedAt
	}

	if err := r.local.UpsertFavorite(ctx, favorite); err != nil {
		return err
	}

	id := domain.DocumentID(recipeID, userID)
	if err := r.remote.Set(ctx, domain.Collection, id, favorite.ToDocument()); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("favorite_id", id).Msg("Failed to sync favorite to remote store")
	}
	return nil
}

// Remove implements domain.Repository: local removal first, then best-effort
// remote removal.
func (r *CachedFavoriteRepository) Remove(ctx context.Context, recipeID, userID string) error {
	if err := r.local.DeleteFavorite(ctx, recipeID, userID); err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, domain.Collection, domain.DocumentID(recipeID, userID)); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("recipe_id", recipeID).Str("user_id", userID).Msg("Failed to delete remote favorite")
	}
	return nil
}

// Get implements domain.Repository.
func (r *CachedFavoriteRepository) Get(ctx context.Context, recipeID, userID string, forceRefresh bool) (*domain.Favorite, error) {
	candidate, err := r.local.GetFavorite(ctx, recipeID, userID)
	if err != nil {
		return nil, err
	}

	if candidate != nil && cache.Fresh(candidate.UpdatedAt, cache.FavoriteTTL) && !forceRefresh {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		return candidate, nil
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	doc, err := r.remote.Get(ctx, domain.Collection, domain.DocumentID(recipeID, userID))
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			// Unfavorited elsewhere: drop the stale local mark.
			if candidate != nil {
				if err := r.local.DeleteFavorite(ctx, recipeID, userID); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}

		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Msg("Remote favorite fetch failed, serving local copy")
		return candidate, nil
	}

	favorite := domain.FromDocument(doc)
	favorite.UpdatedAt = cache.NowMillis()
	if err := r.local.UpsertFavorite(ctx, &favorite); err != nil {
		return nil, err
	}
	return &favorite, nil
}

// IsFavorite implements domain.Repository.
func (r *CachedFavoriteRepository) IsFavorite(ctx context.Context, recipeID, userID string) (bool, error) {
	favorite, err := r.Get(ctx, recipeID, userID, false)
	if err != nil {
		return false, err
	}
	return favorite != nil, nil
}

// Page implements domain.Repository.
func (r *CachedFavoriteRepository) Page(ctx context.Context, userID string, page, pageSize int, forceRefresh, reset bool) (cache.Page[domain.Favorite], error) {
	scope := "user_" + userID
	if reset || page == 0 {
		r.pager.Reset(scope)
	}

	localSlice, err := r.local.GetFavorites(ctx, userID, pageSize, page*pageSize)
	if err != nil {
		return cache.Page[domain.Favorite]{Page: page}, err
	}

	if page == 0 && !forceRefresh && len(localSlice) > 0 && cache.Fresh(oldestUpdate(localSlice), cache.FavoriteTTL) {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		logger.Debug(ctx).Str("user_id", userID).Int("count", len(localSlice)).Msg("Returning cached favorites")
		return r.localPage(ctx, localSlice, userID, page, pageSize)
	}

	cursor := r.pager.Cursor(scope)
	if page > 0 && cursor == nil {
		logger.Debug(ctx).Str("user_id", userID).Int("page", page).Msg("No favorite cursor, using local cache")
		return r.localPage(ctx, localSlice, userID, page, pageSize)
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	docs, next, err := r.remote.Query(ctx, remote.Query{
		Collection: domain.Collection,
		Filters:    []remote.Filter{{Field: "userId", Value: userID}},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      pageSize,
		StartAfter: cursor,
	})
	if err != nil {
		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Str("user_id", userID).Int("page", page).Msg("Remote favorites query failed, serving local slice")
		return r.localPage(ctx, localSlice, userID, page, pageSize)
	}
	r.pager.Advance(scope, next)

	now := cache.NowMillis()
	items := make([]domain.Favorite, 0, len(docs))
	for i := range docs {
		favorite := domain.FromDocument(&docs[i])
		favorite.UpdatedAt = now
		items = append(items, favorite)
	}
	hasMore := len(docs) >= pageSize

	if page == 0 || reset {
		if err := r.local.DeleteAllByUser(ctx, userID); err != nil {
			return cache.Page[domain.Favorite]{Page: page}, err
		}
	}
	if err := r.local.UpsertFavorites(ctx, items); err != nil {
		return cache.Page[domain.Favorite]{Page: page}, err
	}

	total := len(items)
	if page == 0 {
		if hasMore {
			total += pageSize
		}
	} else {
		if count, err := r.local.CountByUser(ctx, userID); err == nil {
			total = int(count)
		}
	}

	return cache.Page[domain.Favorite]{
		Items:      items,
		HasMore:    hasMore,
		TotalCount: total,
		Page:       page,
	}, nil
}

// RefreshAll implements domain.Repository, replacing the local set with the
// full remote one in a single sweep.
func (r *CachedFavoriteRepository) RefreshAll(ctx context.Context, userID string) error {
	docs, _, err := r.remote.Query(ctx, remote.Query{
		Collection: domain.Collection,
		Filters:    []remote.Filter{{Field: "userId", Value: userID}},
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		return fmt.Errorf("failed to refresh favorites: %w", err)
	}

	if err := r.local.DeleteAllByUser(ctx, userID); err != nil {
		return err
	}

	now := cache.NowMillis()
	items := make([]domain.Favorite, 0, len(docs))
	for i := range docs {
		favorite := domain.FromDocument(&docs[i])
		favorite.UpdatedAt = now
		items = append(items, favorite)
	}
	if err := r.local.UpsertFavorites(ctx, items); err != nil {
		return err
	}

	r.pager.Reset("user_" + userID)
	logger.Info(ctx).Str("user_id", userID).Int("count", len(items)).Msg("Favorites refreshed from remote store")
	return nil
}

func (r *CachedFavoriteRepository) localPage(ctx context.Context, slice []domain.Favorite, userID string, page, pageSize int) (cache.Page[domain.Favorite], error) {
	total, err := r.local.CountByUser(ctx, userID)
	if err != nil {
		return cache.Page[domain.Favorite]{Page: page}, fmt.Errorf("failed to count local favorites: %w", err)
	}
	return cache.Page[domain.Favorite]{
		Items:      slice,
		HasMore:    (page+1)*pageSize < int(total),
		TotalCount: int(total),
		Page:       page,
	}, nil
}

func oldestUpdate(items []domain.Favorite) int64 {
	oldest := items[0].UpdatedAt
	for _, item := range items[1:] {
		if item.UpdatedAt < oldest {
			oldest = item.UpdatedAt
		}
	}
	return oldest
}
