package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/remote"
	"github.com/feedup/feedup-backend/internal/review/domain"
	"github.com/feedup/feedup-backend/kafka"
	"github.com/feedup/feedup-backend/pkg/logger"
	"github.com/feedup/feedup-backend/pkg/metrics"
)

const entity = "review"

// CachedReviewRepository implements domain.Repository. Each (recipe, sort)
// pair and each user feed paginates on its own cursor scope, so switching the
// sort order restarts the remote walk without disturbing the others.
type CachedReviewRepository struct {
	local  domain.LocalStore
	remote remote.Store
	events *kafka.Publisher
	pager  *cache.Pager
}

// NewCachedReviewRepository creates the cached review repository. The event
// publisher may be nil.
func NewCachedReviewRepository(local domain.LocalStore, remoteStore remote.Store, events *kafka.Publisher) *CachedReviewRepository {
	return &CachedReviewRepository{
		local:  local,
		remote: remoteStore,
		events: events,
		pager:  cache.NewPager(),
	}
}

// Save implements domain.Repository.
func (r *CachedReviewRepository) Save(ctx context.Context, review *domain.RecipeReview) error {
	now := cache.NowMillis()
	review.UpdatedAt = now
	review.CreatedAt = now

	// Resubmitting overwrites the rating and comment but keeps the original
	// submission time.
	existing, err := r.local.GetReview(ctx, review.RecipeID, review.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		review.CreatedAt = existing.CreatedAt
	}

	if err := r.local.UpsertReview(ctx, review); err != nil {
		return err
	}

	r.mirror(ctx, review)
	r.publishSubmitted(ctx, review)
	return nil
}

// Delete implements domain.Repository: local removal first, then best-effort
// remote removal.
func (r *CachedReviewRepository) Delete(ctx context.Context, recipeID, userID string) error {
	if err := r.local.DeleteReview(ctx, recipeID, userID); err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, domain.Collection, domain.DocumentID(recipeID, userID)); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("recipe_id", recipeID).Str("user_id", userID).Msg("Failed to delete remote review")
	}
	return nil
}

// Get implements domain.Repository.
func (r *CachedReviewRepository) Get(ctx context.Context, recipeID, userID string, forceRefresh bool) (*domain.RecipeReview, error) {
	candidate, err := r.local.GetReview(ctx, recipeID, userID)
	if err != nil {
		return nil, err
	}

	if candidate != nil && cache.Fresh(candidate.UpdatedAt, cache.ReviewTTL) && !forceRefresh {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		logger.Debug(ctx).Str("recipe_id", recipeID).Str("user_id", userID).Msg("Returning cached review")
		return candidate, nil
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	doc, err := r.remote.Get(ctx, domain.Collection, domain.DocumentID(recipeID, userID))
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			if candidate != nil {
				if err := r.local.DeleteReview(ctx, recipeID, userID); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}

		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Msg("Remote review fetch failed, serving local copy")
		return candidate, nil
	}

	review := domain.FromDocument(doc)
	review.UpdatedAt = cache.NowMillis()
	if err := r.local.UpsertReview(ctx, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// PageForRecipe implements domain.Repository.
func (r *CachedReviewRepository) PageForRecipe(ctx context.Context, recipeID string, sort domain.SortOption, page, pageSize int, forceRefresh, reset bool) (cache.Page[domain.RecipeReview], error) {
	scope := recipeID + "_" + string(sort)
	if reset || page == 0 {
		r.pager.Reset(scope)
	}

	localSlice, err := r.local.GetReviewsForRecipe(ctx, recipeID, sort, pageSize, page*pageSize)
	if err != nil {
		return cache.Page[domain.RecipeReview]{Page: page}, err
	}

	if page == 0 && !forceRefresh && len(localSlice) > 0 && cache.Fresh(oldestUpdate(localSlice), cache.ReviewTTL) {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		logger.Debug(ctx).Str("recipe_id", recipeID).Int("count", len(localSlice)).Msg("Returning cached reviews")
		return r.localPage(localSlice, page, pageSize, func() (int64, error) {
			return r.local.CountForRecipe(ctx, recipeID)
		})
	}

	cursor := r.pager.Cursor(scope)
	if page > 0 && cursor == nil {
		logger.Debug(ctx).Str("recipe_id", recipeID).Int("page", page).Msg("No review cursor, using local cache")
		return r.localPage(localSlice, page, pageSize, func() (int64, error) {
			return r.local.CountForRecipe(ctx, recipeID)
		})
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	orderBy, descending := sort.OrderBy()
	docs, next, err := r.remote.Query(ctx, remote.Query{
		Collection: domain.Collection,
		Filters:    []remote.Filter{{Field: "recipeId", Value: recipeID}},
		OrderBy:    orderBy,
		Descending: descending,
		Limit:      pageSize,
		StartAfter: cursor,
	})
	if err != nil {
		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Int("page", page).Msg("Remote review query failed, serving local slice")
		return r.localPage(localSlice, page, pageSize, func() (int64, error) {
			return r.local.CountForRecipe(ctx, recipeID)
		})
	}
	r.pager.Advance(scope, next)

	items := r.restamp(docs)
	hasMore := len(docs) >= pageSize

	if page == 0 || reset {
		if err := r.local.DeleteAllForRecipe(ctx, recipeID); err != nil {
			return cache.Page[domain.RecipeReview]{Page: page}, err
		}
	}
	if err := r.local.UpsertReviews(ctx, items); err != nil {
		return cache.Page[domain.RecipeReview]{Page: page}, err
	}

	total := len(items)
	if page == 0 {
		if hasMore {
			total += pageSize
		}
	} else {
		if count, err := r.local.CountForRecipe(ctx, recipeID); err == nil {
			total = int(count)
		}
	}

	return cache.Page[domain.RecipeReview]{
		Items:      items,
		HasMore:    hasMore,
		TotalCount: total,
		Page:       page,
	}, nil
}

// PageByUser implements domain.Repository.
func (r *CachedReviewRepository) PageByUser(ctx context.Context, userID string, page, pageSize int, forceRefresh, reset bool) (cache.Page[domain.RecipeReview], error) {
	scope := "user_" + userID
	if reset || page == 0 {
		r.pager.Reset(scope)
	}

	localSlice, err := r.local.GetReviewsByUser(ctx, userID, pageSize, page*pageSize)
	if err != nil {
		return cache.Page[domain.RecipeReview]{Page: page}, err
	}

	if page == 0 && !forceRefresh && len(localSlice) > 0 && cache.Fresh(oldestUpdate(localSlice), cache.ReviewTTL) {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		return r.localPage(localSlice, page, pageSize, func() (int64, error) {
			return r.local.CountByUser(ctx, userID)
		})
	}

	cursor := r.pager.Cursor(scope)
	if page > 0 && cursor == nil {
		logger.Debug(ctx).Str("user_id", userID).Int("page", page).Msg("No review cursor, using local cache")
		return r.localPage(localSlice, page, pageSize, func() (int64, error) {
			return r.local.CountByUser(ctx, userID)
		})
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
		logger.Warn(ctx).Err(err).Str("user_id", userID).Int("page", page).Msg("Remote review query failed, serving local slice")
		return r.localPage(localSlice, page, pageSize, func() (int64, error) {
			return r.local.CountByUser(ctx, userID)
		})
	}
	r.pager.Advance(scope, next)

	items := r.restamp(docs)
	hasMore := len(docs) >= pageSize

	if page == 0 || reset {
		if err := r.local.DeleteAllByUser(ctx, userID); err != nil {
			return cache.Page[domain.RecipeReview]{Page: page}, err
		}
	}
	if err := r.local.UpsertReviews(ctx, items); err != nil {
		return cache.Page[domain.RecipeReview]{Page: page}, err
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

	return cache.Page[domain.RecipeReview]{
		Items:      items,
		HasMore:    hasMore,
		TotalCount: total,
		Page:       page,
	}, nil
}

// Stats implements domain.Repository.
func (r *CachedReviewRepository) Stats(ctx context.Context, recipeID string) (*domain.ReviewStats, error) {
	docs, _, err := r.remote.Query(ctx, remote.Query{
		Collection: domain.Collection,
		Filters:    []remote.Filter{{Field: "recipeId", Value: recipeID}},
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Msg("Failed to fetch review stats")
		return nil, nil
	}
	if len(docs) == 0 {
		return nil, nil
	}

	stats := &domain.ReviewStats{
		TotalReviews: len(docs),
		Distribution: make(map[int]int),
	}
	var sum float64
	for i := range docs {
		rating := docs[i].Float64("rating")
		sum += rating
		stats.Distribution[int(rating)]++
	}
	stats.AverageRating = float32(sum / float64(len(docs)))
	return stats, nil
}

// mirror pushes the review document to the remote store. Failures are logged
// and dropped.
func (r *CachedReviewRepository) mirror(ctx context.Context, review *domain.RecipeReview) {
	id := domain.DocumentID(review.RecipeID, review.UserID)
	if err := r.remote.Set(ctx, domain.Collection, id, review.ToDocument()); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("review_id", id).Msg("Failed to sync review to remote store")
		return
	}
	logger.Debug(ctx).Str("review_id", id).Msg("Review synced to remote store")
}

func (r *CachedReviewRepository) publishSubmitted(ctx context.Context, review *domain.RecipeReview) {
	if r.events == nil {
		return
	}
	err := r.events.PublishReviewSubmitted(ctx, kafka.ReviewSubmittedEvent{
		RecipeID: review.RecipeID,
		UserID:   review.UserID,
		Rating:   review.Rating,
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("recipe_id", review.RecipeID).Msg("Failed to publish review event")
	}
}

func (r *CachedReviewRepository) restamp(docs []remote.Document) []domain.RecipeReview {
	now := cache.NowMillis()
	items := make([]domain.RecipeReview, 0, len(docs))
	for i := range docs {
		review := domain.FromDocument(&docs[i])
		review.UpdatedAt = now
		items = append(items, review)
	}
	return items
}

func (r *CachedReviewRepository) localPage(slice []domain.RecipeReview, page, pageSize int, count func() (int64, error)) (cache.Page[domain.RecipeReview], error) {
	total, err := count()
	if err != nil {
		return cache.Page[domain.RecipeReview]{Page: page}, fmt.Errorf("failed to count local reviews: %w", err)
	}
	return cache.Page[domain.RecipeReview]{
		Items:      slice,
		HasMore:    (page+1)*pageSize < int(total),
		TotalCount: int(total),
		Page:       page,
	}, nil
}

func oldestUpdate(items []domain.RecipeReview) int64 {
	oldest := items[0].UpdatedAt
	for _, item := range items[1:] {
		if item.UpdatedAt < oldest {
			oldest = item.UpdatedAt
		}
	}
	return oldest
}
