package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/recipe/domain"
	"github.com/feedup/feedup-backend/internal/remote"
	"github.com/feedup/feedup-backend/kafka"
	"github.com/feedup/feedup-backend/pkg/logger"
	"github.com/feedup/feedup-backend/pkg/metrics"
)

const (
	entity            = "recipe"
	reviewsCollection = "reviews"
	feedScope         = "public"
)

// CachedRecipeRepository implements domain.Repository: TTL-gated read-through
// against the remote document store, write-through with a fire-and-forget
// remote mirror, and cursor pagination for the public feed.
//
// Two concurrent reads of the same stale key may both fetch remotely and both
// write back; unlike the name store, this layer is deliberately not
// single-flight.
type CachedRecipeRepository struct {
	local  domain.LocalStore
	remote remote.Store
	events *kafka.Publisher
	pager  *cache.Pager
}

// NewCachedRecipeRepository creates the cached recipe repository. The event
// publisher may be nil.
func NewCachedRecipeRepository(local domain.LocalStore, remoteStore remote.Store, events *kafka.Publisher) *CachedRecipeRepository {
	return &CachedRecipeRepository{
		local:  local,
		remote: remoteStore,
		events: events,
		pager:  cache.NewPager(),
	}
}

// Create implements domain.Repository.
func (r *CachedRecipeRepository) Create(ctx context.Context, recipe *domain.Recipe, steps []domain.RecipeStep, ingredients []domain.RecipeIngredient) (string, error) {
	if recipe.RecipeID == "" {
		recipe.RecipeID = uuid.NewString()
	}

	now := cache.NowMillis()
	recipe.LastUpdated = now
	if recipe.CreatedAt == 0 {
		recipe.CreatedAt = now
	}
	for i := range steps {
		steps[i].RecipeID = recipe.RecipeID
	}
	for i := range ingredients {
		ingredients[i].RecipeID = recipe.RecipeID
	}

	// Local first: the caller sees the recipe immediately, online or not.
	if err := r.local.UpsertRecipe(ctx, recipe); err != nil {
		return "", err
	}
	if err := r.local.UpsertSteps(ctx, steps); err != nil {
		return "", err
	}
	if err := r.local.UpsertIngredients(ctx, ingredients); err != nil {
		return "", err
	}

	if recipe.IsPublic {
		r.mirror(ctx, recipe, steps, ingredients)
		r.publishCreated(ctx, recipe)
	}

	return recipe.RecipeID, nil
}

// GetWithDetails implements domain.Repository.
func (r *CachedRecipeRepository) GetWithDetails(ctx context.Context, recipeID string, forceRefresh bool) (*domain.RecipeWithDetails, error) {
	candidate, err := r.local.GetRecipeWithDetails(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if candidate != nil && cache.Fresh(candidate.Recipe.LastUpdated, cache.RecipeTTL) && !forceRefresh {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		logger.Debug(ctx).Str("recipe_id", recipeID).Msg("Returning cached recipe")
		return candidate, nil
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	doc, err := r.remote.Get(ctx, domain.Collection, recipeID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			// Authoritative absence: the stale local copy must go too.
			if candidate != nil {
				if err := r.local.DeleteRecipe(ctx, recipeID); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}

		// Serve stale over serve nothing.
		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Msg("Remote fetch failed, serving local copy")
		return candidate, nil
	}

	recipe, steps, ingredients := domain.FromDocument(doc)
	recipe.LastUpdated = cache.NowMillis()

	if err := r.local.UpsertRecipe(ctx, &recipe); err != nil {
		return nil, err
	}
	if err := r.local.UpsertSteps(ctx, steps); err != nil {
		return nil, err
	}
	if err := r.local.UpsertIngredients(ctx, ingredients); err != nil {
		return nil, err
	}

	rating, count := r.fetchRating(ctx, recipeID)
	return &domain.RecipeWithDetails{
		Recipe:        recipe,
		Steps:         steps,
		Ingredients:   ingredients,
		AverageRating: rating,
		ReviewCount:   count,
	}, nil
}

// PublicFeed implements domain.Repository.
func (r *CachedRecipeRepository) PublicFeed(ctx context.Context, page, pageSize int, forceRefresh, reset bool) (cache.Page[domain.RecipeWithDetails], error) {
	if reset || page == 0 {
		r.pager.Reset(feedScope)
	}

	localSlice, err := r.local.GetPublicRecipesWithDetails(ctx, pageSize, page*pageSize)
	if err != nil {
		return cache.Page[domain.RecipeWithDetails]{Page: page}, err
	}

	// Page 0 fast path: only the head of the local feed is guaranteed to
	// mirror the remote head after the last full refresh.
	if page == 0 && !forceRefresh && len(localSlice) > 0 && cache.Fresh(oldestUpdate(localSlice), cache.RecipeTTL) {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		logger.Debug(ctx).Int("count", len(localSlice)).Msg("Returning cached public recipes")
		return r.localPage(ctx, localSlice, page, pageSize)
	}

	cursor := r.pager.Cursor(feedScope)
	if page > 0 && cursor == nil {
		// Never primed for page 0: an unanchored remote query would return an
		// arbitrary window, so serve the local slice instead.
		logger.Debug(ctx).Int("page", page).Msg("No pagination cursor, using local cache")
		return r.localPage(ctx, localSlice, page, pageSize)
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	docs, next, err := r.remote.Query(ctx, remote.Query{
		Collection: domain.Collection,
		Filters:    []remote.Filter{{Field: "isPublic", Value: true}},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      pageSize,
		StartAfter: cursor,
	})
	if err != nil {
		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Int("page", page).Msg("Remote feed query failed, serving local slice")
		return r.localPage(ctx, localSlice, page, pageSize)
	}
	r.pager.Advance(feedScope, next)

	now := cache.NowMillis()
	items := make([]domain.RecipeWithDetails, 0, len(docs))
	for i := range docs {
		recipe, steps, ingredients := domain.FromDocument(&docs[i])
		recipe.LastUpdated = now
		rating, count := r.fetchRating(ctx, recipe.RecipeID)
		items = append(items, domain.RecipeWithDetails{
			Recipe:        recipe,
			Steps:         steps,
			Ingredients:   ingredients,
			AverageRating: rating,
			ReviewCount:   count,
		})
	}

	hasMore := len(docs) >= pageSize

	// Only the head page replaces the local slice; later pages are served
	// remote-only, exactly like the feed behaves on device.
	if page == 0 || reset {
		if err := r.local.DeleteAllPublicRecipes(ctx); err != nil {
			return cache.Page[domain.RecipeWithDetails]{Page: page}, err
		}
		for i := range items {
			if err := r.local.UpsertRecipe(ctx, &items[i].Recipe); err != nil {
				return cache.Page[domain.RecipeWithDetails]{Page: page}, err
			}
			if err := r.local.UpsertSteps(ctx, items[i].Steps); err != nil {
				return cache.Page[domain.RecipeWithDetails]{Page: page}, err
			}
			if err := r.local.UpsertIngredients(ctx, items[i].Ingredients); err != nil {
				return cache.Page[domain.RecipeWithDetails]{Page: page}, err
			}
		}
	}

	total := len(items)
	if page == 0 {
		if hasMore {
			total += pageSize
		}
	} else {
		if count, err := r.local.CountPublicRecipes(ctx); err == nil {
			total = int(count)
		}
	}

	return cache.Page[domain.RecipeWithDetails]{
		Items:      items,
		HasMore:    hasMore,
		TotalCount: total,
		Page:       page,
	}, nil
}

// UserRecipes implements domain.Repository. The owner's recipes are authored
// on this device, so the local store is authoritative.
func (r *CachedRecipeRepository) UserRecipes(ctx context.Context, userID string) ([]domain.RecipeWithDetails, error) {
	return r.local.GetUserRecipesWithDetails(ctx, userID)
}

// Steps implements domain.Repository. Local rows win; a full remote recipe
// fetch backs an empty local set.
func (r *CachedRecipeRepository) Steps(ctx context.Context, recipeID string) ([]domain.RecipeStep, error) {
	steps, err := r.local.GetSteps(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		return steps, nil
	}

	doc, err := r.remote.Get(ctx, domain.Collection, recipeID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, nil
		}
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Msg("Remote steps fetch failed")
		return steps, nil
	}

	_, remoteSteps, _ := domain.FromDocument(doc)
	if err := r.local.UpsertSteps(ctx, remoteSteps); err != nil {
		return nil, err
	}
	return remoteSteps, nil
}

// DeleteStep implements domain.Repository, renumbering the remaining steps so
// the 1..N ordering stays dense.
func (r *CachedRecipeRepository) DeleteStep(ctx context.Context, recipeID string, stepNumber int) error {
	if err := r.local.DeleteStep(ctx, recipeID, stepNumber); err != nil {
		return err
	}
	return r.local.ShiftStepsAfter(ctx, recipeID, stepNumber)
}

// Delete implements domain.Repository: local cascade first, then best-effort
// remote removal.
func (r *CachedRecipeRepository) Delete(ctx context.Context, recipeID string) error {
	if err := r.local.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, domain.Collection, recipeID); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("recipe_id", recipeID).Msg("Failed to delete remote recipe")
	}
	return nil
}

// mirror pushes the full recipe document to the remote store. Failures are
// logged and dropped; there is no retry queue.
func (r *CachedRecipeRepository) mirror(ctx context.Context, recipe *domain.Recipe, steps []domain.RecipeStep, ingredients []domain.RecipeIngredient) {
	data := domain.ToDocument(recipe, steps, ingredients)
	if err := r.remote.Set(ctx, domain.Collection, recipe.RecipeID, data); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("recipe_id", recipe.RecipeID).Msg("Failed to sync recipe to remote store")
		return
	}
	logger.Debug(ctx).Str("recipe_id", recipe.RecipeID).Msg("Recipe synced to remote store")
}

func (r *CachedRecipeRepository) publishCreated(ctx context.Context, recipe *domain.Recipe) {
	if r.events == nil {
		return
	}
	err := r.events.PublishRecipePublished(ctx, kafka.RecipePublishedEvent{
		RecipeID: recipe.RecipeID,
		UserID:   recipe.UserID,
		Title:    recipe.Title,
		Category: recipe.Category,
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("recipe_id", recipe.RecipeID).Msg("Failed to publish recipe event")
	}
}

// fetchRating aggregates the average rating and review count for a recipe
// from the remote reviews collection. Errors degrade to (0, 0).
func (r *CachedRecipeRepository) fetchRating(ctx context.Context, recipeID string) (float32, int) {
	docs, _, err := r.remote.Query(ctx, remote.Query{
		Collection: reviewsCollection,
		Filters:    []remote.Filter{{Field: "recipeId", Value: recipeID}},
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("recipe_id", recipeID).Msg("Failed to fetch ratings")
		return 0, 0
	}
	if len(docs) == 0 {
		return 0, 0
	}

	var sum float64
	for i := range docs {
		sum += docs[i].Float64("rating")
	}
	return float32(sum / float64(len(docs))), len(docs)
}

func (r *CachedRecipeRepository) localPage(ctx context.Context, slice []domain.RecipeWithDetails, page, pageSize int) (cache.Page[domain.RecipeWithDetails], error) {
	total, err := r.local.CountPublicRecipes(ctx)
	if err != nil {
		return cache.Page[domain.RecipeWithDetails]{Page: page}, fmt.Errorf("failed to count local feed: %w", err)
	}
	return cache.Page[domain.RecipeWithDetails]{
		Items:      slice,
		HasMore:    (page+1)*pageSize < int(total),
		TotalCount: int(total),
		Page:       page,
	}, nil
}

func oldestUpdate(items []domain.RecipeWithDetails) int64 {
	oldest := items[0].Recipe.LastUpdated
	for _, item := range items[1:] {
		if item.Recipe.LastUpdated < oldest {
			oldest = item.Recipe.LastUpdated
		}
	}
	return oldest
}
