package repository

import (
	"context"
	"errors"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/profile/domain"
	"github.com/feedup/feedup-backend/internal/remote"
	"github.com/feedup/feedup-backend/pkg/logger"
	"github.com/feedup/feedup-backend/pkg/metrics"
)

const entity = "profile"

// CachedProfileRepository implements domain.Repository. Profiles change
// rarely, so they carry the long 24h TTL.
type CachedProfileRepository struct {
	local  domain.LocalStore
	remote remote.Store
}

// NewCachedProfileRepository creates the cached profile repository.
func NewCachedProfileRepository(local domain.LocalStore, remoteStore remote.Store) *CachedProfileRepository {
	return &CachedProfileRepository{
		local:  local,
		remote: remoteStore,
	}
}

// Get implements domain.Repository.
func (r *CachedProfileRepository) Get(ctx context.Context, userID string, forceRefresh bool) (*domain.UserProfile, error) {
	candidate, err := r.local.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if candidate != nil && cache.Fresh(candidate.LastUpdated, cache.ProfileTTL) && !forceRefresh {
		metrics.CacheHits.WithLabelValues(entity).Inc()
		logger.Debug(ctx).Str("user_id", userID).Msg("Returning cached profile")
		return candidate, nil
	}

	metrics.CacheMisses.WithLabelValues(entity).Inc()
	doc, err := r.remote.Get(ctx, domain.Collection, userID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			if candidate != nil {
				if err := r.local.DeleteProfile(ctx, userID); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}

		metrics.StaleFallbacks.WithLabelValues(entity).Inc()
		logger.Warn(ctx).Err(err).Str("user_id", userID).Msg("Remote profile fetch failed, serving local copy")
		return candidate, nil
	}

	profile := domain.FromDocument(doc)
	profile.LastUpdated = cache.NowMillis()
	if err := r.local.UpsertProfile(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save implements domain.Repository.
func (r *CachedProfileRepository) Save(ctx context.Context, profile *domain.UserProfile) error {
	now := cache.NowMillis()
	profile.LastUpdated = now
	if profile.CreatedAt == 0 {
		profile.CreatedAt = now
	}

	if err := r.local.UpsertProfile(ctx, profile); err != nil {
		return err
	}

	if err := r.remote.Set(ctx, domain.Collection, profile.UserID, profile.ToDocument()); err != nil {
		metrics.MirrorFailures.WithLabelValues(entity).Inc()
		logger.Error(ctx).Err(err).Str("user_id", profile.UserID).Msg("Failed to sync profile to remote store")
	}
	return nil
}

// CreateInitial implements domain.Repository.
func (r *CachedProfileRepository) CreateInitial(ctx context.Context, userID, username, email string) (*domain.UserProfile, error) {
	existing, err := r.Get(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	profile := &domain.UserProfile{
		UserID:   userID,
		Username: username,
		Email:    email,
	}
	if err := r.Save(ctx, profile); err != nil {
		return nil, err
	}
	logger.Info(ctx).Str("user_id", userID).Msg("Initial profile created")
	return profile, nil
}

// ClearCache implements domain.Repository.
func (r *CachedProfileRepository) ClearCache(ctx context.Context, userID string) error {
	return r.local.DeleteProfile(ctx, userID)
}
