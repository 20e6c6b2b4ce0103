package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/profile/domain"
	"github.com/feedup/feedup-backend/internal/remote"
)

// fakeProfileStore is an in-memory domain.LocalStore.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]domain.UserProfile)}
}

func (f *fakeProfileStore) UpsertProfile(_ context.Context, profile *domain.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.UserID] = *profile
	return nil
}

func (f *fakeProfileStore) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (f *fakeProfileStore) DeleteProfile(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, userID)
	return nil
}

// failingStore makes every remote call fail.
type failingStore struct{}

var errRemoteDown = errors.New("remote store unreachable")

func (failingStore) Get(context.Context, string, string) (*remote.Document, error) {
	return nil, errRemoteDown
}
func (failingStore) Set(context.Context, string, string, map[string]any) error {
	return errRemoteDown
}
func (failingStore) Delete(context.Context, string, string) error { return errRemoteDown }
func (failingStore) Query(context.Context, remote.Query) ([]remote.Document, *remote.Cursor, error) {
	return nil, nil, errRemoteDown
}

func newTestRepo() (*CachedProfileRepository, *fakeProfileStore, *remote.MemoryStore) {
	local := newFakeProfileStore()
	store := remote.NewMemoryStore()
	return NewCachedProfileRepository(local, store), local, store
}

func TestGetFreshWithinDayLongTTL(t *testing.T) {
	local := newFakeProfileStore()
	// A failing remote proves the hit never leaves the cache.
	repo := NewCachedProfileRepository(local, failingStore{})
	ctx := context.Background()

	// Ten hours stale: far past the 6h entity TTLs, still inside the 24h one.
	require.NoError(t, local.UpsertProfile(ctx, &domain.UserProfile{
		UserID:      "u1",
		Username:    "alice",
		LastUpdated: time.Now().Add(-10 * time.Hour).UnixMilli(),
	}))

	profile, err := repo.Get(ctx, "u1", false)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "alice", profile.Username)
}

func TestGetStaleRefetchesAndRestamps(t *testing.T) {
	repo, local, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, local.UpsertProfile(ctx, &domain.UserProfile{
		UserID:      "u1",
		Username:    "old-name",
		LastUpdated: time.Now().Add(-25 * time.Hour).UnixMilli(),
	}))
	require.NoError(t, store.Set(ctx, domain.Collection, "u1", map[string]any{
		"userId":   "u1",
		"username": "new-name",
	}))

	profile, err := repo.Get(ctx, "u1", false)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "new-name", profile.Username)

	stored, err := local.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cache.Fresh(stored.LastUpdated, cache.ProfileTTL))
}

func TestGetAuthoritativeAbsenceDeletesLocal(t *testing.T) {
	repo, local, _ := newTestRepo()
	ctx := context.Background()

	require.NoError(t, local.UpsertProfile(ctx, &domain.UserProfile{
		UserID:      "u1",
		Username:    "alice",
		LastUpdated: time.Now().Add(-25 * time.Hour).UnixMilli(),
	}))

	profile, err := repo.Get(ctx, "u1", false)
	require.NoError(t, err)
	assert.Nil(t, profile)

	stored, err := local.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestGetRemoteErrorServesStale(t *testing.T) {
	local := newFakeProfileStore()
	repo := NewCachedProfileRepository(local, failingStore{})
	ctx := context.Background()

	require.NoError(t, local.UpsertProfile(ctx, &domain.UserProfile{
		UserID:      "u1",
		Username:    "alice",
		LastUpdated: time.Now().Add(-25 * time.Hour).UnixMilli(),
	}))

	profile, err := repo.Get(ctx, "u1", false)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "alice", profile.Username)
}

func TestGetForceRefresh(t *testing.T) {
	repo, local, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, local.UpsertProfile(ctx, &domain.UserProfile{
		UserID:      "u1",
		Username:    "cached",
		LastUpdated: cache.NowMillis(),
	}))
	require.NoError(t, store.Set(ctx, domain.Collection, "u1", map[string]any{
		"userId":   "u1",
		"username": "remote",
	}))

	profile, err := repo.Get(ctx, "u1", true)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "remote", profile.Username)
}

func TestSaveWritesThroughAndStamps(t *testing.T) {
	repo, local, store := newTestRepo()
	ctx := context.Background()

	profile := &domain.UserProfile{UserID: "u1", Username: "alice", Email: "a@example.com"}
	require.NoError(t, repo.Save(ctx, profile))
	assert.NotZero(t, profile.CreatedAt)
	assert.True(t, cache.Fresh(profile.LastUpdated, cache.ProfileTTL))

	stored, err := local.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	doc, err := store.Get(ctx, domain.Collection, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.String("username"))
}

func TestSaveMirrorsDietaryFields(t *testing.T) {
	repo, _, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.UserProfile{
		UserID:             "u1",
		Username:           "alice",
		DietaryPreferences: "vegan",
		Allergies:          []string{"peanuts", "shellfish"},
		Goals:              []string{"eat more greens"},
		IsProfileComplete:  true,
	}))

	doc, err := store.Get(ctx, domain.Collection, "u1")
	require.NoError(t, err)
	assert.Equal(t, "vegan", doc.String("dietaryPreferences"))
	assert.Equal(t, []string{"peanuts", "shellfish"}, doc.Strings("allergies"))
	assert.Equal(t, []string{"eat more greens"}, doc.Strings("goals"))
	assert.True(t, doc.Bool("isProfileComplete"))
	// Other devices reconcile freshness against the mirrored stamp.
	assert.NotZero(t, doc.Int64("lastUpdated"))
}

func TestGetParsesDietaryFields(t *testing.T) {
	repo, _, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.Collection, "u1", map[string]any{
		"userId":             "u1",
		"username":           "alice",
		"dietaryPreferences": "vegetarian",
		"allergies":          []string{"gluten"},
		"goals":              []string{"meal prep", "less sugar"},
		"isProfileComplete":  true,
	}))

	profile, err := repo.Get(ctx, "u1", false)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "vegetarian", profile.DietaryPreferences)
	assert.Equal(t, []string{"gluten"}, profile.Allergies)
	assert.Equal(t, []string{"meal prep", "less sugar"}, profile.Goals)
	assert.True(t, profile.IsProfileComplete)
}

func TestSaveSucceedsWhenMirrorFails(t *testing.T) {
	local := newFakeProfileStore()
	repo := NewCachedProfileRepository(local, failingStore{})
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.UserProfile{UserID: "u1", Username: "alice"}))

	stored, err := local.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestCreateInitial(t *testing.T) {
	repo, _, store := newTestRepo()
	ctx := context.Background()

	profile, err := repo.CreateInitial(ctx, "u1", "alice", "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "alice", profile.Username)

	doc, err := store.Get(ctx, domain.Collection, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.String("username"))
}

func TestCreateInitialKeepsExistingProfile(t *testing.T) {
	repo, _, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.Collection, "u1", map[string]any{
		"userId":   "u1",
		"username": "original",
	}))

	profile, err := repo.CreateInitial(ctx, "u1", "imposter", "x@example.com")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "original", profile.Username)
}

func TestClearCache(t *testing.T) {
	repo, local, _ := newTestRepo()
	ctx := context.Background()

	require.NoError(t, local.UpsertProfile(ctx, &domain.UserProfile{
		UserID: "u1", Username: "alice", LastUpdated: cache.NowMillis(),
	}))

	require.NoError(t, repo.ClearCache(ctx, "u1"))

	stored, err := local.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}
