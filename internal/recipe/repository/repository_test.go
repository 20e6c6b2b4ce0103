package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/recipe/domain"
	"github.com/feedup/feedup-backend/internal/remote"
)

// fakeRecipeStore is an in-memory domain.LocalStore.
type fakeRecipeStore struct {
	mu          sync.Mutex
	recipes     map[string]domain.Recipe
	steps       map[string][]domain.RecipeStep
	ingredients map[string][]domain.RecipeIngredient
}

func newFakeRecipeStore() *fakeRecipeStore {
	return &fakeRecipeStore{
		recipes:     make(map[string]domain.Recipe),
		steps:       make(map[string][]domain.RecipeStep),
		ingredients: make(map[string][]domain.RecipeIngredient),
	}
}

func (f *fakeRecipeStore) UpsertRecipe(_ context.Context, recipe *domain.Recipe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipes[recipe.RecipeID] = *recipe
	return nil
}

func (f *fakeRecipeStore) UpsertSteps(_ context.Context, steps []domain.RecipeStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, step := range steps {
		existing := f.steps[step.RecipeID]
		replaced := false
		for i := range existing {
			if existing[i].StepNumber == step.StepNumber {
				existing[i] = step
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, step)
		}
		sort.Slice(existing, func(i, j int) bool { return existing[i].StepNumber < existing[j].StepNumber })
		f.steps[step.RecipeID] = existing
	}
	return nil
}

func (f *fakeRecipeStore) UpsertIngredients(_ context.Context, ingredients []domain.RecipeIngredient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ing := range ingredients {
		existing := f.ingredients[ing.RecipeID]
		replaced := false
		for i := range existing {
			if existing[i].Name == ing.Name {
				existing[i] = ing
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, ing)
		}
		f.ingredients[ing.RecipeID] = existing
	}
	return nil
}

func (f *fakeRecipeStore) GetRecipe(_ context.Context, recipeID string) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipe, ok := f.recipes[recipeID]
	if !ok {
		return nil, nil
	}
	return &recipe, nil
}

func (f *fakeRecipeStore) GetRecipeWithDetails(_ context.Context, recipeID string) (*domain.RecipeWithDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipe, ok := f.recipes[recipeID]
	if !ok {
		return nil, nil
	}
	return &domain.RecipeWithDetails{
		Recipe:      recipe,
		Steps:       append([]domain.RecipeStep(nil), f.steps[recipeID]...),
		Ingredients: append([]domain.RecipeIngredient(nil), f.ingredients[recipeID]...),
	}, nil
}

func (f *fakeRecipeStore) publicSorted() []domain.Recipe {
	var public []domain.Recipe
	for _, recipe := range f.recipes {
		if recipe.IsPublic {
			public = append(public, recipe)
		}
	}
	sort.Slice(public, func(i, j int) bool { return public[i].CreatedAt > public[j].CreatedAt })
	return public
}

func (f *fakeRecipeStore) GetPublicRecipesWithDetails(_ context.Context, limit, offset int) ([]domain.RecipeWithDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	public := f.publicSorted()
	if offset >= len(public) {
		return nil, nil
	}
	public = public[offset:]
	if limit > 0 && len(public) > limit {
		public = public[:limit]
	}
	out := make([]domain.RecipeWithDetails, 0, len(public))
	for _, recipe := range public {
		out = append(out, domain.RecipeWithDetails{
			Recipe:      recipe,
			Steps:       append([]domain.RecipeStep(nil), f.steps[recipe.RecipeID]...),
			Ingredients: append([]domain.RecipeIngredient(nil), f.ingredients[recipe.RecipeID]...),
		})
	}
	return out, nil
}

func (f *fakeRecipeStore) GetUserRecipesWithDetails(_ context.Context, userID string) ([]domain.RecipeWithDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RecipeWithDetails
	for _, recipe := range f.recipes {
		if recipe.UserID == userID {
			out = append(out, domain.RecipeWithDetails{Recipe: recipe})
		}
	}
	return out, nil
}

func (f *fakeRecipeStore) CountPublicRecipes(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.publicSorted())), nil
}

func (f *fakeRecipeStore) GetSteps(_ context.Context, recipeID string) ([]domain.RecipeStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RecipeStep(nil), f.steps[recipeID]...), nil
}

func (f *fakeRecipeStore) DeleteStep(_ context.Context, recipeID string, stepNumber int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	steps := f.steps[recipeID]
	out := steps[:0]
	for _, step := range steps {
		if step.StepNumber != stepNumber {
			out = append(out, step)
		}
	}
	f.steps[recipeID] = out
	return nil
}

func (f *fakeRecipeStore) ShiftStepsAfter(_ context.Context, recipeID string, deletedStepNumber int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	steps := f.steps[recipeID]
	for i := range steps {
		if steps[i].StepNumber > deletedStepNumber {
			steps[i].StepNumber--
		}
	}
	return nil
}

func (f *fakeRecipeStore) DeleteRecipe(_ context.Context, recipeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recipes, recipeID)
	delete(f.steps, recipeID)
	delete(f.ingredients, recipeID)
	return nil
}

func (f *fakeRecipeStore) DeleteAllPublicRecipes(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, recipe := range f.recipes {
		if recipe.IsPublic {
			delete(f.recipes, id)
			delete(f.steps, id)
			delete(f.ingredients, id)
		}
	}
	return nil
}

// countingStore wraps a remote.Store, counting calls per collection and
// optionally failing everything.
type countingStore struct {
	remote.Store
	mu         sync.Mutex
	getCalls   int
	queryCalls map[string]int
	setCalls   int
	failAll    bool
}

func (c *countingStore) queries(collection string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryCalls[collection]
}

var errRemoteDown = errors.New("remote store unreachable")

func (c *countingStore) Get(ctx context.Context, collection, id string) (*remote.Document, error) {
	c.mu.Lock()
	c.getCalls++
	fail := c.failAll
	c.mu.Unlock()
	if fail {
		return nil, errRemoteDown
	}
	return c.Store.Get(ctx, collection, id)
}

func (c *countingStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	c.mu.Lock()
	c.setCalls++
	fail := c.failAll
	c.mu.Unlock()
	if fail {
		return errRemoteDown
	}
	return c.Store.Set(ctx, collection, id, data)
}

func (c *countingStore) Delete(ctx context.Context, collection, id string) error {
	c.mu.Lock()
	fail := c.failAll
	c.mu.Unlock()
	if fail {
		return errRemoteDown
	}
	return c.Store.Delete(ctx, collection, id)
}

func (c *countingStore) Query(ctx context.Context, q remote.Query) ([]remote.Document, *remote.Cursor, error) {
	c.mu.Lock()
	if c.queryCalls == nil {
		c.queryCalls = make(map[string]int)
	}
	c.queryCalls[q.Collection]++
	fail := c.failAll
	c.mu.Unlock()
	if fail {
		return nil, nil, errRemoteDown
	}
	return c.Store.Query(ctx, q)
}

func newTestRepo() (*CachedRecipeRepository, *fakeRecipeStore, *countingStore) {
	local := newFakeRecipeStore()
	counting := &countingStore{Store: remote.NewMemoryStore()}
	return NewCachedRecipeRepository(local, counting, nil), local, counting
}

func testRecipe(id string, public bool, createdAt int64) *domain.Recipe {
	return &domain.Recipe{
		RecipeID:    id,
		UserID:      "author",
		Title:       "Recipe " + id,
		IsPublic:    public,
		CreatedAt:   createdAt,
		LastUpdated: cache.NowMillis(),
	}
}

func staleMillis() int64 {
	return time.Now().Add(-7 * time.Hour).UnixMilli()
}

func TestCreateGeneratesIDAndMirrorsPublic(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, &domain.Recipe{Title: "Pho", IsPublic: true}, []domain.RecipeStep{
		{StepNumber: 1, Instruction: "Simmer broth"},
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := local.GetRecipe(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, cache.Fresh(stored.LastUpdated, cache.RecipeTTL))

	doc, err := counting.Store.Get(ctx, domain.Collection, id)
	require.NoError(t, err)
	assert.Equal(t, "Pho", doc.String("title"))
}

func TestCreatePrivateRecipeStaysLocal(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, &domain.Recipe{Title: "Secret sauce"}, nil, nil)
	require.NoError(t, err)

	stored, err := local.GetRecipe(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, 0, counting.setCalls)
	_, err = counting.Store.Get(ctx, domain.Collection, id)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestCreateSucceedsWhenMirrorFails(t *testing.T) {
	repo, local, counting := newTestRepo()
	counting.failAll = true
	ctx := context.Background()

	id, err := repo.Create(ctx, &domain.Recipe{Title: "Pho", IsPublic: true}, nil, nil)
	require.NoError(t, err)

	stored, err := local.GetRecipe(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestGetWithDetailsFreshCacheSkipsRemote(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	require.NoError(t, local.UpsertRecipe(ctx, testRecipe("r1", true, 1000)))

	details, err := repo.GetWithDetails(ctx, "r1", false)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Recipe r1", details.Recipe.Title)
	assert.Equal(t, 0, counting.getCalls)
}

func TestGetWithDetailsStaleRefetchesAndRestamps(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	stale := testRecipe("r1", true, 1000)
	stale.Title = "Old title"
	stale.LastUpdated = staleMillis()
	require.NoError(t, local.UpsertRecipe(ctx, stale))

	fresh := testRecipe("r1", true, 1000)
	fresh.Title = "New title"
	require.NoError(t, counting.Store.Set(ctx, domain.Collection, "r1", domain.ToDocument(fresh, nil, nil)))

	details, err := repo.GetWithDetails(ctx, "r1", false)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "New title", details.Recipe.Title)
	assert.Equal(t, 1, counting.getCalls)

	stored, err := local.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "New title", stored.Title)
	assert.True(t, cache.Fresh(stored.LastUpdated, cache.RecipeTTL))
}

func TestGetWithDetailsForceRefreshBypassesFreshCache(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	recipe := testRecipe("r1", true, 1000)
	require.NoError(t, local.UpsertRecipe(ctx, recipe))
	require.NoError(t, counting.Store.Set(ctx, domain.Collection, "r1", domain.ToDocument(recipe, nil, nil)))

	_, err := repo.GetWithDetails(ctx, "r1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.getCalls)
}

func TestGetWithDetailsAuthoritativeAbsenceDeletesLocal(t *testing.T) {
	repo, local, _ := newTestRepo()
	ctx := context.Background()

	stale := testRecipe("r1", true, 1000)
	stale.LastUpdated = staleMillis()
	require.NoError(t, local.UpsertRecipe(ctx, stale))

	details, err := repo.GetWithDetails(ctx, "r1", false)
	require.NoError(t, err)
	assert.Nil(t, details)

	stored, err := local.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestGetWithDetailsRemoteErrorServesStale(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	stale := testRecipe("r1", true, 1000)
	stale.LastUpdated = staleMillis()
	require.NoError(t, local.UpsertRecipe(ctx, stale))
	counting.failAll = true

	details, err := repo.GetWithDetails(ctx, "r1", false)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Recipe r1", details.Recipe.Title)

	// The stale copy survives: absence was not confirmed.
	stored, err := local.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestGetWithDetailsMissingEverywhere(t *testing.T) {
	repo, _, _ := newTestRepo()

	details, err := repo.GetWithDetails(context.Background(), "ghost", false)
	require.NoError(t, err)
	assert.Nil(t, details)
}

func seedRemoteFeed(t *testing.T, store remote.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		recipe := testRecipe(feedID(i), true, int64(i*1000))
		require.NoError(t, store.Set(ctx, domain.Collection, recipe.RecipeID, domain.ToDocument(recipe, nil, nil)))
	}
}

func feedID(i int) string {
	return string(rune('a'+i-1)) + "-recipe"
}

func TestPublicFeedPage0FastPath(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, local.UpsertRecipe(ctx, testRecipe(feedID(i), true, int64(i*1000))))
	}

	result, err := repo.PublicFeed(ctx, 0, 10, false, false)
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
	assert.False(t, result.HasMore)
	assert.Equal(t, 0, counting.queries(domain.Collection))
}

func TestPublicFeedStaleHeadGoesRemote(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	stale := testRecipe("old", true, 1000)
	stale.LastUpdated = staleMillis()
	require.NoError(t, local.UpsertRecipe(ctx, stale))
	seedRemoteFeed(t, counting.Store, 2)

	result, err := repo.PublicFeed(ctx, 0, 10, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.queries(domain.Collection))
	assert.Len(t, result.Items, 2)

	// Page 0 replaced the local head, including the vanished recipe.
	stored, err := local.GetRecipe(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPublicFeedRefreshDropsDetailsOfEvictedRecipes(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	gone := testRecipe("gone", true, 1000)
	gone.LastUpdated = staleMillis()
	require.NoError(t, local.UpsertRecipe(ctx, gone))
	require.NoError(t, local.UpsertSteps(ctx, []domain.RecipeStep{
		{RecipeID: "gone", StepNumber: 1, Instruction: "preheat oven"},
	}))
	require.NoError(t, local.UpsertIngredients(ctx, []domain.RecipeIngredient{
		{RecipeID: "gone", Name: "flour"},
	}))
	seedRemoteFeed(t, counting.Store, 2)

	_, err := repo.PublicFeed(ctx, 0, 10, false, false)
	require.NoError(t, err)

	// The feed replacement must not leave orphaned steps or ingredients
	// behind: a later Steps() for the evicted recipe would serve them as
	// live data.
	steps, err := local.GetSteps(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, steps)
	details, err := local.GetRecipeWithDetails(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestPublicFeedCursorPagination(t *testing.T) {
	repo, _, counting := newTestRepo()
	ctx := context.Background()
	seedRemoteFeed(t, counting.Store, 7)

	seen := make(map[string]bool)

	page0, err := repo.PublicFeed(ctx, 0, 3, true, false)
	require.NoError(t, err)
	require.Len(t, page0.Items, 3)
	assert.True(t, page0.HasMore)
	assert.Equal(t, 6, page0.TotalCount)

	page1, err := repo.PublicFeed(ctx, 1, 3, true, false)
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	assert.True(t, page1.HasMore)

	page2, err := repo.PublicFeed(ctx, 2, 3, true, false)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.False(t, page2.HasMore)

	for _, page := range []cache.Page[domain.RecipeWithDetails]{page0, page1, page2} {
		for _, item := range page.Items {
			assert.False(t, seen[item.Recipe.RecipeID], "recipe %s returned twice", item.Recipe.RecipeID)
			seen[item.Recipe.RecipeID] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestPublicFeedNewestFirst(t *testing.T) {
	repo, _, counting := newTestRepo()
	ctx := context.Background()
	seedRemoteFeed(t, counting.Store, 3)

	result, err := repo.PublicFeed(ctx, 0, 10, true, false)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, feedID(3), result.Items[0].Recipe.RecipeID)
	assert.Equal(t, feedID(1), result.Items[2].Recipe.RecipeID)
}

func TestPublicFeedLaterPageWithoutCursorUsesLocal(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, local.UpsertRecipe(ctx, testRecipe(feedID(i), true, int64(i*1000))))
	}

	result, err := repo.PublicFeed(ctx, 1, 2, false, false)
	require.NoError(t, err)
	assert.Equal(t, 0, counting.queries(domain.Collection))
	assert.Len(t, result.Items, 2)
	assert.True(t, result.HasMore)
	assert.Equal(t, 5, result.TotalCount)
}

func TestPublicFeedRemoteErrorServesLocalSlice(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	stale := testRecipe("r1", true, 1000)
	stale.LastUpdated = staleMillis()
	require.NoError(t, local.UpsertRecipe(ctx, stale))
	counting.failAll = true

	result, err := repo.PublicFeed(ctx, 0, 10, false, false)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "r1", result.Items[0].Recipe.RecipeID)
}

func TestDeleteStepRenumbers(t *testing.T) {
	repo, local, _ := newTestRepo()
	ctx := context.Background()

	steps := make([]domain.RecipeStep, 0, 5)
	for i := 1; i <= 5; i++ {
		steps = append(steps, domain.RecipeStep{
			RecipeID:    "r1",
			StepNumber:  i,
			Instruction: []string{"chop", "mix", "simmer", "season", "serve"}[i-1],
		})
	}
	require.NoError(t, local.UpsertSteps(ctx, steps))

	require.NoError(t, repo.DeleteStep(ctx, "r1", 3))

	remaining, err := local.GetSteps(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, remaining, 4)
	for i, step := range remaining {
		assert.Equal(t, i+1, step.StepNumber)
	}
	assert.Equal(t, []string{"chop", "mix", "season", "serve"}, []string{
		remaining[0].Instruction, remaining[1].Instruction, remaining[2].Instruction, remaining[3].Instruction,
	})
}

func TestStepsFallBackToRemote(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	recipe := testRecipe("r1", true, 1000)
	require.NoError(t, counting.Store.Set(ctx, domain.Collection, "r1", domain.ToDocument(recipe, []domain.RecipeStep{
		{RecipeID: "r1", StepNumber: 1, Instruction: "boil water"},
	}, nil)))

	steps, err := repo.Steps(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "boil water", steps[0].Instruction)

	// Backfilled locally.
	localSteps, err := local.GetSteps(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, localSteps, 1)
}

func TestDeleteRemovesLocalAndRemote(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	recipe := testRecipe("r1", true, 1000)
	require.NoError(t, local.UpsertRecipe(ctx, recipe))
	require.NoError(t, counting.Store.Set(ctx, domain.Collection, "r1", domain.ToDocument(recipe, nil, nil)))

	require.NoError(t, repo.Delete(ctx, "r1"))

	stored, err := local.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, stored)
	_, err = counting.Store.Get(ctx, domain.Collection, "r1")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestDeleteSucceedsWhenRemoteFails(t *testing.T) {
	repo, local, counting := newTestRepo()
	ctx := context.Background()

	require.NoError(t, local.UpsertRecipe(ctx, testRecipe("r1", true, 1000)))
	counting.failAll = true

	require.NoError(t, repo.Delete(ctx, "r1"))

	stored, err := local.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}
