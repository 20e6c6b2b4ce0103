package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/feedup/feedup-backend/internal/cache"
	"github.com/feedup/feedup-backend/internal/recipe/domain"
)

var tracer = otel.Tracer("recipe-repository")

// TracingRecipeRepository wraps a recipe repository with tracing spans.
type TracingRecipeRepository struct {
	inner domain.Repository
}

// NewTracingRecipeRepository creates a new repository with tracing.
func NewTracingRecipeRepository(inner domain.Repository) *TracingRecipeRepository {
	return &TracingRecipeRepository{inner: inner}
}

// Create with tracing
func (r *TracingRecipeRepository) Create(ctx context.Context, recipe *domain.Recipe, steps []domain.RecipeStep, ingredients []domain.RecipeIngredient) (string, error) {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("recipe.title", recipe.Title),
			attribute.Bool("recipe.public", recipe.IsPublic),
			attribute.Int("recipe.steps", len(steps)),
		),
	)
	defer span.End()

	id, err := r.inner.Create(ctx, recipe, steps, ingredients)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("recipe.id", id))
	return id, nil
}

// GetWithDetails with tracing
func (r *TracingRecipeRepository) GetWithDetails(ctx context.Context, recipeID string, forceRefresh bool) (*domain.RecipeWithDetails, error) {
	ctx, span := tracer.Start(ctx, "repository.GetWithDetails",
		trace.WithAttributes(
			attribute.String("recipe.id", recipeID),
			attribute.Bool("query.force_refresh", forceRefresh),
		),
	)
	defer span.End()

	details, err := r.inner.GetWithDetails(ctx, recipeID, forceRefresh)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Bool("result.found", details != nil))
	return details, nil
}

// PublicFeed with tracing
func (r *TracingRecipeRepository) PublicFeed(ctx context.Context, page, pageSize int, forceRefresh, reset bool) (cache.Page[domain.RecipeWithDetails], error) {
	ctx, span := tracer.Start(ctx, "repository.PublicFeed",
		trace.WithAttributes(
			attribute.Int("query.page", page),
			attribute.Int("query.page_size", pageSize),
			attribute.Bool("query.force_refresh", forceRefresh),
		),
	)
	defer span.End()

	result, err := r.inner.PublicFeed(ctx, page, pageSize, forceRefresh, reset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(result.Items)),
		attribute.Bool("result.has_more", result.HasMore),
	)
	return result, nil
}

// UserRecipes with tracing
func (r *TracingRecipeRepository) UserRecipes(ctx context.Context, userID string) ([]domain.RecipeWithDetails, error) {
	ctx, span := tracer.Start(ctx, "repository.UserRecipes",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	recipes, err := r.inner.UserRecipes(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(recipes)))
	return recipes, nil
}

// Steps with tracing
func (r *TracingRecipeRepository) Steps(ctx context.Context, recipeID string) ([]domain.RecipeStep, error) {
	ctx, span := tracer.Start(ctx, "repository.Steps",
		trace.WithAttributes(attribute.String("recipe.id", recipeID)),
	)
	defer span.End()

	steps, err := r.inner.Steps(ctx, recipeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(steps)))
	return steps, nil
}

// DeleteStep with tracing
func (r *TracingRecipeRepository) DeleteStep(ctx context.Context, recipeID string, stepNumber int) error {
	ctx, span := tracer.Start(ctx, "repository.DeleteStep",
		trace.WithAttributes(
			attribute.String("recipe.id", recipeID),
			attribute.Int("step.number", stepNumber),
		),
	)
	defer span.End()

	if err := r.inner.DeleteStep(ctx, recipeID, stepNumber); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Delete with tracing
func (r *TracingRecipeRepository) Delete(ctx context.Context, recipeID string) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(attribute.String("recipe.id", recipeID)),
	)
	defer span.End()

	if err := r.inner.Delete(ctx, recipeID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
