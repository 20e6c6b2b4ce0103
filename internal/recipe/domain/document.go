package domain

import "github.com/feedup/feedup-backend/internal/remote"

// ToDocument builds the full remote payload for a recipe: the recipe fields
// at the top level plus embedded steps and ingredients.
func ToDocument(recipe *Recipe, steps []RecipeStep, ingredients []RecipeIngredient) map[string]any {
	equipments := make([]map[string]any, len(recipe.Equipments))
	for i, e := range recipe.Equipments {
		equipments[i] = map[string]any{"name": e.Name, "imageUrl": e.ImageURL}
	}

	stepMaps := make([]map[string]any, len(steps))
	for i, s := range steps {
		stepMaps[i] = map[string]any{
			"stepNumber":           s.StepNumber,
			"instruction":          s.Instruction,
			"hasTimer":             s.HasTimer,
			"timerDurationMinutes": s.TimerDurationMinutes,
			"timerLabel":           s.TimerLabel,
		}
	}

	ingredientMaps := make([]map[string]any, len(ingredients))
	for i, ing := range ingredients {
		ingredientMaps[i] = map[string]any{
			"name":       ing.Name,
			"imageUrl":   ing.ImageURL,
			"quantity":   ing.Quantity,
			"isOptional": ing.IsOptional,
		}
	}

	return map[string]any{
		"recipeId":    recipe.RecipeID,
		"userId":      recipe.UserID,
		"title":       recipe.Title,
		"description": recipe.Description,
		"servings":    recipe.Servings,
		"cookingTime": recipe.CookingTime,
		"difficulty":  recipe.Difficulty,
		"cost":        recipe.Cost,
		"category":    recipe.Category,
		"origin":      recipe.Origin,
		"allergens":   recipe.Allergens,
		"dietTags":    recipe.DietTags,
		"equipments":  equipments,
		"imageUrl":    recipe.ImageURL,
		"videoUrl":    recipe.VideoURL,
		"isPublic":    recipe.IsPublic,
		"lastUpdated": recipe.LastUpdated,
		"createdAt":   recipe.CreatedAt,
	}
}

// FromDocument parses a remote recipe document into the local shapes. Missing
// fields fall back to zero values; the document id backs a missing recipe id.
func FromDocument(doc *remote.Document) (Recipe, []RecipeStep, []RecipeIngredient) {
	var equipments []Equipment
	for _, m := range doc.Maps("equipments") {
		e := remote.Document{Data: m}
		equipments = append(equipments, Equipment{
			Name:     e.String("name"),
			ImageURL: e.String("imageUrl"),
		})
	}

	recipeID := doc.String("recipeId")
	if recipeID == "" {
		recipeID = doc.ID
	}

	recipe := Recipe{
		RecipeID:    recipeID,
		UserID:      doc.String("userId"),
		Title:       doc.String("title"),
		Description: doc.String("description"),
		Servings:    doc.Int("servings"),
		CookingTime: doc.Int("cookingTime"),
		Difficulty:  doc.String("difficulty"),
		Cost:        doc.String("cost"),
		Category:    doc.String("category"),
		Origin:      doc.String("origin"),
		Allergens:   doc.Strings("allergens"),
		DietTags:    doc.Strings("dietTags"),
		Equipments:  equipments,
		ImageURL:    doc.String("imageUrl"),
		VideoURL:    doc.String("videoUrl"),
		IsPublic:    doc.Bool("isPublic"),
		LastUpdated: doc.Int64("lastUpdated"),
		CreatedAt:   doc.Int64("createdAt"),
	}

	var steps []RecipeStep
	for i, m := range doc.Maps("steps") {
		s := remote.Document{Data: m}
		number := s.Int("stepNumber")
		if number == 0 {
			number = i + 1
		}
		steps = append(steps, RecipeStep{
			RecipeID:             recipeID,
			StepNumber:           number,
			Instruction:          s.String("instruction"),
			HasTimer:             s.Bool("hasTimer"),
			TimerDurationMinutes: s.Int("timerDurationMinutes"),
			TimerLabel:           s.String("timerLabel"),
		})
	}

	var ingredients []RecipeIngredient
	for _, m := range doc.Maps("ingredients") {
		ing := remote.Document{Data: m}
		ingredients = append(ingredients, RecipeIngredient{
			RecipeID:   recipeID,
			Name:       ing.String("name"),
			ImageURL:   ing.String("imageUrl"),
			Quantity:   ing.String("quantity"),
			IsOptional: ing.Bool("isOptional"),
		})
	}

	return recipe, steps, ingredients
}
