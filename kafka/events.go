package kafka

import "time"

// RecipePublishedEvent is emitted when a public recipe is created or updated.
type RecipePublishedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// ReviewSubmittedEvent is emitted when a review is created or overwritten.
type ReviewSubmittedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	Rating    float32   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeRecipePublished = "recipe.published"
	EventTypeReviewSubmitted = "review.submitted"
)

// Kafka topics
const (
	TopicRecipePublished = "recipe-published"
	TopicReviewSubmitted = "review-submitted"
)
