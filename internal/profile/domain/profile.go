package domain

import (
	"context"

	"github.com/feedup/feedup-backend/internal/remote"
)

// Collection is the remote document collection holding user profiles, keyed
// by user id.
const Collection = "users"

// UserProfile is a user's public profile. LastUpdated is the freshness
// timestamp; profiles tolerate a day of staleness.
type UserProfile struct {
	UserID          string `json:"userId" gorm:"primaryKey"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl"`

	// Dietary preference is a single category (vegetarian, vegan, ...);
	// allergies and goals are free-form lists.
	DietaryPreferences string   `json:"dietaryPreferences"`
	Allergies          []string `json:"allergies" gorm:"serializer:json"`
	Goals              []string `json:"goals" gorm:"serializer:json"`

	IsProfileComplete bool `json:"isProfileComplete"`

	CreatedAt   int64 `json:"createdAt" gorm:"autoCreateTime:false"`
	LastUpdated int64 `json:"lastUpdated"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// ToDocument builds the remote payload for a profile.
func (p *UserProfile) ToDocument() map[string]any {
	return map[string]any{
		"userId":             p.UserID,
		"username":           p.Username,
		"email":              p.Email,
		"profileImageUrl":    p.ProfileImageURL,
		"dietaryPreferences": p.DietaryPreferences,
		"allergies":          p.Allergies,
		"goals":              p.Goals,
		"isProfileComplete":  p.IsProfileComplete,
		"createdAt":          p.CreatedAt,
		"lastUpdated":        p.LastUpdated,
	}
}

// FromDocument parses a remote profile document. The document id backs a
// missing userId field.
func FromDocument(doc *remote.Document) UserProfile {
	profile := UserProfile{
		UserID:             doc.String("userId"),
		Username:           doc.String("username"),
		Email:              doc.String("email"),
		ProfileImageURL:    doc.String("profileImageUrl"),
		DietaryPreferences: doc.String("dietaryPreferences"),
		Allergies:          doc.Strings("allergies"),
		Goals:              doc.Strings("goals"),
		IsProfileComplete:  doc.Bool("isProfileComplete"),
		CreatedAt:          doc.Int64("createdAt"),
		LastUpdated:        doc.Int64("lastUpdated"),
	}
	if profile.UserID == "" {
		profile.UserID = doc.ID
	}
	return profile
}

// LocalStore is the durable on-device store contract for profiles.
type LocalStore interface {
	UpsertProfile(ctx context.Context, profile *UserProfile) error
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	DeleteProfile(ctx context.Context, userID string) error
}

// Repository is the exposed profile interface.
type Repository interface {
	// Get returns the profile, or (nil, nil) when the user has none.
	Get(ctx context.Context, userID string, forceRefresh bool) (*UserProfile, error)

	// Save upserts the profile locally and mirrors it remotely
	// fire-and-forget.
	Save(ctx context.Context, profile *UserProfile) error

	// CreateInitial writes a first profile for a new user unless one already
	// exists remotely.
	CreateInitial(ctx context.Context, userID, username, email string) (*UserProfile, error)

	// ClearCache drops the local copy so the next read goes remote.
	ClearCache(ctx context.Context, userID string) error
}
