package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	favoritedomain "github.com/feedup/feedup-backend/internal/favorite/domain"
	"github.com/feedup/feedup-backend/internal/namestore"
	profiledomain "github.com/feedup/feedup-backend/internal/profile/domain"
	recipedomain "github.com/feedup/feedup-backend/internal/recipe/domain"
	reviewdomain "github.com/feedup/feedup-backend/internal/review/domain"
	"github.com/feedup/feedup-backend/pkg/logger"
)

const defaultPageSize = 10

// Handler exposes the cached repositories over HTTP.
type Handler struct {
	recipes   recipedomain.Repository
	reviews   reviewdomain.Repository
	favorites favoritedomain.Repository
	profiles  profiledomain.Repository
	names     *namestore.UserNameStore

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewHandler creates the HTTP handler and registers its metrics.
func NewHandler(
	recipes recipedomain.Repository,
	reviews reviewdomain.Repository,
	favorites favoritedomain.Repository,
	profiles profiledomain.Repository,
	names *namestore.UserNameStore,
) *Handler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedup_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedup_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &Handler{
		recipes:        recipes,
		reviews:        reviews,
		favorites:      favorites,
		profiles:       profiles,
		names:          names,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *Handler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Recipes
	router.HandleFunc("/api/recipes", h.metricsMiddleware("/api/recipes", h.PublicFeed)).Methods("GET")
	router.HandleFunc("/api/recipes", h.metricsMiddleware("/api/recipes", AuthMiddleware(h.CreateRecipe))).Methods("POST")
	router.HandleFunc("/api/recipes/{id}", h.metricsMiddleware("/api/recipes/{id}", h.GetRecipe)).Methods("GET")
	router.HandleFunc("/api/recipes/{id}", h.metricsMiddleware("/api/recipes/{id}", AuthMiddleware(h.DeleteRecipe))).Methods("DELETE")
	router.HandleFunc("/api/recipes/{id}/steps", h.metricsMiddleware("/api/recipes/{id}/steps", h.GetSteps)).Methods("GET")
	router.HandleFunc("/api/recipes/{id}/steps/{number}", h.metricsMiddleware("/api/recipes/{id}/steps/{number}", AuthMiddleware(h.DeleteStep))).Methods("DELETE")
	router.HandleFunc("/api/users/me/recipes", h.metricsMiddleware("/api/users/me/recipes", AuthMiddleware(h.MyRecipes))).Methods("GET")

	// Reviews
	router.HandleFunc("/api/recipes/{id}/reviews", h.metricsMiddleware("/api/recipes/{id}/reviews", h.RecipeReviews)).Methods("GET")
	router.HandleFunc("/api/recipes/{id}/reviews", h.metricsMiddleware("/api/recipes/{id}/reviews", AuthMiddleware(h.SaveReview))).Methods("PUT")
	router.HandleFunc("/api/recipes/{id}/reviews", h.metricsMiddleware("/api/recipes/{id}/reviews", AuthMiddleware(h.DeleteReview))).Methods("DELETE")
	router.HandleFunc("/api/recipes/{id}/reviews/me", h.metricsMiddleware("/api/recipes/{id}/reviews/me", AuthMiddleware(h.MyReview))).Methods("GET")
	router.HandleFunc("/api/recipes/{id}/reviews/stats", h.metricsMiddleware("/api/recipes/{id}/reviews/stats", h.ReviewStats)).Methods("GET")
	router.HandleFunc("/api/users/me/reviews", h.metricsMiddleware("/api/users/me/reviews", AuthMiddleware(h.MyReviews))).Methods("GET")

	// Favorites
	router.HandleFunc("/api/recipes/{id}/favorite", h.metricsMiddleware("/api/recipes/{id}/favorite", AuthMiddleware(h.AddFavorite))).Methods("POST")
	router.HandleFunc("/api/recipes/{id}/favorite", h.metricsMiddleware("/api/recipes/{id}/favorite", AuthMiddleware(h.RemoveFavorite))).Methods("DELETE")
	router.HandleFunc("/api/recipes/{id}/favorite", h.metricsMiddleware("/api/recipes/{id}/favorite", AuthMiddleware(h.IsFavorite))).Methods("GET")
	router.HandleFunc("/api/users/me/favorites", h.metricsMiddleware("/api/users/me/favorites", AuthMiddleware(h.MyFavorites))).Methods("GET")
	router.HandleFunc("/api/users/me/favorites/refresh", h.metricsMiddleware("/api/users/me/favorites/refresh", AuthMiddleware(h.RefreshFavorites))).Methods("POST")

	// Profiles and names
	router.HandleFunc("/api/users/me/profile", h.metricsMiddleware("/api/users/me/profile", AuthMiddleware(h.MyProfile))).Methods("GET")
	router.HandleFunc("/api/users/me/profile", h.metricsMiddleware("/api/users/me/profile", AuthMiddleware(h.SaveProfile))).Methods("PUT")
	router.HandleFunc("/api/users/me/profile/cache", h.metricsMiddleware("/api/users/me/profile/cache", AuthMiddleware(h.ClearProfileCache))).Methods("DELETE")
	router.HandleFunc("/api/users/{id}/profile", h.metricsMiddleware("/api/users/{id}/profile", h.GetProfile)).Methods("GET")
	router.HandleFunc("/api/users/{id}/name", h.metricsMiddleware("/api/users/{id}/name", h.ResolveName)).Methods("GET")
	router.HandleFunc("/api/users/names", h.metricsMiddleware("/api/users/names", h.ResolveNames)).Methods("GET")
}

func (h *Handler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "feedup service is healthy",
		})
	}).Methods("GET")
}

// PublicFeed handles GET /api/recipes
func (h *Handler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	page, pageSize, refresh, reset := pageParams(r)

	result, err := h.recipes.PublicFeed(r.Context(), page, pageSize, refresh, reset)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to load public feed")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load feed",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// CreateRecipe handles POST /api/recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipe      recipedomain.Recipe             `json:"recipe"`
		Steps       []recipedomain.RecipeStep       `json:"steps"`
		Ingredients []recipedomain.RecipeIngredient `json:"ingredients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	req.Recipe.UserID = userID(r)

	id, err := h.recipes.Create(r.Context(), &req.Recipe, req.Steps, req.Ingredients)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create recipe")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to create recipe",
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Recipe created successfully",
		Data:    map[string]string{"recipeId": id},
	})
}

// GetRecipe handles GET /api/recipes/{id}
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]
	refresh := r.URL.Query().Get("refresh") == "true"

	details, err := h.recipes.GetWithDetails(r.Context(), recipeID, refresh)
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to get recipe")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get recipe",
		})
		return
	}
	if details == nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Recipe not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: details})
}

// DeleteRecipe handles DELETE /api/recipes/{id}
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	details, err := h.recipes.GetWithDetails(r.Context(), recipeID, false)
	if err == nil && details != nil && details.Recipe.UserID != userID(r) {
		respondJSON(w, http.StatusForbidden, Response{
			Success: false,
			Error:   "Not the recipe owner",
		})
		return
	}

	if err := h.recipes.Delete(r.Context(), recipeID); err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to delete recipe")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to delete recipe",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Recipe deleted successfully",
	})
}

// GetSteps handles GET /api/recipes/{id}/steps
func (h *Handler) GetSteps(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	steps, err := h.recipes.Steps(r.Context(), recipeID)
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to get steps")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get steps",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: steps})
}

// DeleteStep handles DELETE /api/recipes/{id}/steps/{number}
func (h *Handler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	recipeID := vars["id"]
	number, err := strconv.Atoi(vars["number"])
	if err != nil || number < 1 {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid step number",
		})
		return
	}

	if err := h.recipes.DeleteStep(r.Context(), recipeID, number); err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to delete step")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to delete step",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Step deleted successfully",
	})
}

// MyRecipes handles GET /api/users/me/recipes
func (h *Handler) MyRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.UserRecipes(r.Context(), userID(r))
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to get user recipes")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get recipes",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: recipes})
}

// RecipeReviews handles GET /api/recipes/{id}/reviews
func (h *Handler) RecipeReviews(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]
	page, pageSize, refresh, reset := pageParams(r)
	sort := reviewSort(r.URL.Query().Get("sort"))

	result, err := h.reviews.PageForRecipe(r.Context(), recipeID, sort, page, pageSize, refresh, reset)
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to load reviews")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load reviews",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// SaveReview handles PUT /api/recipes/{id}/reviews
func (h *Handler) SaveReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  float32 `json:"rating"`
		Comment string  `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Rating must be between 1 and 5",
		})
		return
	}

	review := &reviewdomain.RecipeReview{
		RecipeID: mux.Vars(r)["id"],
		UserID:   userID(r),
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := h.reviews.Save(r.Context(), review); err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", review.RecipeID).Msg("Failed to save review")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to save review",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Review saved successfully",
		Data:    review,
	})
}

// DeleteReview handles DELETE /api/recipes/{id}/reviews
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	if err := h.reviews.Delete(r.Context(), recipeID, userID(r)); err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to delete review")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to delete review",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Review deleted successfully",
	})
}

// MyReview handles GET /api/recipes/{id}/reviews/me
func (h *Handler) MyReview(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]
	refresh := r.URL.Query().Get("refresh") == "true"

	review, err := h.reviews.Get(r.Context(), recipeID, userID(r), refresh)
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to get review")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get review",
		})
		return
	}
	if review == nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Review not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: review})
}

// ReviewStats handles GET /api/recipes/{id}/reviews/stats
func (h *Handler) ReviewStats(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	stats, err := h.reviews.Stats(r.Context(), recipeID)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get review stats",
		})
		return
	}
	if stats == nil {
		stats = &reviewdomain.ReviewStats{Distribution: map[int]int{}}
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}

// MyReviews handles GET /api/users/me/reviews
func (h *Handler) MyReviews(w http.ResponseWriter, r *http.Request) {
	page, pageSize, refresh, reset := pageParams(r)

	result, err := h.reviews.PageByUser(r.Context(), userID(r), page, pageSize, refresh, reset)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to load user reviews")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load reviews",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// AddFavorite handles POST /api/recipes/{id}/favorite
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	if err := h.favorites.Add(r.Context(), recipeID, userID(r)); err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to add favorite")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to add favorite",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Recipe favorited",
	})
}

// RemoveFavorite handles DELETE /api/recipes/{id}/favorite
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	if err := h.favorites.Remove(r.Context(), recipeID, userID(r)); err != nil {
		logger.Error(r.Context()).Err(err).Str("recipe_id", recipeID).Msg("Failed to remove favorite")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to remove favorite",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Favorite removed",
	})
}

// IsFavorite handles GET /api/recipes/{id}/favorite
func (h *Handler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	recipeID := mux.Vars(r)["id"]

	favorited, err := h.favorites.IsFavorite(r.Context(), recipeID, userID(r))
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to check favorite",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]bool{"isFavorite": favorited},
	})
}

// MyFavorites handles GET /api/users/me/favorites
func (h *Handler) MyFavorites(w http.ResponseWriter, r *http.Request) {
	page, pageSize, refresh, reset := pageParams(r)

	result, err := h.favorites.Page(r.Context(), userID(r), page, pageSize, refresh, reset)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to load favorites")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load favorites",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// RefreshFavorites handles POST /api/users/me/favorites/refresh
func (h *Handler) RefreshFavorites(w http.ResponseWriter, r *http.Request) {
	if err := h.favorites.RefreshAll(r.Context(), userID(r)); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to refresh favorites")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "Failed to refresh favorites",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Favorites refreshed",
	})
}

// MyProfile handles GET /api/users/me/profile
func (h *Handler) MyProfile(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	profile, err := h.profiles.Get(r.Context(), userID(r), refresh)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to get profile")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get profile",
		})
		return
	}
	if profile == nil {
		// First login: seed the profile from the token identity.
		username, _ := r.Context().Value(UsernameKey).(string)
		profile, err = h.profiles.CreateInitial(r.Context(), userID(r), username, "")
		if err != nil {
			respondJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Failed to create profile",
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: profile})
}

// SaveProfile handles PUT /api/users/me/profile
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile profiledomain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	profile.UserID = userID(r)

	if err := h.profiles.Save(r.Context(), &profile); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to save profile")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to save profile",
		})
		return
	}
	h.names.Update(profile.UserID, profile.Username)

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Profile saved successfully",
		Data:    profile,
	})
}

// ClearProfileCache handles DELETE /api/users/me/profile/cache
func (h *Handler) ClearProfileCache(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.ClearCache(r.Context(), userID(r)); err != nil {
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to clear profile cache",
		})
		return
	}
	h.names.Invalidate(userID(r))

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Profile cache cleared",
	})
}

// GetProfile handles GET /api/users/{id}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]

	profile, err := h.profiles.Get(r.Context(), targetID, false)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get profile",
		})
		return
	}
	if profile == nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Profile not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: profile})
}

// ResolveName handles GET /api/users/{id}/name
func (h *Handler) ResolveName(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]
	name := h.names.Resolve(r.Context(), targetID)

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"userId": targetID, "username": name},
	})
}

// ResolveNames handles GET /api/users/names?ids=a,b,c
func (h *Handler) ResolveNames(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "ids query parameter required",
		})
		return
	}

	names := h.names.ResolveMany(r.Context(), strings.Split(raw, ","))
	respondJSON(w, http.StatusOK, Response{Success: true, Data: names})
}

func pageParams(r *http.Request) (page, pageSize int, refresh, reset bool) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return page, pageSize, q.Get("refresh") == "true", q.Get("reset") == "true"
}

func reviewSort(raw string) reviewdomain.SortOption {
	switch reviewdomain.SortOption(raw) {
	case reviewdomain.SortOldestFirst, reviewdomain.SortHighestRating, reviewdomain.SortLowestRating:
		return reviewdomain.SortOption(raw)
	default:
		return reviewdomain.SortNewestFirst
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
