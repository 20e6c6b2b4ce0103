package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/feedup/feedup-backend/internal/config"
	httpDelivery "github.com/feedup/feedup-backend/internal/delivery/http"
	favoritedomain "github.com/feedup/feedup-backend/internal/favorite/domain"
	favoriterepo "github.com/feedup/feedup-backend/internal/favorite/repository"
	"github.com/feedup/feedup-backend/internal/namestore"
	profilerepo "github.com/feedup/feedup-backend/internal/profile/repository"
	recipedomain "github.com/feedup/feedup-backend/internal/recipe/domain"
	reciperepo "github.com/feedup/feedup-backend/internal/recipe/repository"
	"github.com/feedup/feedup-backend/internal/remote"
	reviewdomain "github.com/feedup/feedup-backend/internal/review/domain"
	reviewrepo "github.com/feedup/feedup-backend/internal/review/repository"
	"github.com/feedup/feedup-backend/kafka"
	"github.com/feedup/feedup-backend/pkg/auth"
	"github.com/feedup/feedup-backend/pkg/database"
	"github.com/feedup/feedup-backend/pkg/logger"
	"github.com/feedup/feedup-backend/pkg/tracing"
)

func main() {
	cfg := config.Load()

	serviceName := getEnv("OTEL_SERVICE_NAME", "feedup-backend")
	logger.Init(serviceName, cfg.DevMode)
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("log_level", cfg.LogLevel).
		Msg("Starting feedup backend")

	auth.Init(cfg.JWTSecret)

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Local stores
	recipeStore := reciperepo.NewGormRecipeStore(db)
	reviewStore := reviewrepo.NewGormReviewStore(db)
	favoriteStore := favoriterepo.NewGormFavoriteStore(db)
	profileStore := profilerepo.NewGormProfileStore(db)

	// Run migrations
	if err := recipeStore.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run recipe migrations")
	}
	if err := reviewStore.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run review migrations")
	}
	if err := favoriteStore.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run favorite migrations")
	}
	if err := profileStore.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run profile migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	// Remote document store on Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	remoteStore := remote.NewRedisStore(redisClient, "feedup", map[string][]remote.IndexSpec{
		recipedomain.Collection: {
			{Filters: []string{"isPublic"}, OrderBy: "createdAt"},
			{Filters: []string{"userId"}, OrderBy: "createdAt"},
		},
		reviewdomain.Collection: {
			{Filters: []string{"recipeId"}, OrderBy: "createdAt"},
			{Filters: []string{"recipeId"}, OrderBy: "rating"},
			{Filters: []string{"userId"}, OrderBy: "createdAt"},
		},
		favoritedomain.Collection: {
			{Filters: []string{"userId"}, OrderBy: "createdAt"},
		},
	})

	// Kafka publisher is optional; without brokers events are skipped
	var events *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		events, err = kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to initialize Kafka publisher, events disabled")
			events = nil
		} else {
			defer events.Close()
		}
	}

	// Cached repositories
	recipes := reciperepo.NewTracingRecipeRepository(
		reciperepo.NewCachedRecipeRepository(recipeStore, remoteStore, events),
	)
	reviews := reviewrepo.NewCachedReviewRepository(reviewStore, remoteStore, events)
	favorites := favoriterepo.NewCachedFavoriteRepository(favoriteStore, remoteStore)
	profiles := profilerepo.NewCachedProfileRepository(profileStore, remoteStore)
	names := namestore.NewUserNameStore(profiles)

	handler := httpDelivery.NewHandler(recipes, reviews, favorites, profiles, names)

	go startHTTPServer(handler, sqlDB, cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(handler *httpDelivery.Handler, db *sql.DB, port string) {
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	traced := otelhttp.NewHandler(c.Handler(router), "feedup-http")
	if err := http.ListenAndServe(":"+port, traced); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
