package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/config"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/handlers"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/matching"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/metrics"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/middleware"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/questions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/repositories"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/routers"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/sessions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/signaling"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/utils"
)

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
}

func buildCatalog(cfg *config.Config, logger *zap.Logger) questions.Catalog {
	if cfg.QuestionServiceURL != "" {
		return questions.NewHTTPCatalog(cfg.QuestionServiceURL)
	}
	catalog, err := questions.LoadStaticCatalog(cfg.QuestionSeedPath)
	if err != nil {
		logger.Fatal("failed to load question seed", zap.String("path", cfg.QuestionSeedPath), zap.Error(err))
	}
	logger.Info("using static question catalog", zap.String("path", cfg.QuestionSeedPath))
	return catalog
}

func main() {
	logger := utils.GetLogger()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.ScheduledRequest{},
		&models.MatchRequest{},
		&models.LiveSession{},
		&models.Participant{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	catalog := buildCatalog(cfg, logger)
	notifier := signaling.NewNotifier(rdb, logger)

	matchService := matching.NewService(db, catalog, notifier, logger, cfg.MatchTTL)
	sessionService := sessions.NewService(db, catalog, notifier, logger)

	requestHandler := handlers.NewRequestHandler(&repositories.RequestRepository{DB: db})
	matchHandler := handlers.NewMatchHandler(matchService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	healthHandler := handlers.NewHealthHandler()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, chimiddleware.Timeout(60*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", healthHandler.HealthzHandler)
	r.Get("/readyz", healthHandler.ReadyzHandler)
	r.Handle("/metrics", metrics.Handler())

	auth := middleware.Auth([]byte(cfg.JWTSecret))
	routers.RequestRoutes(r, auth, requestHandler)
	routers.MatchRoutes(r, auth, matchHandler)
	routers.SessionRoutes(r, auth, sessionHandler)

	addr := ":" + cfg.Port
	logger.Info("peer-match service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
