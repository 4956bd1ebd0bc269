package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/questionbank/backend/internal/api"
	"github.com/questionbank/backend/internal/archive"
	"github.com/questionbank/backend/internal/auth"
	"github.com/questionbank/backend/internal/config"
	"github.com/questionbank/backend/internal/imports"
	"github.com/questionbank/backend/internal/logger"
	"github.com/questionbank/backend/internal/ratelimit"
	"github.com/questionbank/backend/internal/store"
	"github.com/questionbank/backend/internal/token"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, logger.ParseLevel(os.Getenv("LOG_LEVEL")), ""))

	db, err := store.Open(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := store.NewUserRepository(db)
	tokenRepo := store.NewTokenRepository(db)
	categoryRepo := store.NewCategoryRepository(db)
	questionRepo := store.NewQuestionRepository(db)

	authority := token.NewAuthority(tokenRepo, cfg.TokenSecret)
	authService := auth.NewService(userRepo, authority)

	gateCfg := api.DefaultGateConfig(cfg.SessionCookie)
	gate := auth.NewGate(gateCfg, authority)

	var limiter auth.LoginLimiter
	if cfg.RedisAddr != "" {
		l, err := ratelimit.New(cfg.RedisAddr, cfg.LoginAttempts, 15*time.Minute)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer l.Close()
		limiter = l
	}

	var archiver imports.Archiver
	if cfg.MinioEndpoint != "" {
		client, err := archive.New(&archive.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to create archive client: %v", err)
		}
		if err := client.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to prepare archive bucket: %v", err)
		}
		archiver = client
	}

	authHandlers := auth.NewHandlers(authService, gateCfg, limiter)
	pipeline := imports.NewPipeline(categoryRepo, questionRepo, imports.DefaultSchema())
	importHandlers := imports.NewHandlers(pipeline, archiver)
	categoryHandlers := api.NewCategoryHandlers(categoryRepo)

	router := api.NewRouter(authHandlers, importHandlers, categoryHandlers, gate)

	log.Printf("Starting server on %s", cfg.ServerAddr)
	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
