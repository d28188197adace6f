package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/tendant/simple-upload/pkg/simpleupload/api"
	"github.com/tendant/simple-upload/pkg/simpleupload/config"
)

// EnvConfig is the environment surface of the server
type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	DatabaseType  string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL   string `env:"DATABASE_URL" env-default:""`
	RunMigrations bool   `env:"RUN_MIGRATIONS" env-default:"true"`

	StorageType string `env:"STORAGE_TYPE" env-default:"fs"`
	FSBaseDir   string `env:"FS_BASE_DIR" env-default:"./data/uploads"`

	S3Bucket               string `env:"S3_BUCKET" env-default:""`
	S3Region               string `env:"S3_REGION" env-default:"us-east-1"`
	S3AccessKeyID          string `env:"S3_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey      string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint             string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle         bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3CreateBucketIfAbsent bool   `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`

	CacheSize       int `env:"RESULT_CACHE_SIZE" env-default:"512"`
	CacheTTLSeconds int `env:"RESULT_CACHE_TTL_SECONDS" env-default:"120"`
}

func main() {
	reconcile := flag.Bool("reconcile", false, "rename non-conforming stored files and exit")
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	var env EnvConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(env.Environment)
	slog.SetDefault(logger)

	serverConfig, err := buildServerConfig(env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	if *reconcile {
		renamed, err := svc.ReconcileStorageNames(ctx)
		if err != nil {
			logger.Error("reconciliation failed", "error", err)
			os.Exit(1)
		}
		logger.Info("reconciliation complete", "renamed", renamed)
		return
	}

	handler := api.NewFilesHandler(svc, serverConfig.BuildResultCache(), serverConfig.IsProduction())

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", api.Health)
	r.Mount("/files", handler.Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	go func() {
		logger.Info("simple-upload server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.StorageType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exiting")
}

func buildServerConfig(env EnvConfig) (*config.ServerConfig, error) {
	options := []config.Option{
		config.WithPort(env.Port),
		config.WithEnvironment(env.Environment),
		config.WithDatabase(env.DatabaseType, env.DatabaseURL),
		config.WithResultCache(env.CacheSize, time.Duration(env.CacheTTLSeconds)*time.Second),
	}

	if env.RunMigrations && env.DatabaseType == "postgres" {
		options = append(options, config.WithMigrations())
	}

	switch env.StorageType {
	case "fs":
		options = append(options, config.WithFilesystemStorage(env.FSBaseDir))
	case "s3":
		options = append(options,
			config.WithS3Storage(env.S3Bucket, env.S3Region),
			config.WithS3Credentials(env.S3AccessKeyID, env.S3SecretAccessKey, env.S3Endpoint, env.S3UsePathStyle),
		)
		if env.S3CreateBucketIfAbsent {
			options = append(options, config.WithS3CreateBucketIfAbsent())
		}
	default:
		options = append(options, config.WithMemoryStorage())
	}

	return config.New(options...)
}

// newLogger builds a JSON logger in production, text otherwise
func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
