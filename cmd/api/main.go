//	@title			Cachetcache API
//	@version		1.0
//	@description	Patient photo timeline backed by R2 object storage.
//
//	@host		localhost:8080
//	@BasePath	/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/cachetcache/service/internal/config"
	"github.com/cachetcache/service/internal/db"
	"github.com/cachetcache/service/internal/health"
	"github.com/cachetcache/service/internal/images"
	"github.com/cachetcache/service/internal/logger"
	appMiddleware "github.com/cachetcache/service/internal/middleware"
	"github.com/cachetcache/service/internal/photos"
	"github.com/cachetcache/service/internal/storage"
	"github.com/cachetcache/service/internal/user"

	_ "github.com/cachetcache/service/docs/swagger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	gw, err := storage.NewFromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("object storage init failed: %w", err)
	}

	bucket, err := bucketBinding(cfg)
	if err != nil {
		return fmt.Errorf("bucket binding init failed: %w", err)
	}
	if gw.Mode() == storage.ModeNative && bucket == nil {
		log.Warn("storage: native mode without STORAGE_BINDING, requests will fail with not configured")
	}

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	photoSvc := photos.NewService(photos.NewRepository(pool), gw, userSvc, log)
	photoHandler := photos.NewHandler(photoSvc, log)

	imageSvc := images.NewService(images.NewRepository(pool), userSvc, gw, log)
	imageHandler := images.NewHandler(imageSvc, log)

	healthHandler := health.NewHandler(pool, gw, log)
	proxy := storage.NewProxyHandler(gw, log)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	}))
	if bucket != nil {
		r.Use(storage.BindBucket(bucket))
	}

	r.Get("/health", healthHandler.Live)

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		// Public: <img> tags cannot send bearer tokens.
		r.Get("/r2-proxy/*", proxy.ServeHTTP)
		r.Get("/storage/check", healthHandler.CheckStorage)

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/upload-image", imageHandler.Upload)
		})

		r.Route("/v1", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateProfile)
			r.Get("/admin/patients", userHandler.ListPatients)
			photoHandler.Routes(r)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening",
			slog.String("port", cfg.Port),
			slog.String("env", cfg.AppEnv),
			slog.String("storage", string(gw.Mode())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// bucketBinding builds the bucket bound into each request in native mode.
// It returns nil when STORAGE_BINDING is unset.
func bucketBinding(cfg *config.Config) (storage.Bucket, error) {
	switch cfg.StorageBinding {
	case "":
		return nil, nil
	case "memory":
		return storage.NewMemoryBucket(), nil
	case "dir":
		return storage.NewDirBucket(cfg.StorageBindingDir)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BINDING %q", cfg.StorageBinding)
	}
}
