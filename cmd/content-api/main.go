package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/content-console/api/swagger"
	"github.com/noah-isme/content-console/internal/handler"
	"github.com/noah-isme/content-console/internal/middleware"
	"github.com/noah-isme/content-console/internal/repository"
	"github.com/noah-isme/content-console/internal/service"
	"github.com/noah-isme/content-console/pkg/cache"
	"github.com/noah-isme/content-console/pkg/config"
	"github.com/noah-isme/content-console/pkg/database"
	"github.com/noah-isme/content-console/pkg/export"
	"github.com/noah-isme/content-console/pkg/jobs"
	"github.com/noah-isme/content-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/content-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/content-console/pkg/middleware/requestid"
	"github.com/noah-isme/content-console/pkg/storage"
)

// @title Content Console API
// @version 1.0.0
// @description Carousels, cards, notes and reels mapped to batches, with role based access control.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	checks := map[string]handler.ReadinessCheck{"postgres": database.Check(db)}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client, "content-console", logr)
			checks["redis"] = cache.Check(client)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DefaultTTL, logr, cacheRepo != nil)

	optionRepo := repository.NewOptionRepository(db)
	contentRepo := repository.NewContentRepository(db)
	rbacRepo := repository.NewRBACRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, authConfig(cfg.JWT))
	optionSvc := service.NewOptionService(optionRepo, cacheSvc, metrics, logr, service.OptionServiceConfig{
		DefaultPageSize: cfg.Options.DefaultPageSize,
		MaxPageSize:     cfg.Options.MaxPageSize,
		CacheTTL:        cfg.Options.CacheTTL,
	})
	contentSvc := service.NewContentService(contentRepo, optionRepo, validate, metrics, logr, service.ContentServiceConfig{
		DefaultPageSize: cfg.Content.DefaultPageSize,
		MaxPageSize:     cfg.Content.MaxPageSize,
	})
	rbacSvc := service.NewRBACService(rbacRepo, userRepo, cacheSvc, validate, logr, cfg.RBAC.CacheTTL)

	handlers := handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Options: handler.NewOptionHandler(optionSvc),
		Content: handler.NewContentHandler(contentSvc),
		RBAC:    handler.NewRBACHandler(rbacSvc),
		Metrics: handler.NewMetricsHandler(metrics, checks),
	}

	if cfg.Exports.Enabled {
		exportHandler, queue, err := setupExports(ctx, cfg, contentRepo, repository.NewExportRepository(db), metrics, validate, logr)
		if err != nil {
			logr.Fatal("failed to initialise exports", zap.Error(err))
		}
		defer queue.Stop()
		handlers.Exports = exportHandler
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	handler.RegisterRoutes(r, r.Group(cfg.APIPrefix), handlers, handler.Guards{
		Tokens:      authSvc,
		Permissions: rbacSvc,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func authConfig(cfg config.JWTConfig) service.AuthConfig {
	return service.AuthConfig{
		AccessTokenSecret: cfg.Secret,
		AccessTokenExpiry: cfg.Expiration,
		Issuer:            cfg.Issuer,
		Audience:          cfg.Audience,
	}
}

func setupExports(
	ctx context.Context,
	cfg *config.Config,
	contentRepo *repository.ContentRepository,
	exportRepo *repository.ExportRepository,
	metrics *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
) (*handler.ExportHandler, *jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(contentRepo, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
		MaxRows:   cfg.Exports.MaxRows,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	worker := service.NewExportWorker(exportRepo, exporter, metrics, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			logr.Error("export job exhausted retries", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		},
	})
	queue.Start(ctx)

	jobSvc := service.NewExportJobService(exportRepo, queue, exporter, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	jobSvc.RecoverPendingJobs(ctx)
	jobSvc.StartCleanup(ctx)

	return handler.NewExportHandler(jobSvc), queue, nil
}
