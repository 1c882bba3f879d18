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
	"go.uber.org/zap"

	_ "github.com/noah-isme/rekrut-api/api/swagger"
	"github.com/noah-isme/rekrut-api/internal/handler"
	"github.com/noah-isme/rekrut-api/internal/middleware"
	"github.com/noah-isme/rekrut-api/internal/repository"
	"github.com/noah-isme/rekrut-api/internal/router"
	"github.com/noah-isme/rekrut-api/internal/service"
	"github.com/noah-isme/rekrut-api/pkg/cache"
	"github.com/noah-isme/rekrut-api/pkg/config"
	"github.com/noah-isme/rekrut-api/pkg/database"
	"github.com/noah-isme/rekrut-api/pkg/jobs"
	"github.com/noah-isme/rekrut-api/pkg/logger"
	"github.com/noah-isme/rekrut-api/pkg/storage"
	"github.com/noah-isme/rekrut-api/pkg/validation"
)

// @title Rekrut API
// @version 1.0.0
// @description Recruitment management backend: positions, study programs, recruitment periods and applicant submissions.
// @BasePath /
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validation.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewStudyProgramRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	formRepo := repository.NewFormRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	var cacheRepo service.CacheRepository
	var limiter middleware.Limiter = middleware.NewMemoryLimiter()
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
		limiter = middleware.NewRedisLimiter(redisClient, "rekrut:ratelimit")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.StudyProgramTTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	programSvc := service.NewStudyProgramService(programRepo, cacheSvc, cfg.Cache.StudyProgramTTL, validate, logr)
	positionSvc := service.NewPositionService(positionRepo, programSvc, validate, logr)
	timelineSvc := service.NewTimelineService(timelineRepo, positionRepo, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, timelineRepo, userRepo, metrics, validate, logr, service.SubmissionConfig{
		BulkConcurrency: cfg.Submissions.BulkConcurrency,
		QuotaFailOpen:   cfg.Submissions.QuotaFailOpen(),
	})
	formSvc := service.NewFormService(formRepo, validate, logr)

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}
	uploadSvc := service.NewUploadService(uploadStore, storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL), metrics, logr, service.UploadConfig{
		APIPrefix:    cfg.APIPrefix,
		MaxSize:      cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	})

	var exportHandler *handler.ExportHandler
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		exporter := service.NewExportService(submissionRepo, positionRepo, timelineRepo, exportStore, logr)
		worker := service.NewExportWorker(exportRepo, exporter, metrics, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			OnFailure:  worker.OnFailure,
			Logger:     logr,
		})
		exportQueue.Start(context.Background())

		exportSvc := service.NewExportJobService(exportRepo, timelineRepo, exportQueue, exporter,
			storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL), validate, logr,
			service.ExportJobConfig{
				APIPrefix:       cfg.APIPrefix,
				ResultTTL:       cfg.Exports.SignedURLTTL,
				CleanupInterval: cfg.Exports.CleanupInterval,
			})
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	engine := router.New(router.Dependencies{
		Config:        cfg,
		Logger:        logr,
		Metrics:       metrics,
		Tokens:        authSvc,
		Audit:         userRepo,
		Limiter:       limiter,
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		StudyPrograms: handler.NewStudyProgramHandler(programSvc),
		Positions:     handler.NewPositionHandler(positionSvc),
		Timelines:     handler.NewTimelineHandler(timelineSvc),
		Submissions:   handler.NewSubmissionHandler(submissionSvc),
		Exports:       exportHandler,
		Forms:         handler.NewFormHandler(formSvc),
		Uploads:       handler.NewUploadHandler(uploadSvc),
		Health:        handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
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
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}
