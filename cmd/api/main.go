package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusforge/timetable-engine/internal/cache"
	"github.com/campusforge/timetable-engine/internal/export"
	"github.com/campusforge/timetable-engine/internal/handler"
	appmiddleware "github.com/campusforge/timetable-engine/internal/middleware"
	"github.com/campusforge/timetable-engine/internal/metrics"
	"github.com/campusforge/timetable-engine/internal/orchestration"
	"github.com/campusforge/timetable-engine/internal/repository"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	pkgcache "github.com/campusforge/timetable-engine/pkg/cache"
	"github.com/campusforge/timetable-engine/pkg/config"
	"github.com/campusforge/timetable-engine/pkg/database"
	"github.com/campusforge/timetable-engine/pkg/jobs"
	"github.com/campusforge/timetable-engine/pkg/logger"
	corsmiddleware "github.com/campusforge/timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/campusforge/timetable-engine/pkg/middleware/requestid"
	"github.com/campusforge/timetable-engine/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := pkgcache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	repo := repository.NewPostgresRepository(db)
	grid := scheduler.DefaultTimeGrid()
	engine := scheduler.NewEngine(repo, grid)
	proposals := cache.NewProposalStore(redisClient, cfg.Scheduler.ProposalCacheTTL)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := export.NewService(nil, store, signer)
	exportQueue := jobs.NewQueue("schedule_export", exportService.Handler, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportService.BindQueue(exportQueue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	schedulerMetrics := metrics.NewScheduler()
	cachedGenerator := &cachingScheduleGenerator{engine: engine, proposals: proposals, metrics: schedulerMetrics, logger: logr}

	scheduleHandler := handler.NewScheduleHandler(cachedGenerator, logr)
	exportHandler := handler.NewExportHandler(proposals, exportService, logr)

	bulkRegenerator := orchestration.NewBulkRegenerator(cachedGenerator, repo, schedulerMetrics, logr)
	bulkQueue := jobs.NewQueue("bulk_regenerate", bulkRegenerator.Handler, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	bulkRegenerator.BindQueue(bulkQueue)
	bulkQueue.Start(ctx)
	defer bulkQueue.Stop()
	bulkHandler := handler.NewBulkRegenerateHandler(bulkRegenerator, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(schedulerMetrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.POST("/batches/:id/schedule", scheduleHandler.Generate)
	api.POST("/batches/:id/schedule/export", exportHandler.Create)
	api.GET("/batches/:id/schedule/export/:jobID", exportHandler.Status)
	api.POST("/batches/schedule:bulk-regenerate", bulkHandler.Trigger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
