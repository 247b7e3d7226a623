package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/teamtrack/teamtrack-api/api/swagger"
	"github.com/teamtrack/teamtrack-api/internal/handler"
	internalmiddleware "github.com/teamtrack/teamtrack-api/internal/middleware"
	"github.com/teamtrack/teamtrack-api/internal/repository"
	"github.com/teamtrack/teamtrack-api/internal/router"
	"github.com/teamtrack/teamtrack-api/internal/service"
	"github.com/teamtrack/teamtrack-api/pkg/cache"
	"github.com/teamtrack/teamtrack-api/pkg/config"
	"github.com/teamtrack/teamtrack-api/pkg/database"
	"github.com/teamtrack/teamtrack-api/pkg/jobs"
	"github.com/teamtrack/teamtrack-api/pkg/logger"
	corsmiddleware "github.com/teamtrack/teamtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/teamtrack/teamtrack-api/pkg/middleware/requestid"
	"github.com/teamtrack/teamtrack-api/pkg/storage"
)

// @title TeamTrack API
// @version 1.0.0
// @description Role-based project and task tracking with a completion-review workflow
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, unread counts will not be cached", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	workItemRepo := repository.NewWorkItemRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	var unreadCache *repository.UnreadCountCache
	if redisClient != nil {
		unreadCache = repository.NewUnreadCountCache(redisClient, cfg.Notifications.UnreadCacheTTL)
	}

	// Services.
	metrics := service.NewMetricsService()
	gate := service.NewRoleGate()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)

	var notificationSvc *service.NotificationService
	if unreadCache != nil {
		notificationSvc = service.NewNotificationService(notificationRepo, unreadCache, metrics, logr)
	} else {
		notificationSvc = service.NewNotificationService(notificationRepo, nil, metrics, logr)
	}

	notifier := service.NewWorkflowNotifier(notificationSvc, userRepo, gate, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.QueueSize,
		Logger:     logr,
	}, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	downloadSecret := cfg.Uploads.DownloadSecret
	if downloadSecret == "" {
		downloadSecret = cfg.JWT.Secret
	}
	attachmentSigner := storage.NewAttachmentSigner(downloadSecret, cfg.Uploads.DownloadTokenTTL)

	completionSvc := service.NewCompletionService(completionRepo, workItemRepo, gate, logr,
		service.WithCompletionEventSink(notifier),
		service.WithCompletionMetrics(metrics),
		service.WithAttachmentSigner(attachmentSigner),
	)
	taskSvc := service.NewTaskService(taskRepo, completionRepo, userRepo, projectRepo, nil, logr)
	projectSvc := service.NewProjectService(projectRepo, completionRepo, nil, logr)
	commentSvc := service.NewCommentService(commentRepo, taskRepo, logr)
	exportSvc := service.NewExportService(completionRepo, logr)

	// HTTP.
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r, cfg.APIPrefix, authSvc, router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Tasks:         handler.NewTaskHandler(taskSvc),
		Projects:      handler.NewProjectHandler(projectSvc),
		Completions:   handler.NewCompletionHandler(completionSvc, uploads, cfg.Uploads.MaxFileSizeBytes, logr),
		Comments:      handler.NewCommentHandler(commentSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Exports:       handler.NewExportHandler(exportSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
