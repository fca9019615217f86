package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edupulse/gradebook-api/api/swagger"
	"github.com/edupulse/gradebook-api/internal/handler"
	"github.com/edupulse/gradebook-api/internal/middleware"
	"github.com/edupulse/gradebook-api/internal/models"
	"github.com/edupulse/gradebook-api/internal/repository"
	"github.com/edupulse/gradebook-api/internal/service"
	"github.com/edupulse/gradebook-api/pkg/cache"
	"github.com/edupulse/gradebook-api/pkg/config"
	"github.com/edupulse/gradebook-api/pkg/database"
	"github.com/edupulse/gradebook-api/pkg/jobs"
	"github.com/edupulse/gradebook-api/pkg/logger"
	corsmiddleware "github.com/edupulse/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupulse/gradebook-api/pkg/middleware/requestid"
	"github.com/edupulse/gradebook-api/pkg/storage"
)

// @title Gradebook API
// @version 1.0.0
// @description Grade aggregation service: normalisation, cohort statistics, weighted finals, and reports.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Statistics.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, statistics cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "gradebook-api",
	})
	gradeSvc := service.NewGradeService(gradeRepo, assessmentRepo, studentRepo, userRepo, cacheSvc, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, logr)
	statsSvc := service.NewStatisticsService(gradeRepo, classRepo, cacheSvc, metricsSvc, cfg.Statistics.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	statsHandler := handler.NewStatisticsHandler(statsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.Use(middleware.JWT(authSvc))
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/change-password", authHandler.ChangePassword)
		auth.GET("/me", authHandler.Me)
	}

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)

	grades := api.Group("/grades", middleware.JWT(authSvc))
	{
		grades.GET("", gradeHandler.ListGrades)
		grades.POST("", staff, gradeHandler.RecordGrade)
		grades.POST("/bulk-import", staff, gradeHandler.BulkImport)
		grades.POST("/recalculate", staff, gradeHandler.Recalculate)
		grades.POST("/:id/verify", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), gradeHandler.VerifyGrade)
	}

	assessments := api.Group("/assessments", middleware.JWT(authSvc))
	{
		assessments.GET("", assessmentHandler.ListAssessments)
		assessments.GET("/:id", assessmentHandler.GetAssessment)
		assessments.POST("", staff, assessmentHandler.CreateAssessment)
	}

	classes := api.Group("/classes", middleware.JWT(authSvc))
	{
		classes.GET("/:id/statistics", statsHandler.ClassStatistics)
		classes.POST("/:id/anomaly-scan", staff, statsHandler.AnomalyScan)
	}

	api.GET("/students/:id/final-grade", middleware.JWT(authSvc), gradeHandler.FinalGrade)

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(gradeRepo, assessmentRepo, classRepo, studentRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.ResultTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.ResultTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc, logr)
		reports := api.Group("/reports")
		{
			reports.GET("/download/:token", reportHandler.DownloadReport)
			reports.Use(middleware.JWT(authSvc))
			reports.POST("", staff, reportHandler.GenerateReport)
			reports.GET("/:id", reportHandler.ReportStatus)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
