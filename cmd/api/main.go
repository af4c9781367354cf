package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/slp-tools/caseload-api/api/swagger"
	"github.com/slp-tools/caseload-api/internal/handler"
	"github.com/slp-tools/caseload-api/internal/middleware"
	"github.com/slp-tools/caseload-api/internal/repository"
	"github.com/slp-tools/caseload-api/internal/service"
	"github.com/slp-tools/caseload-api/pkg/cache"
	"github.com/slp-tools/caseload-api/pkg/config"
	"github.com/slp-tools/caseload-api/pkg/database"
	"github.com/slp-tools/caseload-api/pkg/logger"
	corsmiddleware "github.com/slp-tools/caseload-api/pkg/middleware/cors"
	reqidmiddleware "github.com/slp-tools/caseload-api/pkg/middleware/requestid"
)

// @title Caseload API
// @version 0.1.0
// @description Therapy caseload record-keeping: trial data, windowed progress and SOAP documentation
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Progress.CacheTTL, logr, true)
	}

	studentRepo := repository.NewStudentRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	trialRepo := repository.NewTrialRepository(db)
	soapRepo := repository.NewSOAPRepository(db)

	progressSvc := service.NewProgressService(service.ProgressServiceParams{
		Objectives: objectiveRepo,
		Goals:      goalRepo,
		Trials:     trialRepo,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		Config: service.ProgressServiceConfig{
			WindowDays: cfg.Progress.WindowDays,
			CacheTTL:   cfg.Progress.CacheTTL,
		},
	})
	soapSvc := service.NewSOAPService(sessionRepo, trialRepo, objectiveRepo, soapRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, sessionRepo, trialRepo, soapRepo, objectiveRepo, progressSvc, nil, logr)
	goalSvc := service.NewGoalService(goalRepo, studentRepo, progressSvc, nil, logr)
	objectiveSvc := service.NewObjectiveService(objectiveRepo, goalRepo, progressSvc, nil, logr)
	sessionSvc := service.NewSessionService(sessionRepo, studentRepo, trialRepo, soapRepo, objectiveRepo, progressSvc, nil, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students: studentRepo,
		Sessions: sessionRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:     cfg.Dashboard.CacheTTL,
			RecentLimit:  cfg.Sessions.RecentLimit,
			UpcomingDays: cfg.Sessions.UpcomingDays,
		},
	})
	exportSvc := service.NewExportService(studentRepo, progressSvc, soapRepo, logr, nil, nil, nil)

	studentHandler := handler.NewStudentHandler(studentSvc)
	goalHandler := handler.NewGoalHandler(goalSvc)
	objectiveHandler := handler.NewObjectiveHandler(objectiveSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	soapHandler := handler.NewSOAPHandler(soapSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/dashboard", dashboardHandler.Overview)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.GET("/students/:id/detail", studentHandler.Detail)
		api.GET("/students/:id/goals", goalHandler.ListByStudent)
		api.GET("/students/:id/soap", soapHandler.ListByStudent)
		api.GET("/students/:id/reports/progress", reportHandler.Progress)
		api.GET("/students/:id/reports/soap", reportHandler.SOAPHistory)

		api.POST("/goals", goalHandler.Create)
		api.GET("/goals/:id", goalHandler.Get)
		api.PUT("/goals/:id", goalHandler.Update)
		api.DELETE("/goals/:id", goalHandler.Delete)
		api.GET("/goals/:id/objectives", objectiveHandler.ListByGoal)

		api.POST("/objectives", objectiveHandler.Create)
		api.PUT("/objectives/:id", objectiveHandler.Update)
		api.GET("/objectives/:id/progress", objectiveHandler.Progress)

		api.GET("/sessions", sessionHandler.ListByDate)
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.PUT("/sessions/:id", sessionHandler.Update)
		api.POST("/sessions/:id/trials", sessionHandler.RecordTrial)
		api.POST("/sessions/:id/trials/batch", sessionHandler.RecordTrials)
		api.PUT("/trials/:id", sessionHandler.EditTrial)
		api.GET("/sessions/:id/soap", soapHandler.Get)
		api.GET("/sessions/:id/soap/draft", soapHandler.Generate)
		api.PUT("/sessions/:id/soap", soapHandler.Save)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
