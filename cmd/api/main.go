package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/institute-api/api/swagger"
	"github.com/noah-isme/institute-api/internal/handler"
	"github.com/noah-isme/institute-api/internal/middleware"
	"github.com/noah-isme/institute-api/internal/repository"
	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/cache"
	"github.com/noah-isme/institute-api/pkg/config"
	"github.com/noah-isme/institute-api/pkg/database"
	"github.com/noah-isme/institute-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/institute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/institute-api/pkg/middleware/requestid"
	"github.com/noah-isme/institute-api/pkg/sms"
)

// @title Institute API
// @version 1.0.0
// @description Inquiry, enrollment and fee management for a computer education institute
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Stats.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.Enabled)
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	customFeeRepo := repository.NewCustomFeeRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "institute-api",
	})
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	inquirySvc := service.NewInquiryService(inquiryRepo, courseRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, inquiryRepo, courseRepo, customFeeRepo, validate, logr, cfg.Fees.GraceDays)
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, validate, logr, cfg.Fees.GraceDays)
	customFeeSvc := service.NewCustomFeeService(customFeeRepo, courseRepo, enrollmentRepo, validate, logr)
	statsSvc := service.NewStatsService(inquiryRepo, courseRepo, enrollmentRepo, cacheSvc, metricsSvc, logr, cfg.Stats.CacheTTL, cfg.Fees.GraceDays)
	exportSvc := service.NewExportService(enrollmentRepo, paymentRepo, nil, nil, logr, cfg.Fees.GraceDays)

	smsProvider := sms.FromConfig(cfg.SMS, logr)
	reminderSvc := service.NewReminderService(enrollmentRepo, smsProvider, metricsSvc, logr,
		cfg.Fees.GraceDays, cfg.Reminders.Workers, cfg.Reminders.MaxRetries, cfg.Reminders.RetryDelay)
	reminderSvc.Start(ctx)
	defer reminderSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Courses:    handler.NewCourseHandler(courseSvc, statsSvc),
		Inquiries:  handler.NewInquiryHandler(inquirySvc, statsSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc, statsSvc),
		Payments:   handler.NewPaymentHandler(paymentSvc, statsSvc),
		CustomFees: handler.NewCustomFeeHandler(customFeeSvc, statsSvc),
		Stats:      handler.NewStatsHandler(statsSvc),
		Exports:    handler.NewExportHandler(exportSvc),
		Reminders:  handler.NewReminderHandler(reminderSvc),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
