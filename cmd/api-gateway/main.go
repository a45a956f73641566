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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vidyalaya/fees-api/api/swagger"
	"github.com/vidyalaya/fees-api/internal/handler"
	"github.com/vidyalaya/fees-api/internal/middleware"
	"github.com/vidyalaya/fees-api/internal/models"
	"github.com/vidyalaya/fees-api/internal/repository"
	"github.com/vidyalaya/fees-api/internal/service"
	"github.com/vidyalaya/fees-api/pkg/cache"
	"github.com/vidyalaya/fees-api/pkg/config"
	"github.com/vidyalaya/fees-api/pkg/database"
	"github.com/vidyalaya/fees-api/pkg/logger"
	corsmiddleware "github.com/vidyalaya/fees-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vidyalaya/fees-api/pkg/middleware/requestid"
	"github.com/vidyalaya/fees-api/pkg/storage"
)

// @title Vidyalaya Fees API
// @version 1.0.0
// @description Fee structure management and dues computation for the school office
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	structureRepo := repository.NewFeeStructureRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Fees.CacheTTL, logr, cfg.Fees.CacheEnabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "vidyalaya-fees-api",
	})
	structureSvc := service.NewFeeStructureService(structureRepo, userRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, validate, logr)
	paymentSvc := service.NewPaymentService(studentRepo, userRepo, cacheSvc, validate, logr)
	duesSvc := service.NewDuesService(studentRepo, structureSvc, cacheSvc, metricsSvc, service.UPIConfig{
		Address: cfg.Fees.UPIAddress,
		Payee:   cfg.Fees.UPIPayee,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var statementSvc *service.StatementService
	if cfg.Statements.Enabled {
		store, err := storage.NewLocalStorage(cfg.Statements.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init statement storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Statements.SignedURLSecret, cfg.Statements.SignedURLTTL)
		statementSvc = service.NewStatementService(statementRepo, studentRepo, structureSvc, userRepo, store, signer, metricsSvc, validate, logr, service.StatementConfig{
			APIPrefix:       cfg.APIPrefix,
			SignedURLTTL:    cfg.Statements.SignedURLTTL,
			CleanupInterval: cfg.Statements.CleanupInterval,
			Workers:         cfg.Statements.WorkerConcurrency,
			Retries:         cfg.Statements.WorkerRetries,
		})
		statementSvc.Start(ctx)
		defer statementSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	structureHandler := handler.NewFeeStructureHandler(structureSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	duesHandler := handler.NewDuesHandler(duesSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleAccountant}
	editors := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
	readers := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleAccountant, models.RoleParent}

	fees := api.Group("/fees", middleware.JWT(authSvc))
	{
		fees.GET("/structure", middleware.RequireRoles(staff...), structureHandler.Get)
		fees.PUT("/structure", middleware.RequireRoles(editors...), structureHandler.Replace)
		fees.PUT("/structure/:schedule/heads", middleware.RequireRoles(editors...), structureHandler.UpsertHead)
		fees.DELETE("/structure/:schedule/heads/:headId", middleware.RequireRoles(editors...), structureHandler.DeleteHead)
		fees.PUT("/structure/grade-map", middleware.RequireRoles(editors...), structureHandler.AssignGrade)
	}

	students := api.Group("/students", middleware.JWT(authSvc))
	{
		students.GET("", middleware.RequireRoles(staff...), studentHandler.List)
		students.POST("", middleware.RequireRoles(editors...), studentHandler.Create)
		students.GET("/:id", middleware.RequireRoles(readers...), studentHandler.Get)
		students.PUT("/:id", middleware.RequireRoles(editors...), studentHandler.Update)
		students.POST("/:id/promote", middleware.RequireRoles(editors...), studentHandler.Promote)
		students.DELETE("/:id", middleware.RequireRoles(editors...), studentHandler.Deactivate)

		students.GET("/:id/payments", middleware.RequireRoles(readers...), paymentHandler.Get)
		students.PUT("/:id/payments", middleware.RequireRoles(staff...), paymentHandler.Replace)

		students.GET("/:id/dues", middleware.RequireRoles(readers...), duesHandler.Messages)
		students.GET("/:id/dues/summary", middleware.RequireRoles(readers...), duesHandler.Summary)
		students.GET("/:id/dues/upi", middleware.RequireRoles(readers...), duesHandler.UPIPrompt)
	}

	if statementSvc != nil {
		statementHandler := handler.NewStatementHandler(statementSvc)

		statements := api.Group("/statements")
		{
			// Download authenticates via its signed token instead of a session.
			statements.GET("/:id/download", middleware.Audit(userRepo, "STATEMENT_DOWNLOAD", "statements"), statementHandler.Download)

			authed := statements.Group("", middleware.JWT(authSvc), middleware.RequireRoles(staff...))
			authed.POST("", statementHandler.Create)
			authed.GET("", statementHandler.List)
			authed.GET("/:id", statementHandler.Get)
		}
	}

	api.GET("/metrics/summary", middleware.JWT(authSvc), middleware.RequireRoles(editors...), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
