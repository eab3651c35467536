package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/paper-track-api/api/swagger"
	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/handler"
	"github.com/noah-isme/paper-track-api/internal/middleware"
	"github.com/noah-isme/paper-track-api/internal/models"
	"github.com/noah-isme/paper-track-api/internal/repository"
	"github.com/noah-isme/paper-track-api/internal/service"
	"github.com/noah-isme/paper-track-api/pkg/cache"
	"github.com/noah-isme/paper-track-api/pkg/config"
	"github.com/noah-isme/paper-track-api/pkg/database"
	"github.com/noah-isme/paper-track-api/pkg/jobs"
	"github.com/noah-isme/paper-track-api/pkg/logger"
	"github.com/noah-isme/paper-track-api/pkg/mail"
	corsmiddleware "github.com/noah-isme/paper-track-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/paper-track-api/pkg/middleware/requestid"
	"github.com/noah-isme/paper-track-api/pkg/render"
	"github.com/noah-isme/paper-track-api/pkg/storage"
)

// @title Paper Track API
// @version 0.1.0
// @description Diploma paper document lifecycle service
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	store, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	renderer := render.NewPDFRenderer()

	var mailer mail.Sender
	if cfg.Mail.Enabled {
		mailer = mail.NewSendGridSender(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromEmail, logr)
	} else {
		mailer = mail.NewConsoleSender(logr)
	}

	userRepo := repository.NewUserRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	committeeRepo := repository.NewCommitteeRepository(db)
	reuploadRepo := repository.NewReuploadRepository(db)
	docRepo := repository.NewDocumentRepository(db, store)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "paper-track-api",
	})

	resolverSvc := service.NewResolverService(paperRepo, studentRepo, sessionRepo, docRepo, cacheRepo, catalog.Default(), cfg.Resolver.CacheTTL, logr)
	resolverSvc.SetMetrics(metricsSvc)

	generationSvc := service.NewGenerationService(resolverSvc, docRepo, renderer, metricsSvc, logr)

	queue := jobs.NewQueue("regeneration", generationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Generation.WorkerConcurrency,
		BufferSize: cfg.Generation.QueueBuffer,
		MaxRetries: cfg.Generation.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(context.Background())
	defer queue.Stop()
	generationSvc.SetQueue(queue)

	reuploadSvc := service.NewReuploadService(reuploadRepo, paperRepo, userRepo, resolverSvc, mailer, userRepo, logr)

	documentSvc := service.NewDocumentService(resolverSvc, docRepo, paperRepo, sessionRepo, reuploadSvc, committeeRepo, store, signer, renderer, userRepo, logr)
	documentSvc.SetMetrics(metricsSvc)

	paperSvc := service.NewPaperService(paperRepo, committeeRepo, sessionRepo, resolverSvc, generationSvc, userRepo, logr)
	sessionSvc := service.NewSessionService(sessionRepo, paperRepo, resolverSvc, generationSvc, userRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, paperRepo, resolverSvc, generationSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	paperHandler := handler.NewPaperHandler(paperSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc, generationSvc, cfg.Documents.MaxFileSizeBytes)
	reuploadHandler := handler.NewReuploadHandler(reuploadSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
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

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/downloads", documentHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/me/paper", paperHandler.GetOwn)

	papers := authed.Group("/papers")
	papers.GET("", paperHandler.List)
	papers.POST("", middleware.RequireStaff(), middleware.Audit(userRepo, "paper_create", "paper"), paperHandler.Create)
	papers.GET("/:id", paperHandler.Get)
	papers.PATCH("/:id", paperHandler.UpdateTitle)
	papers.POST("/:id/submit", middleware.Audit(userRepo, "paper_submit", "paper"), paperHandler.Submit)
	papers.POST("/:id/validate", paperHandler.Validate)
	papers.POST("/:id/grade", middleware.Audit(userRepo, "paper_grade", "paper"), paperHandler.Grade)
	papers.POST("/:id/committee", middleware.RequireStaff(), paperHandler.AssignCommittee)

	papers.GET("/:id/documents", documentHandler.List)
	papers.POST("/:id/documents", documentHandler.Upload)
	papers.POST("/:id/documents/:name/sign", documentHandler.Sign)
	papers.GET("/:id/documents/:name/history", documentHandler.History)
	papers.GET("/:id/documents/:name/preview", middleware.RequireStaff(), documentHandler.Preview)
	papers.POST("/:id/regenerate", middleware.RequireStaff(), documentHandler.Regenerate)

	papers.GET("/:id/reuploads", reuploadHandler.List)
	papers.POST("/:id/reuploads", middleware.RequireStaff(), reuploadHandler.Create)
	authed.DELETE("/reuploads/:requestId", middleware.RequireStaff(), reuploadHandler.Cancel)

	authed.DELETE("/documents/:versionId", documentHandler.Delete)
	authed.GET("/documents/:versionId/url", documentHandler.DownloadURL)

	authed.GET("/session", sessionHandler.Get)
	authed.PUT("/session", middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary), sessionHandler.Update)

	authed.GET("/students/:id", studentHandler.GetProfile)
	authed.PUT("/students/:id/extra-data", studentHandler.UpdateExtraData)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
