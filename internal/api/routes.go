package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"skillatlas/internal/ai"
	"skillatlas/internal/api/middleware"
	"skillatlas/internal/ats"
	"skillatlas/internal/auth"
	"skillatlas/internal/chat"
	"skillatlas/internal/config"
	"skillatlas/internal/intake"
	"skillatlas/internal/roadmap"
	"skillatlas/internal/storage"
	"skillatlas/internal/textextract"
)

// RegisterRoutes wires services and mounts all v1 endpoints.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	completer ai.Completer,
) {
	scorer := ats.NewScorer(completer, logger)
	intakeSvc := intake.NewService(db, textextract.Default{}, scorer, logger)
	roadmapSvc := roadmap.NewService(db, completer, scorer, logger)
	chatSvc := chat.NewService(db, completer, logger)

	// *storage.Client satisfies ObjectStorage but a nil concrete pointer must
	// not become a non-nil interface.
	var objectStorage ObjectStorage
	if storageClient != nil {
		objectStorage = storageClient
	}

	resumeHandler := NewResumeHandler(intakeSvc, objectStorage, asynqClient, redisClient, logger,
		cfg.Clamd.Addr, cfg.Upload.MaxBytes, cfg.Upload.MaxUploadsPerHour)
	pathHandler := NewPathHandler(roadmapSvc, intakeSvc)
	chatHandler := NewChatHandler(chatSvc)
	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.Auth.LoginRateLimitPerHour, cfg.Auth.CookieDomain)
	wsHandler := NewWsHandler(redisClient, authService, logger, nil)

	authMiddleware := middleware.AuthMiddleware(authService)
	optionalAuth := middleware.OptionalAuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.GET("/roles", pathHandler.Roles)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		resumeGroup := v1.Group("/resumes")
		{
			resumeGroup.POST("", optionalAuth, resumeHandler.Upload)
			resumeGroup.GET("", authMiddleware, resumeHandler.ListVersions)
			resumeGroup.GET("/compare", optionalAuth, resumeHandler.Compare)
			resumeGroup.GET("/:id", optionalAuth, resumeHandler.Get)
			resumeGroup.POST("/:id/report", optionalAuth, resumeHandler.EnqueueReport)
			resumeGroup.GET("/:id/report-link", optionalAuth, resumeHandler.ReportLink)

			resumeGroup.POST("/:id/path", optionalAuth, pathHandler.Generate)
			resumeGroup.GET("/:id/path", optionalAuth, pathHandler.Get)
			resumeGroup.PATCH("/:id/path/progress", optionalAuth, pathHandler.UpdateProgress)
		}

		chatGroup := v1.Group("/chat")
		chatGroup.Use(authMiddleware)
		{
			chatGroup.POST("", chatHandler.Send)
			chatGroup.GET("/history", chatHandler.History)
		}
	}
}
