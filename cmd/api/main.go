package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"skillatlas/internal/ai"
	"skillatlas/internal/api"
	"skillatlas/internal/auth"
	"skillatlas/internal/config"
	"skillatlas/internal/database"
	"skillatlas/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database ready", slog.String("host", cfg.Database.Host), slog.String("name", cfg.Database.Name))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage ready", slog.String("bucket", cfg.MinIO.Bucket))

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	authService, err := loadAuthService(cfg)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	completer := buildCompleterChain(cfg, logger)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, cfg, db, asynqClient, authService, redisClient, logger, storageClient, completer)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("start api server: %v", err)
	}
}

func loadAuthService(cfg *config.Config) (*auth.AuthService, error) {
	privatePEM, err := os.ReadFile(cfg.Auth.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	publicPEM, err := os.ReadFile(cfg.Auth.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return auth.NewAuthService(privatePEM, publicPEM, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
}

// buildCompleterChain assembles the provider fallback order: primary first,
// secondary second. Unconfigured providers are skipped; an empty chain still
// works because every caller has a rule-based fallback.
func buildCompleterChain(cfg *config.Config, logger *slog.Logger) ai.Completer {
	providers := make([]ai.Completer, 0, 2)
	if cfg.AI.Primary.Enabled() {
		providers = append(providers, ai.NewClient("primary", cfg.AI.Primary, cfg.AI.Timeout))
	}
	if cfg.AI.Secondary.Enabled() {
		providers = append(providers, ai.NewClient("secondary", cfg.AI.Secondary, cfg.AI.Timeout))
	}
	if len(providers) == 0 {
		logger.Warn("no completion provider configured, degraded scoring and roadmaps only")
	}
	return ai.NewChain(logger, providers...)
}
