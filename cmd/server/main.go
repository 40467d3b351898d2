package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lightera/qrhub/internal/config"
	"lightera/qrhub/internal/handler"
	"lightera/qrhub/internal/model"
	"lightera/qrhub/internal/repository"
	"lightera/qrhub/internal/service"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Initialize token store
	tokenRepo, err := newTokenRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize token store", zap.Error(err))
	}

	// 4. Initialize report cache (Redis or in-memory)
	var reportCache repository.ReportCache
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		reportCache = repository.NewRedisReportCache(redisClient)
		logger.Info("using Redis report cache")
	case "memory":
		reportCache = repository.NewMemoryReportCache()
		logger.Info("using in-memory report cache")
	default:
		logger.Fatal("unknown cache backend", zap.String("backend", cfg.Cache.Backend))
	}

	// 5. Initialize service and handler
	tokenService := service.NewTokenService(tokenRepo, reportCache, cfg.Cache.TTL)
	tokenHandler := handler.NewTokenHandler(tokenService)

	// 6. Setup router
	router := handler.SetupRouter(cfg, logger, tokenHandler)

	// 7. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 8. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 9. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

func newTokenRepository(cfg *config.Config, logger *zap.Logger) (repository.TokenRepository, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Backend {
	case "postgres":
		db, err = config.NewPostgresDB(cfg.Database.Postgres)
		logger.Info("using postgres token store")
	case "sqlite":
		db, err = config.NewSQLiteDB(cfg.Database.SQLite)
		logger.Info("using embedded sqlite token store", zap.String("path", cfg.Database.SQLite.Path))
	case "memory":
		logger.Warn("using in-memory token store; tokens will not survive a restart")
		return repository.NewMemoryTokenRepository(), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info("database migration completed")
	}
	return repository.NewGormTokenRepository(db), nil
}
