package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/fan-platform/config"
	"github.com/d60-Lab/fan-platform/internal/api"
	"github.com/d60-Lab/fan-platform/internal/api/handler"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/database"
	"github.com/d60-Lab/fan-platform/pkg/logger"
	"github.com/d60-Lab/fan-platform/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, "fan-platform", cfg.Tracing.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Server.Mode}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := cache.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, stats caching disabled", zap.Error(err))
			cache = nil
		}
	}

	userRepo := repository.NewUserRepository(db)
	creatorRepo := repository.NewCreatorRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	fileRepo := repository.NewFileRepository(db)
	supporterRepo := repository.NewSupporterRepository(db)

	locks := service.NewKeyLock()
	split := service.NewSplitCalculator(cfg.Platform.FeeRate)
	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Platform.SignupPointGrant)
	creatorSvc := service.NewCreatorService(creatorRepo, supporterRepo, split, locks)
	supportSvc := service.NewSupportService(db, supportRepo, locks)
	fileSvc, err := service.NewFileService(fileRepo, creatorRepo, cfg.Upload.Dir, cfg.Upload.MaxFileSize, cfg.Upload.AllowedExts)
	if err != nil {
		return err
	}
	statsSvc := service.NewStatsService(supportRepo, creatorRepo, userRepo, cache, cfg.Redis.StatsTTL, cfg.Platform.FeeRate)

	h := handler.New(cfg, authSvc, creatorSvc, supportSvc, fileSvc, statsSvc)
	router := api.NewRouter(cfg, h, authSvc, sentryEnabled)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
