package main

import (
	"context"
	"fmt"
	"os"

	"github.com/d60-Lab/fan-platform/config"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/database"
	"github.com/d60-Lab/fan-platform/pkg/logger"
)

// Seeds a development database with one test user (signup point grant
// applied) and one creator owned by that user. Idempotent: re-running
// against an already seeded database is a no-op.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	creatorRepo := repository.NewCreatorRepository(db)
	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Platform.SignupPointGrant)
	creatorSvc := service.NewCreatorService(creatorRepo, repository.NewSupporterRepository(db),
		service.NewSplitCalculator(cfg.Platform.FeeRate), service.NewKeyLock())

	existing, err := userRepo.GetByUsername(ctx, "testuser")
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Println("sample data already present")
		return nil
	}

	user, err := authSvc.Register(ctx, "testuser", "password123", "test@example.com")
	if err != nil {
		return err
	}
	creator, err := creatorSvc.Create(ctx, user.ID, service.CreatorCreate{
		Name:            "Sample Creator",
		Description:     "Seeded creator profile for local development",
		Category:        "VTuber",
		CreatorFanSplit: 0.8,
		AllowAIContent:  true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("seeded user %q (points: %.0f) and creator %q (split %.2f)\n",
		user.Username, user.FreePoints, creator.Name, creator.CreatorFanSplit)
	return nil
}
