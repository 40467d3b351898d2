// Package main seeds the configured token store with demo tokens across every
// benefit category, for local development and station testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"lightera/qrhub/internal/config"
	"lightera/qrhub/internal/model"
	"lightera/qrhub/internal/repository"
	"lightera/qrhub/internal/service"
)

func main() {
	var (
		configPath string
		duration   time.Duration
		perCat     int
	)
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.DurationVar(&duration, "duration", 72*time.Hour, "token validity window")
	flag.IntVar(&perCat, "per-category", 1, "tokens to mint per category per recipient")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("failed to open token store: %v", err)
	}

	tokenService := service.NewTokenService(repo, repository.NewMemoryReportCache(), time.Second)
	ctx := context.Background()

	recipients := []struct {
		id   string
		name string
	}{
		{"EMP001", "Maria Silva"},
		{"EMP002", "João Santos"},
		{"EMP003", "Ana Costa"},
		{"EMP004", "Pedro Oliveira"},
	}

	minted := 0
	for _, r := range recipients {
		for _, cat := range model.Categories() {
			for i := 0; i < perCat; i++ {
				token, err := tokenService.Mint(ctx, string(cat), r.id, duration, "seeded for "+r.name)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mint %s/%s: %v\n", r.id, cat, err)
					os.Exit(1)
				}
				fmt.Printf("%-8s %-10s %s (expires %s)\n",
					r.id, cat, token.Code, token.ExpiresAt.Format(time.RFC3339))
				minted++
			}
		}
	}
	fmt.Printf("seeded %d tokens\n", minted)
}

func openRepository(cfg *config.Config) (repository.TokenRepository, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Backend {
	case "postgres":
		db, err = config.NewPostgresDB(cfg.Database.Postgres)
	case "sqlite":
		db, err = config.NewSQLiteDB(cfg.Database.SQLite)
	default:
		return nil, fmt.Errorf("seed requires a durable backend, got %q", cfg.Database.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return repository.NewGormTokenRepository(db), nil
}
