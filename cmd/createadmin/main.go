package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/config"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/observability"
	"github.com/edgepredict/simulation-service/internal/persistence"
	"github.com/edgepredict/simulation-service/internal/repository"
)

// createadmin bootstraps the first administrator account so the admin
// endpoints are reachable on a fresh deployment.
func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	users := repository.NewUserRepository(pg.PoolHandle())

	if existing, err := users.GetByEmail(ctx, *email); err == nil && existing != nil {
		logger.Fatal("account already exists", zap.String("email", *email))
	}

	hasher := auth.NewHasher(cfg.Auth.PBKDF2Iterations)
	salt, err := auth.GenerateSalt()
	if err != nil {
		logger.Fatal("failed to generate salt", zap.Error(err))
	}

	digest, err := hasher.Hash(*password, salt)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	user := &domain.User{
		Email:        *email,
		PasswordHash: digest,
		PasswordSalt: salt,
		IsAdmin:      true,
		// Admins bypass subscription gating, so no expiry is set.
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}

	logger.Info("admin account created", zap.String("email", user.Email), zap.String("id", user.ID))
}
