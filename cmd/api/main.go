package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/analysis"
	httptransport "github.com/edgepredict/simulation-service/internal/api/http"
	"github.com/edgepredict/simulation-service/internal/api/http/handlers"
	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/config"
	"github.com/edgepredict/simulation-service/internal/observability"
	"github.com/edgepredict/simulation-service/internal/persistence"
	"github.com/edgepredict/simulation-service/internal/queue"
	"github.com/edgepredict/simulation-service/internal/repository"
	"github.com/edgepredict/simulation-service/internal/service"
	"github.com/edgepredict/simulation-service/internal/storage"
	"github.com/edgepredict/simulation-service/internal/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store, err := storage.NewStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init object store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	simulationRepo := repository.NewSimulationRepository(pool)
	toolRepo := repository.NewToolRepository(pool)
	materialRepo := repository.NewMaterialRepository(pool)
	accessRequestRepo := repository.NewAccessRequestRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	metrics := observability.NewMetrics()
	notifier := service.NewLogNotifier(logger, cfg.Notification)
	workspaces := workspace.NewManager(cfg.Workspace)
	dispatchQueue := queue.New(redis.Client, cfg.Engine.QueueKey)
	analyzer := analysis.NewAnalyzer(simulationRepo, analysis.NewHTTPCompletionClient(cfg.Analysis), logger, cfg.Analysis.MaxSeriesPoints)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Notifier:          notifier,
	})
	simulationService := service.NewSimulationService(simulationRepo, toolRepo, store, workspaces, dispatchQueue, analyzer, logger)
	toolService := service.NewToolService(toolRepo, store, logger)
	materialService := service.NewMaterialService(materialRepo)
	adminService := service.NewAdminService(*cfg, userRepo, accessRequestRepo, resetRepo, notifier)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Simulations:    handlers.NewSimulationsHandler(simulationService),
		Tools:          handlers.NewToolsHandler(toolService),
		Materials:      handlers.NewMaterialsHandler(materialService),
		Admin:          handlers.NewAdminHandler(adminService),
		AccessRequests: handlers.NewAccessRequestsHandler(adminService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
