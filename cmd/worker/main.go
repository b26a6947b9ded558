package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/config"
	"github.com/edgepredict/simulation-service/internal/engine"
	"github.com/edgepredict/simulation-service/internal/observability"
	"github.com/edgepredict/simulation-service/internal/persistence"
	"github.com/edgepredict/simulation-service/internal/queue"
	"github.com/edgepredict/simulation-service/internal/repository"
	"github.com/edgepredict/simulation-service/internal/worker"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	simulationRepo := repository.NewSimulationRepository(pg.PoolHandle())
	workspaces := workspace.NewManager(cfg.Workspace)
	runner := engine.NewDockerRunner(cfg.Engine, logger)
	metrics := observability.NewMetrics()
	dispatchQueue := queue.New(redis.Client, cfg.Engine.QueueKey)

	executor := worker.NewExecutor(simulationRepo, workspaces, runner, metrics, logger, cfg.Engine.RetainWorkspaces)

	logger.Info("worker started",
		zap.String("queue", cfg.Engine.QueueKey),
		zap.String("engine_image", cfg.Engine.Image))

	executor.Run(ctx, dispatchQueue, cfg.Engine.DequeueTimeout())

	logger.Info("worker stopped")
}
