// cmd/worker-manager/main.go
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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ats-scoring/internal/app"
	"ats-scoring/internal/common/camunda"
	"ats-scoring/internal/common/config"
	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/common/observability"
	"ats-scoring/pkg/registry"

	rc "ats-scoring/internal/workers/scoring/replace-requisition-criteria"
	rr "ats-scoring/internal/workers/scoring/rescore-requisition"
	sa "ats-scoring/internal/workers/scoring/score-application"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)
	defer zapLog.Sync()

	if err := run(cfg, logger.NewZapAdapter(zapLog)); err != nil {
		zapLog.Fatal("worker manager failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting worker manager", nil)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Shutdown(shutdownCtx)
	}()

	zeebe, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFromSettings(cfg.Camunda))
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	deps, err := app.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	orchestrator, err := app.NewOrchestrator(cfg, deps, log)
	if err != nil {
		return err
	}
	reg := registry.Default()

	pool := camunda.NewPool(zeebe.GetClient(), log)
	pool.Start(sa.TaskType, config.GetWorkerConfig(cfg, sa.TaskType),
		sa.NewHandler(sa.LoadConfig(config.GetWorkerConfig(cfg, sa.TaskType)), orchestrator, reg, obs, log))
	pool.Start(rr.TaskType, config.GetWorkerConfig(cfg, rr.TaskType),
		rr.NewHandler(rr.LoadConfig(config.GetWorkerConfig(cfg, rr.TaskType)), orchestrator, reg, obs, log))
	pool.Start(rc.TaskType, config.GetWorkerConfig(cfg, rc.TaskType),
		rc.NewHandler(rc.LoadConfig(config.GetWorkerConfig(cfg, rc.TaskType)), orchestrator, reg, obs, log))
	log.Info("workers registered", map[string]interface{}{"taskTypes": pool.TaskTypes()})

	checks := map[string]readinessCheck{
		"postgres": deps.Postgres.Ping,
		"redis":    deps.Redis.Ping,
		"zeebe":    zeebe.HealthCheck,
	}
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newHealthMux(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("health/metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutdown signal received, stopping workers", nil)

		pool.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("worker manager stopped gracefully", nil)
	return nil
}
