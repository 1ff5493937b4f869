package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoornstra/missmeester/internal/api"
	"github.com/hoornstra/missmeester/internal/config"
	"github.com/hoornstra/missmeester/internal/db"
	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/logger"
	"github.com/hoornstra/missmeester/internal/repository/sqlite"
	"github.com/hoornstra/missmeester/internal/services"
	"github.com/hoornstra/missmeester/internal/tactics"
	"github.com/hoornstra/missmeester/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Missmeester Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("eval_backend=%s", cfg.EvalBackend)
	log.Debug("engine_path=%s", cfg.EnginePath)
	log.Debug("search_depth=%d", cfg.SearchDepth)
	log.Debug("delta_small=%.0f delta_large=%.0f", cfg.DeltaSmall, cfg.DeltaLarge)
	log.Debug("analysis_worker_count=%d", cfg.AnalysisWorkerCount)
	log.Debug("analysis_queue_size=%d", cfg.AnalysisQueueSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Each analysis job gets its own evaluator session so engine state never
	// leaks between batches.
	newEvaluator := func() (eval.Evaluator, error) {
		if cfg.EvalBackend == config.BackendCloud {
			return eval.NewCloudEvaluator(cfg.CloudBaseURL, cfg.CloudToken), nil
		}
		return eval.NewEngineEvaluator(cfg.EnginePath, cfg.SearchDepth)
	}

	analysisPool := worker.NewPool(cfg.AnalysisWorkerCount, cfg.AnalysisQueueSize)

	srv := &api.Server{
		Registry:     services.NewBatchRegistry(),
		BatchService: services.NewBatchService(),
		TacticRepo:   sqlite.NewTacticRepository(database.DB),
		AnalysisPool: analysisPool,
		NewEvaluator: newEvaluator,
		Classifier: tactics.Config{
			DeltaSmall: cfg.DeltaSmall,
			DeltaLarge: cfg.DeltaLarge,
		},
		MaxBatchSize: 10 << 20,
	}

	ctx, cancel := context.WithCancel(context.Background())
	analysisPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping worker pool")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	analysisPool.Stop()

	log.Info("===========================================")
	log.Info("Missmeester Server Stopped")
	log.Info("===========================================")
}
