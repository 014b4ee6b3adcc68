package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rosterhub/workflow-engine/internal/config"
	"github.com/rosterhub/workflow-engine/internal/scheduler"
	"github.com/rosterhub/workflow-engine/internal/service"
	"github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/pkg/log"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Named("main").Info("starting workflow engine")
	defer zap.S().Named("main").Info("workflow engine stopped")

	db, err := store.InitDB(cfg)
	if err != nil {
		zap.S().Named("main").Fatalf("initializing data store: %v", err)
	}

	s := store.NewStore(db)
	defer s.Close()

	if err := s.InitialMigration(); err != nil {
		zap.S().Named("main").Fatalf("running initial migration: %v", err)
	}
	if err := s.Seed(); err != nil {
		zap.S().Named("main").Fatalf("seeding counters: %v", err)
	}

	location, err := time.LoadLocation(cfg.Service.Timezone)
	if err != nil {
		zap.S().Named("main").Fatalf("loading timezone %q: %v", cfg.Service.Timezone, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	workflowService := service.NewWorkflowService(s)
	statsService := service.NewStatsService(s, location)
	sched := scheduler.New(s, workflowService, statsService, cfg.Service.SweepInterval, cfg.Service.SweepTimeout)

	go func() {
		sched.Run(ctx)
		cancel()
	}()

	go func() {
		if err := runMetricsServer(ctx, cfg.Service.MetricsAddress); err != nil {
			zap.S().Named("main").Errorf("metrics server: %v", err)
		}
		cancel()
	}()

	<-ctx.Done()
}

func runMetricsServer(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
