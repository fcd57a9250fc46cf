package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MediNotify/internal/api"
	"MediNotify/internal/config"
	"MediNotify/internal/db"
	"MediNotify/internal/dispatch"
	"MediNotify/internal/metrics"
	"MediNotify/internal/orchestrator"
	"MediNotify/internal/provider"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Database
	// ------------------------------------------------
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()
	serveMetrics(logger, cfg.MetricsPort)

	// ------------------------------------------------
	// Job Channel (shared by API + workers)
	// ------------------------------------------------
	jobs := make(chan uuid.UUID, cfg.QueueSize)

	// ------------------------------------------------
	// Dispatch Worker + Pool
	// ------------------------------------------------
	worker := &dispatch.Worker{
		Store: store,
		Resolve: dispatch.DefaultResolver(provider.Options{
			ResendBaseURL:  cfg.ResendBaseURL,
			MailgunBaseURL: cfg.MailgunBaseURL,
		}),
		Log: logger,
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)

	var wg sync.WaitGroup
	dispatch.StartPool(ctx, &wg, cfg.WorkerCount, jobs, worker, limiter, logger)

	// ------------------------------------------------
	// Queue Writer + Orchestrator
	// ------------------------------------------------
	queue := &dispatch.Queue{
		Store: store,
		Jobs:  jobs,
		Log:   logger,
	}

	feed := api.NewRecordFeed(200)

	orch := &orchestrator.Orchestrator{
		Templates:     store,
		Queue:         queue,
		SendSMS:       orchestrator.SimulatedChannel("sms", logger),
		SendWhatsApp:  orchestrator.SimulatedChannel("whatsapp", logger),
		OnRecord:      feed.Add,
		RetryAttempts: cfg.RetryAttempts,
		RetryBase:     time.Duration(cfg.RetryBaseMS) * time.Millisecond,
		Log:           logger,
	}

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := &api.Handler{
		Worker:       worker,
		Queue:        queue,
		Templates:    store,
		Orchestrator: orch,
		Logs:         store,
		Feed:         feed,
		Log:          logger,
	}

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: api.CORS(apiHandler.Routes()),
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	// Stop accepting new jobs
	close(jobs)

	// Wait workers to finish
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}

func serveMetrics(logger *zap.Logger, port string) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + port,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", port))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()
}
