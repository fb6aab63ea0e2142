package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dialer-crm/internal/auth"
	"dialer-crm/internal/catalog"
	"dialer-crm/internal/config"
	"dialer-crm/internal/connectors"
	"dialer-crm/internal/dispositions"
	"dialer-crm/internal/httpapi"
	"dialer-crm/internal/metrics"
	"dialer-crm/internal/reach"
	"dialer-crm/pkg/logger"
	"dialer-crm/pkg/storage"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience; production injects env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := storage.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), storage.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := storage.OpenRedis(rootCtx, storage.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Collaborating functions; an unset URL leaves the action disabled.
	var bundle connectors.Bundle
	if u := cfg.Functions.WorkflowExecutorURL; u != "" {
		bundle.Workflows = connectors.NewWorkflowHTTP(u)
	}
	if u := cfg.Functions.SMSMessagingURL; u != "" {
		bundle.SMS = connectors.NewSMSHTTP(u)
	}
	if u := cfg.Functions.CalendarIntegrationURL; u != "" {
		bundle.Calendar = connectors.NewCalendarHTTP(u)
	}

	catalogSvc := catalog.NewService(catalog.NewPostgresRepo(db))
	metricsRepo := metrics.NewPostgresRepo(db)

	router := dispositions.NewRouter(
		dispositions.NewPostgresStore(db),
		catalogSvc,
		metrics.NewRecorder(metricsRepo, log),
		bundle,
		dispositions.DefaultTriggerSets(),
		log,
	)

	engine := httpapi.NewEngine(&httpapi.Server{
		Dispositions:  router,
		Catalog:       catalogSvc,
		Summary:       metrics.NewSummaryService(metricsRepo),
		Reach:         reach.NewService(reach.NewPostgresRepo(db)),
		Locker:        storage.NewLeadLocker(rdb),
		WebhookSecret: cfg.Webhook.Secret,
	}, authManager, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
