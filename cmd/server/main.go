// Command server runs the outreach dashboard API.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-monitor/internal/api"
	"github.com/ignite/outreach-monitor/internal/auth"
	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/ignite/outreach-monitor/internal/orchestrator"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/render"
	"github.com/ignite/outreach-monitor/internal/repository/postgres"
	"github.com/ignite/outreach-monitor/internal/service/email"
	"github.com/ignite/outreach-monitor/internal/service/lead"
	"github.com/ignite/outreach-monitor/internal/service/metrics"
	"github.com/ignite/outreach-monitor/internal/service/setting"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	default:
		logger.SetLevel(logger.INFO)
	}
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	if cfg.Database.URL == "" {
		logger.Error("database url is required (config database.url or DATABASE_URL)")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Error("ping database", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("database connected")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Error("ping redis", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("redis connected", "addr", cfg.Redis.Addr)

	leadRepo := postgres.NewLeadRepo(db)
	emailRepo := postgres.NewEmailRepo(db)
	settingRepo := postgres.NewSettingRepo(db)

	leadSvc := lead.NewService(leadRepo)
	emailSvc := email.NewService(emailRepo, leadSvc, render.NewEngine())
	settingSvc := setting.NewService(settingRepo)
	metricsSvc := metrics.NewService(leadRepo)
	orch := orchestrator.NewService(leadSvc, emailSvc, settingSvc, cfg.Webhook.Timeout())
	deduper := orchestrator.NewDeduper(rdb, cfg.Redis.DedupTTL())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var authManager *auth.Manager
	if cfg.Auth.Enabled {
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
			baseURL = v
		}
		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions(rootCtx)
	} else {
		logger.Warn("auth disabled, api is unprotected")
	}

	handlers := api.NewHandlers(leadSvc, emailSvc, metricsSvc, settingSvc, orch, deduper)
	router := api.SetupRoutes(handlers, authManager, cfg.Server.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server failed", "error", err.Error())
		os.Exit(1)
	case <-rootCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
	logger.Info("server stopped")
}
