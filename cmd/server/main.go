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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/database"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
)

const defaultShutdownTimeout = 30 * time.Second

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := log.GetLogger()
	logger.Info("Starting Berlin consent server...",
		log.String("version", version),
		log.String("build_date", buildDate))

	if err := run(); err != nil {
		logger.Fatal("Server stopped with error", log.Error(err))
	}
	logger.Info("Server exited gracefully")
}

func run() error {
	logger := log.GetLogger()

	// Priority: CONFIG_PATH env var > repository/conf/deployment.yaml > cmd/server/repository/conf/deployment.yaml
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, nil); err != nil {
		return err
	}
	logger.Info("Configuration loaded successfully", log.String("config_path", configPath))

	db, err := database.Initialize(&cfg.Database.Consent)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", log.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	idempotencyCache, redisClient, err := newIdempotencyCache(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	router := gin.New()
	router.Use(gin.Recovery())
	registerServices(router, cfg, db, idempotencyCache, redisClient, m)

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server...", log.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
