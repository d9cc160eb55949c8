// Package main wires together the crawldeck control panel binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/josiah-nelson/crawldeck/internal/api"
	"github.com/josiah-nelson/crawldeck/internal/clock/system"
	"github.com/josiah-nelson/crawldeck/internal/config"
	"github.com/josiah-nelson/crawldeck/internal/gateway"
	"github.com/josiah-nelson/crawldeck/internal/id/uuid"
	"github.com/josiah-nelson/crawldeck/internal/jobs"
	"github.com/josiah-nelson/crawldeck/internal/logging"
	"github.com/josiah-nelson/crawldeck/internal/metrics"
	"github.com/josiah-nelson/crawldeck/internal/store/jsonfile"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env failed: %v\n", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	jobStore := jsonfile.NewJobStore(cfg.Storage.Root)
	settingsStore := jsonfile.NewSettingsStore(cfg.Storage.Root, cfg.DefaultSettings())
	profileStore := jsonfile.NewAuthProfileStore(cfg.Storage.Root)
	providerStore := jsonfile.NewProviderStore(cfg.Storage.Root)
	clock := system.New()
	idGen := uuid.New()

	gw := gateway.NewClient(cfg.GatewayTimeout(), logger.Named("gateway"))
	manager := jobs.NewManager(jobStore, settingsStore, gw, clock, idGen, logger.Named("jobs"))

	// Requests must be able to outlast the synchronous crawl proxy.
	requestTimeout := cfg.GatewayTimeout() + 30*time.Second
	apiServer := api.NewServer(
		manager,
		gw,
		settingsStore,
		profileStore,
		providerStore,
		idGen,
		logger.Named("api"),
		requestTimeout,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
