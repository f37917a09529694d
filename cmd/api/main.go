package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiftLink-io/giftlink/internal/api"
	"github.com/GiftLink-io/giftlink/internal/auth"
	"github.com/GiftLink-io/giftlink/internal/config"
	"github.com/GiftLink-io/giftlink/internal/database"
	"github.com/GiftLink-io/giftlink/internal/logging"
	"github.com/GiftLink-io/giftlink/internal/storage"
	"github.com/GiftLink-io/giftlink/internal/store"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	logger := logging.New("api", slog.LevelInfo)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting giftlink api", "version", version, "port", cfg.APIPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := database.NewManager(cfg.Mongo.URL, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout, logger.With("component", "database"))

	// Connect eagerly so the first request does not pay the dial cost. A
	// failure here is not fatal: the manager retries on the next acquire.
	if _, err := manager.Acquire(ctx); err != nil {
		logger.Warn("database not reachable at startup", "error", err)
	}

	dataStore := store.New(manager, logger.With("component", "store"))
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	accounts := auth.NewService(dataStore, hasher, tokens, logger.With("component", "auth"), cfg.Auth.MinPasswordLen)

	var images api.ImageStore
	if cfg.ImagesEnabled() {
		client, err := storage.NewClient(cfg.Storage.Endpoint, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.AccessKey, cfg.Storage.SecretKey)
		if err != nil {
			logger.Error("failed to configure image storage", "error", err)
			os.Exit(1)
		}
		images = client
	}

	handler := api.NewApi(logger.With("component", "http"), accounts, tokens, dataStore, images)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Error("database shutdown failed", "error", err)
		}
		logger.Info("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
