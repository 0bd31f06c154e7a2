package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/walletbook/walletbook/internal/config"
	"github.com/walletbook/walletbook/internal/ledger"
	"github.com/walletbook/walletbook/internal/logging"
	"github.com/walletbook/walletbook/internal/server"
	"github.com/walletbook/walletbook/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx := context.Background()

	snapshots, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("open snapshot store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logger.Warn("close snapshot store", "error", err)
		}
	}()

	store := ledger.NewStore(snapshots, logger)
	if snap, ok, err := snapshots.Load(ctx); err != nil {
		logger.Error("load snapshot", "error", err)
		os.Exit(1)
	} else if ok {
		store.Restore(snap)
	}
	wallet := store.Bootstrap(ctx)
	logger.Info("ledger ready",
		"driver", cfg.StoreDriver,
		"wallets", len(store.Wallets()),
		"active_wallet", wallet.Name,
	)

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
