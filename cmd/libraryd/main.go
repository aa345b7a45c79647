// Command libraryd serves the library over HTTP.
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

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/httpapi"
	"github.com/AntonStoeckl/library-ledger-go/library/shell/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "libraryd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err = cfg.ValidateServer(); err != nil {
		return err
	}

	logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lib, err := library.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := lib.Close(context.Background()); closeErr != nil {
			logger.Error("closing library failed", "error", closeErr.Error())
		}
	}()

	srv, err := httpapi.NewServer(
		lib,
		cfg.JWTSecret,
		httpapi.WithTokenTTL(cfg.TokenTTL),
		httpapi.WithMaxUploadBytes(cfg.MaxUploadMB<<20),
		httpapi.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		logger.Info("server listening", "addr", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")

	return nil
}
