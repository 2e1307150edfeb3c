// Package main runs a mock inventory REST API for local development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JJCAR01/UX/internal/config"
	"github.com/JJCAR01/UX/internal/logging"
	"github.com/JJCAR01/UX/internal/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, "mockinv")
	if err != nil {
		log.Fatal("failed to create logger", "err", err)
	}

	srv, err := mockapi.New(mockapi.Config{
		Secret:   []byte(cfg.MockJWTSecret),
		TokenTTL: cfg.MockTokenTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to create mock server", "err", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("mock inventory API listening", "addr", cfg.MockAddr, "products", len(srv.Store().List()))
		for _, u := range mockapi.DefaultUsers {
			logger.Info("demo account", "email", u.Email, "password", u.Password, "role", u.Role)
		}
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
