package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	// Init logger (global singleton)
	logging.InitFromConfig(cfg)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("failed to initialize server")
		os.Exit(1)
	}

	go func() {
		logging.Info().Str("addr", srv.HTTP.Addr).Str("store", cfg.Store.Backend).Msg("server starting")
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
	logging.Info().Msg("server stopped")
}
