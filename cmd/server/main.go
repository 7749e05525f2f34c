// Command server runs the marketplace HTTP API.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration
//  2. Configure global logging (level, optional pretty console output)
//  3. Initialize OpenTelemetry tracing (optional, OTLP/gRPC)
//  4. Connect to MongoDB and ensure indexes
//  5. Build the Gin engine, register middleware and routes
//  6. Serve with sane timeouts and shut down gracefully on SIGINT/SIGTERM
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/farmlink/go-market-backend/internal/config"
	httpapi "github.com/farmlink/go-market-backend/internal/http"
	"github.com/farmlink/go-market-backend/internal/observability"
	"github.com/farmlink/go-market-backend/internal/repo"
	"github.com/farmlink/go-market-backend/internal/sysutil"

	_ "github.com/farmlink/go-market-backend/docs"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title           FarmLink Market API
// @version         1.0
// @description     Agricultural marketplace backend: crop listings, buyer interests, and user records.
// @BasePath        /
func main() {
	// Best effort: a missing .env file is fine in container deployments.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	client, db, err := repo.Connect(connectCtx, cfg.Mongo)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Str("uri", "mongodb://***").Msg("mongo connect failed")
	}
	if err := repo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("db", cfg.Mongo.Database).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Block until we receive a termination signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("bye")
}
