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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/organicai/scanner/config"
	httpDelivery "github.com/organicai/scanner/internal/delivery/http"
	"github.com/organicai/scanner/internal/infrastructure/cache"
	"github.com/organicai/scanner/internal/infrastructure/cloudinary"
	"github.com/organicai/scanner/internal/infrastructure/vision"
	"github.com/organicai/scanner/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("version", "1.0.0").
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting Organic AI gateway")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize infrastructure dependencies
	mediaStore, err := cloudinary.NewClient(cloudinary.Options{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		Folder:    cfg.Cloudinary.Folder,
		BaseURL:   cfg.Cloudinary.BaseURL,
		PerMinute: cfg.RateLimit.Upload,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media store")
	}
	log.Info().Str("cloud", cfg.Cloudinary.CloudName).Str("folder", cfg.Cloudinary.Folder).Msg("media store configured")

	model, err := vision.New(ctx, vision.Options{
		Provider:  cfg.Vision.Provider,
		APIKey:    cfg.Vision.APIKey,
		Model:     cfg.Vision.Model,
		BaseURL:   cfg.Vision.BaseURL,
		MaxTokens: cfg.Vision.MaxTokens,
		Timeout:   cfg.Vision.Timeout,
		PerMinute: cfg.RateLimit.Analyze,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vision model")
	}
	log.Info().Str("provider", cfg.Vision.Provider).Str("model", cfg.Vision.Model).Msg("vision model configured")

	visitors := cache.NewMemoryCache()
	defer visitors.Close()

	// Initialize usecase layer
	mediaService := usecase.NewMediaService(mediaStore)
	analysisService := usecase.NewAnalysisService(model, usecase.AnalysisServiceConfig{
		StrictParse: cfg.Analysis.StrictParse,
	})

	handler := httpDelivery.NewHandler(mediaService, analysisService)
	router := httpDelivery.SetupRouter(cfg, handler, visitors)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

// setupLogging writes human-readable logs in development and JSON otherwise
func setupLogging(environment string) {
	if environment == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
