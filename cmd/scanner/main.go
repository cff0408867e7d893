package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/config"
	"github.com/organicai/scanner/internal/capture"
	"github.com/organicai/scanner/internal/gateway"
	"github.com/organicai/scanner/internal/scan"
	"github.com/organicai/scanner/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	gatewayURL := flag.String("gateway", "", "gateway base URL (overrides config)")
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		return 1
	}
	if *gatewayURL != "" {
		cfg.Client.GatewayURL = *gatewayURL
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanner: open log file: %v\n", err)
		return 1
	}
	defer logFile.Close()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, NoColor: true})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	device, err := capture.NewCommandDevice(cfg.Client.CameraCommand)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		return 1
	}

	tokens, emit := ui.TokenChannel()
	capturer := capture.New(device, capture.NewProductCodeDecoder(), emit, capture.Options{
		FrameInterval: cfg.Client.FrameInterval,
	})
	defer capturer.Close()

	orchestrator := scan.NewOrchestrator(gateway.NewClient(cfg.Client.GatewayURL, 0))

	log.Info().Str("gateway", cfg.Client.GatewayURL).Msg("scanner started")

	if err := ui.Run(ui.Options{
		Context:      ctx,
		Capturer:     capturer,
		Orchestrator: orchestrator,
		Tokens:       tokens,
	}); err != nil {
		log.Error().Err(err).Msg("ui exited with error")
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		return 1
	}

	log.Info().Msg("scanner stopped")
	return 0
}
