package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "whisper-transcription-service/internal/api/http"
	"whisper-transcription-service/internal/app"
	"whisper-transcription-service/internal/config"
	"whisper-transcription-service/internal/events"
	"whisper-transcription-service/internal/observability"
	"whisper-transcription-service/internal/observability/logging"
	"whisper-transcription-service/internal/service/staging"
	"whisper-transcription-service/internal/service/transcribe"
)

const serviceVersion = "1.0.0"

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})
	logger := logging.WithComponent("main")

	logger.Info().
		Str("service", cfg.Service.Name).
		Str("version", serviceVersion).
		Str("engineProvider", cfg.Engine.Provider).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Load the recognition engine once. Failure here is fatal: the
	// service never reaches serving state without an engine.
	application := app.New(cfg)
	if err := application.Start(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Engine failed to initialize")
	}

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	store := staging.New(cfg.Staging.Dir, logging.WithComponent("staging"))
	invoker := transcribe.New(application.Engine, logging.WithComponent("invoker"))
	handler := httpapi.NewHandler(invoker, store, publisher,
		logging.WithComponent("http"), cfg.Service.MaxUploadBytes)

	obsServer := observability.NewServer(cfg.Observability.Addr)
	obsServer.Start()

	server := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: httpapi.NewRouter(handler),
		// No WriteTimeout: inference legitimately holds a response open
		// for minutes and is not preemptible.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Observability server shutdown failed")
	}

	application.Shutdown()
}
