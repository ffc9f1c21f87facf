package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"field-agent/internal/config"
	"field-agent/internal/devbackend"
	"field-agent/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDevBackend()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownTelemetry := telemetry.Setup("field-agent-devbackend")
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	store := devbackend.NewStore()
	if err := devbackend.Seed(store, time.Now()); err != nil {
		log.Fatalf("seed: %v", err)
	}
	engine := devbackend.NewRouter(store, devbackend.NewTokens(cfg.JWTSecret, cfg.TokenTTL))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(engine, "field-agent-devbackend"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("dev backend listening on %s (login %s / %s)", server.Addr, devbackend.DemoEmail, devbackend.DemoPassword)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
