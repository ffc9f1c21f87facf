package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"field-agent/internal/apiclient"
	"field-agent/internal/app"
	"field-agent/internal/bot"
	"field-agent/internal/config"
	"field-agent/internal/repository"
	"field-agent/internal/service"
	"field-agent/internal/storage"
	"field-agent/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownTelemetry := telemetry.Setup("field-agent")
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	var provider storage.Provider
	switch cfg.StorageBackend {
	case config.StorageRedis:
		client, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		provider = storage.NewRedisProvider(client)
	case config.StorageMemory:
		provider = storage.NewMemory()
	default:
		provider = repository.NewKVRepository(db)
	}
	log.Printf("[info] session storage: %s", cfg.StorageBackend)

	factory := app.NewFactory(provider, cfg.APIBaseURL, apiclient.NewHTTPClient(cfg.HTTPTimeout))
	telegramBot, err := bot.New(cfg.TelegramToken, repository.NewChatRepository(db), factory, service.NewDigestService(), bot.Options{
		ReturnDelay: cfg.ReturnDelay,
	})
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	sendDigests := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := telegramBot.SendDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("digest: %v", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.DigestInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.DigestInterval, sendDigests); err != nil {
			log.Fatalf("schedule digest: %v", err)
		}
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, sendDigests); err != nil {
			log.Fatalf("schedule daily digest: %v", err)
		}
	}
	if scheduler.Len() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Println("Field agent bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
