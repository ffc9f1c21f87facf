package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "https://backend-mobilis-production.up.railway.app/api"

	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string
	APIBaseURL     string
	DatabaseURL    string
	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DigestInterval time.Duration
	DigestTime     string
	ReturnDelay    time.Duration
	HTTPTimeout    time.Duration
}

// DevBackend keeps settings for the local backend stand-in.
type DevBackend struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		TelegramToken:  env("TELEGRAM_TOKEN"),
		APIBaseURL:     env("API_BASE_URL"),
		DatabaseURL:    env("DATABASE_URL"),
		StorageBackend: strings.ToLower(env("STORAGE_BACKEND")),
		RedisAddr:      env("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		DigestInterval: parseHours(env("DIGEST_INTERVAL_HOURS")),
		DigestTime:     env("DIGEST_TIME"),
		ReturnDelay:    1500 * time.Millisecond,
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "field_agent.db"
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StorageSQLite
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	var err error
	if cfg.RedisDB, err = parseInt("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	delayMS, err := parseInt("RETURN_DELAY_MS", 1500)
	if err != nil {
		return cfg, err
	}
	cfg.ReturnDelay = time.Duration(delayMS) * time.Millisecond
	timeoutSeconds, err := parseInt("HTTP_TIMEOUT_SECONDS", 0)
	if err != nil {
		return cfg, err
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	switch cfg.StorageBackend {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return cfg, fmt.Errorf("STORAGE_BACKEND must be one of sqlite, redis, memory, got %q", cfg.StorageBackend)
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// LoadDevBackend reads the dev backend settings.
func LoadDevBackend() (DevBackend, error) {
	if err := loadDotEnv(); err != nil {
		return DevBackend{}, err
	}

	cfg := DevBackend{
		Port:      env("DEV_BACKEND_PORT"),
		JWTSecret: env("JWT_SECRET"),
		TokenTTL:  parseHours(env("TOKEN_TTL_HOURS")),
	}
	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-me"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseInt(key string, fallback int) (int, error) {
	raw := env(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return value, nil
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
