package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int
	// probe and metrics port of the standalone sync worker
	WorkerPort int

	// durable storage: "file" (default) or "postgres"
	StoreBackend string
	DataDir      string
	DBURL        string

	// best-effort remote mirror; empty = log-only pusher
	MirrorBaseURL string
	// how often the sync worker re-pushes every collection
	ResyncInterval time.Duration
	// static seed resources fetched when nothing is persisted yet
	SeedBaseURL string

	// optional redis-backed session store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// refresh TTL handed out when the client asks to be remembered
	RememberTTL time.Duration

	OtelEndpoint string
}

func Load() Config {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)

	return Config{
		Env:        env,
		Port:       port,
		WorkerPort: getEnvInt("WORKER_PORT", 8081),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DBURL:        buildDBURL(),

		MirrorBaseURL:  getEnv("MIRROR_BASE_URL", ""),
		ResyncInterval: getEnvDuration("MIRROR_RESYNC_INTERVAL", 5*time.Minute),
		SeedBaseURL:    getEnv("SEED_BASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTTL:   getEnvDuration("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:  getEnvDuration("REFRESH_TTL", 24*time.Hour),
		RememberTTL: getEnvDuration("REMEMBER_TTL", 30*24*time.Hour),

		OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "uniconnect")
	pass := getEnv("DB_PASSWORD", "uniconnect")
	name := getEnv("DB_NAME", "uniconnect")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
