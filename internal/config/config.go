package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	HTTPTimeout time.Duration
	LogLevel    slog.Level
	ProfilePath string

	EnrichmentURL     string
	EnrichmentAPIKey  string
	EnrichmentRPS     float64
	EnrichmentTimeout time.Duration
	RedisURL          string
	EnrichmentTTL     time.Duration

	AlertCooldown   time.Duration
	NotifyQueueSize int
	SMTPAddr        string
	SMTPFrom        string
	SMTPUser        string
	SMTPPassword    string
	SlackWebhookURL string
	WebhookSecret   string
}

// FromEnv lee .env si existe y luego el entorno.
func FromEnv() Config {
	_ = godotenv.Load()

	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	return Config{
		Port:        envOr("PORT", "8080"),
		HTTPTimeout: to,
		LogLevel:    parseLevel(os.Getenv("LOG_LEVEL")),
		ProfilePath: os.Getenv("PROFILE_PATH"),

		EnrichmentURL:     os.Getenv("ENRICHMENT_URL"),
		EnrichmentAPIKey:  os.Getenv("ENRICHMENT_API_KEY"),
		EnrichmentRPS:     envFloat("ENRICHMENT_RPS", 5),
		EnrichmentTimeout: envDuration("ENRICHMENT_TIMEOUT", 5*time.Second),
		RedisURL:          os.Getenv("REDIS_URL"),
		EnrichmentTTL:     envDuration("ENRICHMENT_CACHE_TTL", 24*time.Hour),

		AlertCooldown:   envDuration("ALERT_COOLDOWN", 24*time.Hour),
		NotifyQueueSize: envInt("NOTIFY_QUEUE_SIZE", 256),
		SMTPAddr:        os.Getenv("SMTP_ADDR"),
		SMTPFrom:        envOr("SMTP_FROM", "alerts@localhost"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// "0" desactiva; un valor inválido cae al default
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func envFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return v
}
