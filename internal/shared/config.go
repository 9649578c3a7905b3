package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	WebhookSecret string
	WebhookRPS    int
	CacheTTL      time.Duration
	PendingTTL    time.Duration
	ExpireWorkers int
	ExpireBatch   int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/staybook?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		WebhookSecret: env("STRIPE_WEBHOOK_SECRET", ""),
		WebhookRPS:    atoi("WEBHOOK_RPS", 25),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		PendingTTL:    time.Duration(atoi("PENDING_TTL_MINUTES", 30)) * time.Minute,
		ExpireWorkers: atoi("EXPIRE_WORKERS", 8),
		ExpireBatch:   atoi("EXPIRE_BATCH", 500),
	}
	if c.WebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
