package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	server "staybook/internal/adapters/http_server"
	"staybook/internal/adapters/observability"
	redisad "staybook/internal/adapters/redis"
	"staybook/internal/adapters/stripe"
	"staybook/internal/app"
	"staybook/internal/shared"
	mysqlrepo "staybook/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(reg, cfg.MetricsAddr)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(redisad.Connect(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB))
	clock := app.SystemClock{}

	avail := app.NewAvailabilityService(repo, cache, clock, cfg.CacheTTL)
	bookings := app.NewBookingService(repo, avail, clock)
	verifier := stripe.NewVerifier(cfg.WebhookSecret, clock)
	webhooks := app.NewWebhookProcessor(repo, verifier, app.DefaultHandlers(bookings))

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Avail:          avail,
		Bookings:       bookings,
		Webhooks:       webhooks,
		Dev:            cfg.AppEnv == "dev" || cfg.AppEnv == "development",
		WebhookLimiter: rate.NewLimiter(rate.Limit(cfg.WebhookRPS), cfg.WebhookRPS),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
