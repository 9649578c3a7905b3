package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"staybook/internal/adapters/observability"
	"staybook/internal/app"
	"staybook/internal/domain"
	"staybook/internal/shared"
	mysqlrepo "staybook/internal/storage/mysql"
)

// Sweeps pending bookings whose payment window elapsed and applies
// PAYMENT_TIMEOUT through the state machine. The CAS inside ApplyTransition
// makes concurrent sweeps and late webhooks safe against each other.
func main() {
	_ = godotenv.Load()
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Dur("pending_ttl", cfg.PendingTTL).
		Int("workers", cfg.ExpireWorkers).
		Msg("expirer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	clock := app.SystemClock{}
	avail := app.NewAvailabilityService(repo, nil, clock, 0)
	bookings := app.NewBookingService(repo, avail, clock)

	cutoff := clock.Now().Add(-cfg.PendingTTL)
	stale, err := repo.ListStalePending(ctx, cutoff, cfg.ExpireBatch)
	if err != nil {
		log.Fatal().Err(err).Msg("list stale pending failed")
	}
	log.Info().Int("count", len(stale)).Msg("stale pending bookings found")

	sem := semaphore.NewWeighted(int64(cfg.ExpireWorkers))
	var wg sync.WaitGroup

	for _, b := range stale {
		b := b

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := bookings.ApplyTransition(ctx, id, domain.EventPaymentTimeout, app.TransitionOptions{}); err != nil {
				// a lost race with a webhook is expected, not fatal
				log.Warn().Str("booking", id).Err(err).Msg("expire skipped")
				return
			}
			log.Info().Str("booking", id).Msg("booking expired")
		}(b.ID)
	}

	wg.Wait()
	log.Info().Msg("expiry sweep completed")
}
