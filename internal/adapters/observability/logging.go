package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the service logger. APP_ENV=dev (or development) swaps
// the JSON writer for a human-friendly console writer.
func NewLogger(env string) zerolog.Logger {
	base := zerolog.New(os.Stdout)
	if env == "dev" || env == "development" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return base.With().Timestamp().Str("service", "booking-engine").Logger()
}
