package app

import "time"

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// DateOnly truncates t to midnight UTC so calendar-date arithmetic stays exact.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween counts whole nights in [checkIn, checkOut) over date-only values.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// DaysInAdvance is the gap in days between today and check-in.
func DaysInAdvance(today, checkIn time.Time) int {
	return int(checkIn.Sub(today).Hours() / 24)
}
