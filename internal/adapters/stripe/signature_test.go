package stripe_test

import (
	"errors"
	"testing"
	"time"

	"staybook/internal/adapters/stripe"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var (
	secret  = "whsec_test"
	now     = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	payload = []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
)

func TestVerifyValidSignature(t *testing.T) {
	v := stripe.NewVerifier(secret, fixedClock{now: now})
	header := stripe.SignHeader([]byte(secret), now.Unix(), payload)
	if err := v.Verify(payload, header); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	v := stripe.NewVerifier(secret, fixedClock{now: now})
	header := stripe.SignHeader([]byte(secret), now.Unix(), payload)
	if err := v.Verify([]byte(`{"id":"evt_2"}`), header); !errors.Is(err, stripe.ErrSignatureMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := stripe.NewVerifier(secret, fixedClock{now: now})
	header := stripe.SignHeader([]byte("whsec_other"), now.Unix(), payload)
	if err := v.Verify(payload, header); !errors.Is(err, stripe.ErrSignatureMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestVerifyStaleTimestamp(t *testing.T) {
	v := stripe.NewVerifier(secret, fixedClock{now: now})
	old := now.Add(-10 * time.Minute).Unix()
	header := stripe.SignHeader([]byte(secret), old, payload)
	if err := v.Verify(payload, header); !errors.Is(err, stripe.ErrTimestampTooOld) {
		t.Fatalf("expected stale-timestamp rejection, got %v", err)
	}
}

func TestVerifyMalformedHeader(t *testing.T) {
	v := stripe.NewVerifier(secret, fixedClock{now: now})
	for _, h := range []string{"", "t=abc,v1=00", "v1=00", "t=1720000000"} {
		if err := v.Verify(payload, h); !errors.Is(err, stripe.ErrInvalidHeader) {
			t.Fatalf("header %q: expected ErrInvalidHeader, got %v", h, err)
		}
	}
}

func TestVerifyAcceptsAnyValidV1(t *testing.T) {
	// providers may send multiple v1 entries during secret rotation
	v := stripe.NewVerifier(secret, fixedClock{now: now})
	good := stripe.SignHeader([]byte(secret), now.Unix(), payload)
	header := good + ",v1=deadbeef"
	if err := v.Verify(payload, header); err != nil {
		t.Fatalf("rotation header rejected: %v", err)
	}
}
