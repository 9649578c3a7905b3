package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"staybook/internal/domain"
)

// Verifier checks Stripe-style signature headers of the form
// "t=<unix>,v1=<hex hmac>" where the MAC covers "<unix>.<payload>".
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	clock     domain.Clock
}

const defaultTolerance = 5 * time.Minute

var (
	ErrInvalidHeader     = errors.New("stripe: malformed signature header")
	ErrTimestampTooOld   = errors.New("stripe: signature timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("stripe: signature mismatch")
)

func NewVerifier(secret string, clock domain.Clock) *Verifier {
	return &Verifier{secret: []byte(secret), tolerance: defaultTolerance, clock: clock}
}

func (v *Verifier) Verify(payload []byte, header string) error {
	ts, sigs, err := parseHeader(header)
	if err != nil {
		return err
	}
	now := v.clock.Now()
	age := now.Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrTimestampTooOld
	}
	expected := ComputeSignature(v.secret, ts, payload)
	for _, s := range sigs {
		got, err := hex.DecodeString(s)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

func parseHeader(header string) (ts int64, sigs []string, err error) {
	for _, pair := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidHeader
			}
		case "v1":
			sigs = append(sigs, val)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, ErrInvalidHeader
	}
	return ts, sigs, nil
}

// ComputeSignature is exported so tests and tooling can mint valid headers.
func ComputeSignature(secret []byte, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignHeader builds a full header for a payload, used by tests.
func SignHeader(secret []byte, ts int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(ComputeSignature(secret, ts, payload)))
}
