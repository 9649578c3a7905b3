package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

// MaxWebhookBody is the payload ceiling; oversized deliveries are rejected
// before parsing.
const MaxWebhookBody = 64 * 1024

var (
	ErrPayloadTooLarge = errors.New("webhook payload exceeds size ceiling")
	ErrBadPayload      = errors.New("webhook payload is not valid JSON")
)

// ProviderEvent is the slice of a payment-provider event the engine acts on.
type ProviderEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			Metadata         map[string]string `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// WebhookHandler applies one event type's side effects.
type WebhookHandler func(ctx context.Context, ev ProviderEvent) error

// SignatureVerifier authenticates a raw delivery against its signature header.
type SignatureVerifier interface {
	Verify(payload []byte, sigHeader string) error
}

type WebhookOutcome string

const (
	OutcomeProcessed        WebhookOutcome = "processed"
	OutcomeAlreadyProcessed WebhookOutcome = "already_processed"
	OutcomeUnhandledType    WebhookOutcome = "unhandled_event_type"
)

// WebhookProcessor ingests provider deliveries idempotently. The dispatch
// table is constructor-injected so tests can substitute handlers and multiple
// processors can coexist.
type WebhookProcessor struct {
	store    domain.WebhookStore
	verifier SignatureVerifier
	handlers map[string]WebhookHandler
}

func NewWebhookProcessor(store domain.WebhookStore, verifier SignatureVerifier, handlers map[string]WebhookHandler) *WebhookProcessor {
	return &WebhookProcessor{store: store, verifier: verifier, handlers: handlers}
}

// Process runs the full pipeline: size ceiling, signature, idempotency,
// dispatch, status bookkeeping. Every check is a hard stop; none is retried
// internally. A handler error propagates so the caller signals the provider
// to redeliver.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, sigHeader string) (WebhookOutcome, error) {
	if len(body) > MaxWebhookBody {
		observability.ObserveWebhook("too_large")
		return "", ErrPayloadTooLarge
	}
	if err := p.verifier.Verify(body, sigHeader); err != nil {
		observability.ObserveWebhook("bad_signature")
		return "", err
	}

	var ev ProviderEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.ID == "" || ev.Type == "" {
		observability.ObserveWebhook("bad_payload")
		return "", ErrBadPayload
	}

	created, existing, err := p.store.InsertEvent(ctx, ev.ID, ev.Type, body)
	if err != nil {
		return "", err
	}
	if !created {
		switch existing.Status {
		case domain.WebhookProcessed, domain.WebhookProcessing:
			// first writer won (or already finished): no-op
			observability.ObserveWebhook("duplicate")
			return OutcomeAlreadyProcessed, nil
		}
		// received/failed: the provider is redelivering, run it again
	}

	handler, ok := p.handlers[ev.Type]
	if !ok {
		// forward compatibility with new provider event types
		marker := "unhandled event type"
		if err := p.store.MarkEventStatus(ctx, ev.ID, domain.WebhookProcessed, &marker); err != nil {
			return "", err
		}
		observability.ObserveWebhook("unhandled")
		return OutcomeUnhandledType, nil
	}

	if err := p.store.MarkEventStatus(ctx, ev.ID, domain.WebhookProcessing, nil); err != nil {
		return "", err
	}
	if err := handler(ctx, ev); err != nil {
		msg := err.Error()
		if merr := p.store.MarkEventStatus(ctx, ev.ID, domain.WebhookFailed, &msg); merr != nil {
			log.Error().Err(merr).Str("event", ev.ID).Msg("mark failed status")
		}
		observability.ObserveWebhook("failed")
		return "", fmt.Errorf("handle %s: %w", ev.Type, err)
	}
	if err := p.store.MarkEventStatus(ctx, ev.ID, domain.WebhookProcessed, nil); err != nil {
		return "", err
	}
	observability.ObserveWebhook("processed")
	return OutcomeProcessed, nil
}

// DefaultHandlers maps the provider's payment lifecycle onto booking events.
// The booking id travels in the payment object's metadata.
func DefaultHandlers(bookings *BookingService) map[string]WebhookHandler {
	bookingID := func(ev ProviderEvent) (string, error) {
		id := ev.Data.Object.Metadata["booking_id"]
		if id == "" {
			return "", fmt.Errorf("event %s carries no booking_id metadata", ev.ID)
		}
		return id, nil
	}
	return map[string]WebhookHandler{
		"payment_intent.succeeded": func(ctx context.Context, ev ProviderEvent) error {
			id, err := bookingID(ev)
			if err != nil {
				return err
			}
			ref := ev.Data.Object.ID
			_, err = bookings.ApplyTransition(ctx, id, domain.EventPaymentReceived, TransitionOptions{PaymentRef: &ref})
			return err
		},
		"payment_intent.payment_failed": func(ctx context.Context, ev ProviderEvent) error {
			id, err := bookingID(ev)
			if err != nil {
				return err
			}
			reason := "payment failed"
			if ev.Data.Object.LastPaymentError != nil && ev.Data.Object.LastPaymentError.Message != "" {
				reason = ev.Data.Object.LastPaymentError.Message
			}
			_, err = bookings.ApplyTransition(ctx, id, domain.EventPaymentFailed, TransitionOptions{Reason: &reason})
			return err
		},
		"payment_intent.canceled": func(ctx context.Context, ev ProviderEvent) error {
			id, err := bookingID(ev)
			if err != nil {
				return err
			}
			_, err = bookings.ApplyTransition(ctx, id, domain.EventPaymentTimeout, TransitionOptions{})
			return err
		},
	}
}
