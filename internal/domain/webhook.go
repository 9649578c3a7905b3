package domain

import "time"

type WebhookStatus string

const (
	WebhookReceived   WebhookStatus = "received"
	WebhookProcessing WebhookStatus = "processing"
	WebhookProcessed  WebhookStatus = "processed"
	WebhookFailed     WebhookStatus = "failed"
)

// WebhookEvent is the idempotency record for one provider delivery. Created on
// first sight of an external id, update-only afterward, never deleted.
type WebhookEvent struct {
	ExternalID  string
	Type        string
	Status      WebhookStatus
	Payload     []byte
	ProcessedAt *time.Time
	LastError   *string
	CreatedAt   time.Time
}
