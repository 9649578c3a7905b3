package domain

import (
	"context"
	"time"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)

	// CompareAndSwapStatus applies `SET status = next WHERE id = ? AND
	// status = expected` semantics and reports whether the row was won.
	// Extra carries event side data (payment ref, cancel bookkeeping).
	CompareAndSwapStatus(ctx context.Context, id string, expected, next BookingStatus, extra StatusExtra) (bool, error)

	// ListStalePending returns pending bookings created before the cutoff,
	// oldest first, for payment-timeout sweeps.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error)
}

// StatusExtra is written alongside a status swap when present.
type StatusExtra struct {
	PaymentIntentRef *string
	CancelReason     *string
	CancelledAt      *time.Time
}

type InventoryRepository interface {
	FetchHotel(ctx context.Context, id int64) (Hotel, error)
	FetchRoomTypes(ctx context.Context, hotelID int64) ([]RoomType, error)

	// FetchActiveRatePlans returns active plans for the room type ordered
	// by priority descending, then id ascending.
	FetchActiveRatePlans(ctx context.Context, hotelID, roomTypeID int64) ([]RatePlan, error)

	// FetchClosedDateRanges returns active ranges for the hotel overlapping
	// [start, end), hotel-wide plus those matching roomTypeID when set.
	FetchClosedDateRanges(ctx context.Context, hotelID int64, roomTypeID *int64, start, end time.Time) ([]ClosedDateRange, error)
}

type WebhookStore interface {
	// InsertEvent records first sight of an external id. The unique
	// constraint on the id is the serialization point: first writer wins,
	// losers get created=false plus the existing record.
	InsertEvent(ctx context.Context, externalID, eventType string, payload []byte) (created bool, existing WebhookEvent, err error)

	MarkEventStatus(ctx context.Context, externalID string, status WebhookStatus, lastError *string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Clock supplies "now" so advance-booking and past-check-in validation can be
// frozen in tests.
type Clock interface {
	Now() time.Time
}
