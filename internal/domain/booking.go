package domain

import "time"

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"
	StatusExpired    BookingStatus = "expired"
)

// Booking is never hard-deleted; terminal statuses are permanent markers.
type Booking struct {
	ID               string
	HotelID          int64
	RoomTypeID       int64
	RoomID           *int64
	GuestID          int64
	Status           BookingStatus
	CheckIn          time.Time // date at midnight UTC, [CheckIn, CheckOut)
	CheckOut         time.Time
	NumAdults        int
	NumChildren      int
	TotalPriceCents  int64
	Currency         string
	PaymentIntentRef *string // set once payment starts
	CancelReason     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CancelledAt      *time.Time
}
