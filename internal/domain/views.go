package domain

import "time"

// Read models returned to the HTTP layer and dashboards.

// RoomTypeQuote is a priced, bookable room type for one requested stay.
type RoomTypeQuote struct {
	RoomTypeID        int64
	RoomTypeName      string
	Nights            int
	NightlyRateCents  int64
	AppliedRatePlanID *int64 // nil when the base rate priced the stay
	SubtotalCents     int64
	TaxCents          int64
	TotalCents        int64
	Currency          string
}

// ClosedOverlap is one blackout range intersecting the requested stay.
type ClosedOverlap struct {
	Start  time.Time
	End    time.Time
	Reason *string
}

// RestrictionViolation carries the requested value and the violated bound for
// client display.
type RestrictionViolation struct {
	Code      ErrorCode
	Requested int
	Bound     int
}

// UnavailableRoomType explains why one room type cannot host the stay.
type UnavailableRoomType struct {
	RoomTypeID   int64
	RoomTypeName string
	Code         ErrorCode
	Requested    *int            // set for restriction violations
	Bound        *int            // set for restriction violations
	ClosedRanges []ClosedOverlap // set for CLOSED_DATES
}

// ClosedDateCheck is the ClosedDateChecker verdict.
type ClosedDateCheck struct {
	IsClosed bool
	Overlaps []ClosedOverlap
}

// StayRestrictions are the plan-derived limits applying to a stay. Nil fields
// mean unbounded; a zero-value struct is fully permissive.
type StayRestrictions struct {
	MinStayNights         *int
	MaxStayNights         *int
	MinAdvanceBookingDays *int
	MaxAdvanceBookingDays *int
}

// PriceBreakdown is integer minor-unit money math for one stay.
type PriceBreakdown struct {
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// AvailabilityView aggregates per-room-type verdicts for one request.
type AvailabilityView struct {
	HotelID         int64
	HotelName       string
	CheckIn         time.Time
	CheckOut        time.Time
	Nights          int
	DaysInAdvance   int
	Adults          int
	Children        int
	Available       []RoomTypeQuote
	Unavailable     []UnavailableRoomType
	HasAvailability bool
}
