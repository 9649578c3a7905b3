package domain

import "time"

type Hotel struct {
	ID       int64
	Name     string
	City     *string
	Country  *string
	Currency string
	TimeZone *string
}

type RoomType struct {
	ID             int64
	HotelID        int64
	Name           string
	BasePriceCents int64
	MaxOccupancy   *int
}

// RatePlan is a priced offer for a room type over [ValidFrom, ValidTo).
// Nil bounds mean unbounded; nil ApplicableDaysOfWeek means every weekday.
// Weekday indices follow time.Weekday (0 = Sunday).
type RatePlan struct {
	ID                    int64
	HotelID               int64
	RoomTypeID            int64
	Name                  string
	PricePerNightCents    int64
	ValidFrom             time.Time
	ValidTo               time.Time
	Priority              int // higher wins; ties broken by ascending ID
	MinStayNights         *int
	MaxStayNights         *int
	MinAdvanceBookingDays *int
	MaxAdvanceBookingDays *int
	ApplicableDaysOfWeek  []int
	IsActive              bool
}

// ClosedDateRange blacks out [Start, End) for a hotel, or for one room type
// when RoomTypeID is set. Nil RoomTypeID applies to every room type.
type ClosedDateRange struct {
	ID         int64
	HotelID    int64
	RoomTypeID *int64
	Start      time.Time
	End        time.Time
	Reason     *string
	IsActive   bool
}

// Overlaps applies the half-open interval test against [start, end).
func (r ClosedDateRange) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End.After(start)
}

// AppliesTo reports whether the range covers the given room type.
func (r ClosedDateRange) AppliesTo(roomTypeID int64) bool {
	return r.RoomTypeID == nil || *r.RoomTypeID == roomTypeID
}
