package app

import (
	"time"

	"staybook/internal/domain"
)

// CheckClosedDates flags the stay [checkIn, checkOut) when any active range
// applying to the room type overlaps it. Pure over its inputs; the repository
// prefilters by hotel and overlap but the verdict is decided here.
func CheckClosedDates(ranges []domain.ClosedDateRange, checkIn, checkOut time.Time, roomTypeID int64) domain.ClosedDateCheck {
	var out domain.ClosedDateCheck
	for _, r := range ranges {
		if !r.IsActive {
			continue
		}
		if !r.AppliesTo(roomTypeID) {
			continue
		}
		if !r.Overlaps(checkIn, checkOut) {
			continue
		}
		out.Overlaps = append(out.Overlaps, domain.ClosedOverlap{
			Start:  r.Start,
			End:    r.End,
			Reason: r.Reason,
		})
	}
	out.IsClosed = len(out.Overlaps) > 0
	return out
}
