package app

import (
	"sort"
	"time"

	"staybook/internal/domain"
)

// NoPlanPolicy names what happens when no rate plan matches a check-in date.
type NoPlanPolicy string

// PolicyPermissive keeps the historical behavior: an unmatched room type
// carries no plan-derived restrictions and is priced at its base rate.
const PolicyPermissive NoPlanPolicy = "permissive"

// SelectRatePlan resolves the single applicable plan for a check-in date:
// highest priority first (ties broken by ascending plan id), first plan whose
// validity window, advance-booking bounds and weekday set all match. Returns
// nil when nothing matches.
func SelectRatePlan(plans []domain.RatePlan, checkIn time.Time, daysInAdvance int) *domain.RatePlan {
	sorted := make([]domain.RatePlan, len(plans))
	copy(sorted, plans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})

	for i := range sorted {
		p := &sorted[i]
		if !p.IsActive {
			continue
		}
		// validity window is [ValidFrom, ValidTo)
		if checkIn.Before(p.ValidFrom) || !checkIn.Before(p.ValidTo) {
			continue
		}
		if p.MinAdvanceBookingDays != nil && daysInAdvance < *p.MinAdvanceBookingDays {
			continue
		}
		if p.MaxAdvanceBookingDays != nil && daysInAdvance > *p.MaxAdvanceBookingDays {
			continue
		}
		if len(p.ApplicableDaysOfWeek) > 0 && !containsWeekday(p.ApplicableDaysOfWeek, int(checkIn.Weekday())) {
			continue
		}
		out := *p
		return &out
	}
	return nil
}

func containsWeekday(days []int, wd int) bool {
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

// RestrictionsFor extracts the stay restrictions of a selected plan. A nil
// plan yields the zero value per PolicyPermissive.
func RestrictionsFor(plan *domain.RatePlan) domain.StayRestrictions {
	if plan == nil {
		return domain.StayRestrictions{}
	}
	return domain.StayRestrictions{
		MinStayNights:         plan.MinStayNights,
		MaxStayNights:         plan.MaxStayNights,
		MinAdvanceBookingDays: plan.MinAdvanceBookingDays,
		MaxAdvanceBookingDays: plan.MaxAdvanceBookingDays,
	}
}

// ValidateStay checks the requested stay against plan restrictions. Returns
// nil when the stay passes; otherwise the violation carries the requested
// value and the violated bound.
func ValidateStay(r domain.StayRestrictions, nights, daysInAdvance int) *domain.RestrictionViolation {
	if r.MinStayNights != nil && nights < *r.MinStayNights {
		return &domain.RestrictionViolation{Code: domain.CodeMinimumStayNotMet, Requested: nights, Bound: *r.MinStayNights}
	}
	if r.MaxStayNights != nil && nights > *r.MaxStayNights {
		return &domain.RestrictionViolation{Code: domain.CodeMaximumStayExceeded, Requested: nights, Bound: *r.MaxStayNights}
	}
	if r.MinAdvanceBookingDays != nil && daysInAdvance < *r.MinAdvanceBookingDays {
		return &domain.RestrictionViolation{Code: domain.CodeAdvanceTooSoon, Requested: daysInAdvance, Bound: *r.MinAdvanceBookingDays}
	}
	if r.MaxAdvanceBookingDays != nil && daysInAdvance > *r.MaxAdvanceBookingDays {
		return &domain.RestrictionViolation{Code: domain.CodeAdvanceTooFar, Requested: daysInAdvance, Bound: *r.MaxAdvanceBookingDays}
	}
	return nil
}
