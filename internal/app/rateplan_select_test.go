package app_test

import (
	"testing"

	"staybook/internal/app"
	"staybook/internal/domain"
)

func plan(id int64, priority int) domain.RatePlan {
	return domain.RatePlan{
		ID:                 id,
		HotelID:            1,
		RoomTypeID:         1,
		PricePerNightCents: 12000,
		ValidFrom:          date(2025, 1, 1),
		ValidTo:            date(2026, 1, 1),
		Priority:           priority,
		IsActive:           true,
	}
}

func TestSelectRatePlanPriorityWins(t *testing.T) {
	plans := []domain.RatePlan{plan(1, 50), plan(2, 100)}
	got := app.SelectRatePlan(plans, date(2025, 7, 1), 30)
	if got == nil || got.ID != 2 {
		t.Fatalf("expected priority-100 plan (id 2), got %+v", got)
	}
}

func TestSelectRatePlanTieBreaksByID(t *testing.T) {
	plans := []domain.RatePlan{plan(9, 100), plan(3, 100), plan(5, 100)}
	got := app.SelectRatePlan(plans, date(2025, 7, 1), 30)
	if got == nil || got.ID != 3 {
		t.Fatalf("equal priority must resolve to lowest id, got %+v", got)
	}
}

func TestSelectRatePlanValidityWindowIsHalfOpen(t *testing.T) {
	p := plan(1, 10)
	p.ValidFrom = date(2025, 7, 1)
	p.ValidTo = date(2025, 7, 10)
	plans := []domain.RatePlan{p}

	if got := app.SelectRatePlan(plans, date(2025, 7, 1), 30); got == nil {
		t.Fatalf("check-in on validFrom should match")
	}
	if got := app.SelectRatePlan(plans, date(2025, 7, 10), 30); got != nil {
		t.Fatalf("check-in on validTo (exclusive) should not match")
	}
	if got := app.SelectRatePlan(plans, date(2025, 6, 30), 30); got != nil {
		t.Fatalf("check-in before validFrom should not match")
	}
}

func TestSelectRatePlanAdvanceBounds(t *testing.T) {
	p := plan(1, 10)
	p.MinAdvanceBookingDays = ptr(7)
	p.MaxAdvanceBookingDays = ptr(90)
	plans := []domain.RatePlan{p}

	if got := app.SelectRatePlan(plans, date(2025, 7, 1), 3); got != nil {
		t.Fatalf("too-soon booking should skip the plan")
	}
	if got := app.SelectRatePlan(plans, date(2025, 7, 1), 120); got != nil {
		t.Fatalf("too-far booking should skip the plan")
	}
	if got := app.SelectRatePlan(plans, date(2025, 7, 1), 30); got == nil {
		t.Fatalf("in-bounds booking should match")
	}
}

func TestSelectRatePlanWeekdays(t *testing.T) {
	p := plan(1, 10)
	p.ApplicableDaysOfWeek = []int{5, 6} // Friday, Saturday
	plans := []domain.RatePlan{p}

	friday := date(2025, 7, 4)
	monday := date(2025, 7, 7)
	if got := app.SelectRatePlan(plans, friday, 30); got == nil {
		t.Fatalf("Friday check-in should match the weekend plan")
	}
	if got := app.SelectRatePlan(plans, monday, 30); got != nil {
		t.Fatalf("Monday check-in should not match the weekend plan")
	}
}

func TestSelectRatePlanSkipsInactiveAndFallsThrough(t *testing.T) {
	top := plan(1, 100)
	top.IsActive = false
	fallback := plan(2, 10)
	got := app.SelectRatePlan([]domain.RatePlan{top, fallback}, date(2025, 7, 1), 30)
	if got == nil || got.ID != 2 {
		t.Fatalf("inactive top plan must fall through to the next match, got %+v", got)
	}

	if got := app.SelectRatePlan(nil, date(2025, 7, 1), 30); got != nil {
		t.Fatalf("no plans means no selection")
	}
}

func TestValidateStay(t *testing.T) {
	r := domain.StayRestrictions{MinStayNights: ptr(4)}
	v := app.ValidateStay(r, 3, 30)
	if v == nil || v.Code != domain.CodeMinimumStayNotMet {
		t.Fatalf("expected MINIMUM_STAY_NOT_MET, got %+v", v)
	}
	if v.Requested != 3 || v.Bound != 4 {
		t.Fatalf("violation must carry requested=3 bound=4, got %+v", v)
	}

	r = domain.StayRestrictions{MaxStayNights: ptr(7)}
	if v := app.ValidateStay(r, 10, 30); v == nil || v.Code != domain.CodeMaximumStayExceeded {
		t.Fatalf("expected MAXIMUM_STAY_EXCEEDED, got %+v", v)
	}

	r = domain.StayRestrictions{MinAdvanceBookingDays: ptr(14)}
	if v := app.ValidateStay(r, 2, 7); v == nil || v.Code != domain.CodeAdvanceTooSoon {
		t.Fatalf("expected ADVANCE_BOOKING_TOO_SOON, got %+v", v)
	}

	r = domain.StayRestrictions{MaxAdvanceBookingDays: ptr(60)}
	if v := app.ValidateStay(r, 2, 90); v == nil || v.Code != domain.CodeAdvanceTooFar {
		t.Fatalf("expected ADVANCE_BOOKING_TOO_FAR, got %+v", v)
	}

	// permissive default: no plan, no restrictions
	if v := app.ValidateStay(app.RestrictionsFor(nil), 1, 0); v != nil {
		t.Fatalf("no restrictions should pass, got %+v", v)
	}
}
