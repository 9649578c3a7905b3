package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

const dateLayout = "2006-01-02"

type AvailabilityService struct {
	inventory domain.InventoryRepository
	cache     domain.Cache
	clock     domain.Clock
	cacheTTL  time.Duration
}

func NewAvailabilityService(inv domain.InventoryRepository, cache domain.Cache, clock domain.Clock, ttl time.Duration) *AvailabilityService {
	return &AvailabilityService{inventory: inv, cache: cache, clock: clock, cacheTTL: ttl}
}

// AvailabilityQuery carries raw request inputs; date parsing happens inside
// Check so every precondition shares one code path.
type AvailabilityQuery struct {
	HotelID  int64
	CheckIn  string
	CheckOut string
	Adults   int
	Children int
}

// Check resolves availability for every room type of the hotel. Preconditions
// fail the whole request with a *domain.RequestError; per-room-type failures
// only degrade that room type.
func (s *AvailabilityService) Check(ctx context.Context, q AvailabilityQuery) (domain.AvailabilityView, error) {
	if q.HotelID <= 0 || q.CheckIn == "" || q.CheckOut == "" {
		return domain.AvailabilityView{}, domain.NewRequestError(domain.CodeMissingParameters, "hotel id, check_in and check_out are required")
	}
	if q.Adults < 0 || q.Children < 0 || q.Adults+q.Children < 1 {
		return domain.AvailabilityView{}, domain.NewRequestError(domain.CodeMissingParameters, "party must include at least one guest")
	}
	checkIn, err := time.ParseInLocation(dateLayout, q.CheckIn, time.UTC)
	if err != nil {
		return domain.AvailabilityView{}, domain.NewRequestError(domain.CodeInvalidDateFormat, "check_in must be an ISO calendar date (YYYY-MM-DD)")
	}
	checkOut, err := time.ParseInLocation(dateLayout, q.CheckOut, time.UTC)
	if err != nil {
		return domain.AvailabilityView{}, domain.NewRequestError(domain.CodeInvalidDateFormat, "check_out must be an ISO calendar date (YYYY-MM-DD)")
	}
	if !checkIn.Before(checkOut) {
		return domain.AvailabilityView{}, domain.NewRequestError(domain.CodeInvalidDateRange, "check_in must be before check_out")
	}
	today := DateOnly(s.clock.Now())
	if checkIn.Before(today) {
		return domain.AvailabilityView{}, domain.NewRequestError(domain.CodePastCheckIn, "check_in must not be in the past")
	}

	hotel, err := s.inventory.FetchHotel(ctx, q.HotelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AvailabilityView{}, domain.NewRequestError(domain.CodeHotelNotFound, fmt.Sprintf("hotel %d not found", q.HotelID))
		}
		return domain.AvailabilityView{}, err
	}

	key := fmt.Sprintf("avail:%d:%s:%s:%d:%d", q.HotelID, q.CheckIn, q.CheckOut, q.Adults, q.Children)
	var cached domain.AvailabilityView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	nights := NightsBetween(checkIn, checkOut)
	daysInAdvance := DaysInAdvance(today, checkIn)

	roomTypes, err := s.inventory.FetchRoomTypes(ctx, q.HotelID)
	if err != nil {
		return domain.AvailabilityView{}, err
	}

	// Fan out per room type; evaluation failures degrade that room type to
	// unavailable instead of aborting the request.
	type verdict struct {
		quote *domain.RoomTypeQuote
		miss  *domain.UnavailableRoomType
	}
	verdicts := make([]verdict, len(roomTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, rt := range roomTypes {
		i, rt := i, rt
		g.Go(func() error {
			quote, miss := s.evaluateRoomType(gctx, hotel, rt, checkIn, checkOut, nights, daysInAdvance)
			verdicts[i] = verdict{quote: quote, miss: miss}
			return nil
		})
	}
	_ = g.Wait()

	view := domain.AvailabilityView{
		HotelID:       hotel.ID,
		HotelName:     hotel.Name,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        nights,
		DaysInAdvance: daysInAdvance,
		Adults:        q.Adults,
		Children:      q.Children,
	}
	for _, v := range verdicts {
		if v.quote != nil {
			view.Available = append(view.Available, *v.quote)
		} else if v.miss != nil {
			view.Unavailable = append(view.Unavailable, *v.miss)
		}
	}
	sort.Slice(view.Available, func(i, j int) bool { return view.Available[i].RoomTypeID < view.Available[j].RoomTypeID })
	sort.Slice(view.Unavailable, func(i, j int) bool { return view.Unavailable[i].RoomTypeID < view.Unavailable[j].RoomTypeID })
	view.HasAvailability = len(view.Available) > 0

	if view.HasAvailability {
		observability.ObserveAvailability("available")
	} else {
		observability.ObserveAvailability("unavailable")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, view, s.cacheTTL)
	}
	return view, nil
}

func (s *AvailabilityService) evaluateRoomType(ctx context.Context, hotel domain.Hotel, rt domain.RoomType, checkIn, checkOut time.Time, nights, daysInAdvance int) (*domain.RoomTypeQuote, *domain.UnavailableRoomType) {
	ranges, err := s.inventory.FetchClosedDateRanges(ctx, hotel.ID, &rt.ID, checkIn, checkOut)
	if err != nil {
		log.Error().Err(err).Int64("room_type", rt.ID).Msg("closed-date fetch failed")
		return nil, &domain.UnavailableRoomType{RoomTypeID: rt.ID, RoomTypeName: rt.Name, Code: domain.CodeInternalError}
	}
	if check := CheckClosedDates(ranges, checkIn, checkOut, rt.ID); check.IsClosed {
		return nil, &domain.UnavailableRoomType{
			RoomTypeID:   rt.ID,
			RoomTypeName: rt.Name,
			Code:         domain.CodeClosedDates,
			ClosedRanges: check.Overlaps,
		}
	}

	plans, err := s.inventory.FetchActiveRatePlans(ctx, hotel.ID, rt.ID)
	if err != nil {
		log.Error().Err(err).Int64("room_type", rt.ID).Msg("rate plan fetch failed")
		return nil, &domain.UnavailableRoomType{RoomTypeID: rt.ID, RoomTypeName: rt.Name, Code: domain.CodeInternalError}
	}
	plan := SelectRatePlan(plans, checkIn, daysInAdvance)
	if v := ValidateStay(RestrictionsFor(plan), nights, daysInAdvance); v != nil {
		requested, bound := v.Requested, v.Bound
		return nil, &domain.UnavailableRoomType{
			RoomTypeID:   rt.ID,
			RoomTypeName: rt.Name,
			Code:         v.Code,
			Requested:    &requested,
			Bound:        &bound,
		}
	}

	nightly := rt.BasePriceCents
	var appliedPlanID *int64
	if plan != nil {
		nightly = plan.PricePerNightCents
		id := plan.ID
		appliedPlanID = &id
	}
	pb := PriceStay(nightly, nights)
	return &domain.RoomTypeQuote{
		RoomTypeID:        rt.ID,
		RoomTypeName:      rt.Name,
		Nights:            nights,
		NightlyRateCents:  nightly,
		AppliedRatePlanID: appliedPlanID,
		SubtotalCents:     pb.SubtotalCents,
		TaxCents:          pb.TaxCents,
		TotalCents:        pb.TotalCents,
		Currency:          hotel.Currency,
	}, nil
}
