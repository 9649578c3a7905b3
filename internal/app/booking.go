package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

type BookingService struct {
	bookings domain.BookingRepository
	avail    *AvailabilityService
	clock    domain.Clock
}

func NewBookingService(repo domain.BookingRepository, avail *AvailabilityService, clock domain.Clock) *BookingService {
	return &BookingService{bookings: repo, avail: avail, clock: clock}
}

type CreateBookingInput struct {
	HotelID    int64
	RoomTypeID int64
	GuestID    int64
	CheckIn    string
	CheckOut   string
	Adults     int
	Children   int
}

// CreateBooking prices the requested room type through the availability
// pipeline and persists a pending booking. The stay must come back bookable;
// any engine rejection propagates as the structured code it carries.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	view, err := s.avail.Check(ctx, AvailabilityQuery{
		HotelID:  in.HotelID,
		CheckIn:  in.CheckIn,
		CheckOut: in.CheckOut,
		Adults:   in.Adults,
		Children: in.Children,
	})
	if err != nil {
		return domain.Booking{}, err
	}

	var quote *domain.RoomTypeQuote
	for i := range view.Available {
		if view.Available[i].RoomTypeID == in.RoomTypeID {
			quote = &view.Available[i]
			break
		}
	}
	if quote == nil {
		for _, miss := range view.Unavailable {
			if miss.RoomTypeID == in.RoomTypeID {
				return domain.Booking{}, domain.NewRequestError(miss.Code,
					fmt.Sprintf("room type %d is not bookable for the requested stay", in.RoomTypeID))
			}
		}
		return domain.Booking{}, domain.NewRequestError(domain.CodeMissingParameters,
			fmt.Sprintf("room type %d is not offered by hotel %d", in.RoomTypeID, in.HotelID))
	}

	now := s.clock.Now()
	b := domain.Booking{
		ID:              uuid.NewString(),
		HotelID:         in.HotelID,
		RoomTypeID:      in.RoomTypeID,
		GuestID:         in.GuestID,
		Status:          domain.StatusPending,
		CheckIn:         view.CheckIn,
		CheckOut:        view.CheckOut,
		NumAdults:       view.Adults,
		NumChildren:     view.Children,
		TotalPriceCents: quote.TotalCents,
		Currency:        quote.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return domain.Booking{}, err
	}
	log.Info().Str("booking", b.ID).Int64("hotel", b.HotelID).Int64("room_type", b.RoomTypeID).
		Int64("total_cents", b.TotalPriceCents).Msg("booking created")
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

// TransitionOptions carries per-event side data; MetaFor decides what is
// mandatory for a given event.
type TransitionOptions struct {
	Reason     *string
	PaymentRef *string
}

// casAttempts bounds the reload-and-retry loop after a lost status race.
const casAttempts = 2

// ApplyTransition validates the event against the booking's current status
// and applies it with a compare-and-swap so concurrent attempts from the same
// observed status cannot both win. A loser re-reads once; if the event is no
// longer legal from the new status it fails per the transition table.
func (s *BookingService) ApplyTransition(ctx context.Context, id string, event domain.BookingEvent, opts TransitionOptions) (domain.Booking, error) {
	meta := domain.MetaFor(event)
	if meta.RequiresReason && (opts.Reason == nil || *opts.Reason == "") {
		return domain.Booking{}, fmt.Errorf("%s: %w", event, domain.ErrReasonRequired)
	}
	if meta.RequiresPaymentRef && (opts.PaymentRef == nil || *opts.PaymentRef == "") {
		return domain.Booking{}, fmt.Errorf("%s: %w", event, domain.ErrPaymentRefRequired)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		b, err := s.bookings.GetBooking(ctx, id)
		if err != nil {
			return domain.Booking{}, err
		}
		next, err := domain.ValidateTransition(b.Status, event)
		if err != nil {
			observability.ObserveTransition(string(event), "rejected")
			return domain.Booking{}, err
		}

		extra := domain.StatusExtra{PaymentIntentRef: opts.PaymentRef, CancelReason: opts.Reason}
		if next == domain.StatusCancelled {
			t := s.clock.Now()
			extra.CancelledAt = &t
		}
		won, err := s.bookings.CompareAndSwapStatus(ctx, id, b.Status, next, extra)
		if err != nil {
			return domain.Booking{}, err
		}
		if won {
			observability.ObserveTransition(string(event), "applied")
			log.Info().Str("booking", id).Str("event", string(event)).
				Str("from", string(b.Status)).Str("to", string(next)).Msg("booking transition")
			b.Status = next
			b.PaymentIntentRef = orKeep(b.PaymentIntentRef, opts.PaymentRef)
			b.CancelReason = orKeep(b.CancelReason, opts.Reason)
			b.CancelledAt = extra.CancelledAt
			b.UpdatedAt = s.clock.Now()
			return b, nil
		}
		// lost the race: reload and re-validate against the new status
	}
	observability.ObserveTransition(string(event), "conflict")
	return domain.Booking{}, fmt.Errorf("booking %s: %w", id, domain.ErrStatusConflict)
}

func orKeep(cur, next *string) *string {
	if next != nil {
		return next
	}
	return cur
}
