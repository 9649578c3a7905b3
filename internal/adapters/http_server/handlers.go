package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"staybook/internal/adapters/stripe"
	"staybook/internal/app"
	"staybook/internal/domain"
)

type Handlers struct {
	Avail    *app.AvailabilityService
	Bookings *app.BookingService
	Webhooks *app.WebhookProcessor

	// Dev gates internal error detail into responses.
	Dev bool
	// WebhookLimiter sheds excess webhook deliveries; nil disables limiting.
	WebhookLimiter *rate.Limiter
}

type apiError struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Status  int              `json:"status"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/{id}/availability", h.getAvailability)
	s.mux.Post("/v1/bookings", h.createBooking)
	s.mux.Get("/v1/bookings/{id}", h.getBooking)
	s.mux.Post("/v1/bookings/{id}/actions", h.bookingAction)
	if h.WebhookLimiter != nil {
		s.mux.With(RateLimit(h.WebhookLimiter)).Post("/v1/webhooks/stripe", h.stripeWebhook)
	} else {
		s.mux.Post("/v1/webhooks/stripe", h.stripeWebhook)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, code domain.ErrorCode, msg string) {
	writeJSON(w, status, struct {
		Error apiError `json:"error"`
	}{apiError{Code: code, Message: msg, Status: status}})
}

// writeEngineError maps engine errors onto HTTP statuses, hiding internal
// detail unless running in dev.
func (h *Handlers) writeEngineError(w http.ResponseWriter, err error) {
	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		writeError(w, statusForCode(reqErr.Code), reqErr.Code, reqErr.Detail)
		return
	}
	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		writeJSON(w, http.StatusConflict, struct {
			Error   apiError              `json:"error"`
			Actions []domain.BookingEvent `json:"available_actions"`
		}{
			Error:   apiError{Code: "INVALID_TRANSITION", Message: trErr.Error(), Status: http.StatusConflict},
			Actions: trErr.Allowed,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.CodeHotelNotFound, "resource not found")
	case errors.Is(err, domain.ErrReasonRequired), errors.Is(err, domain.ErrPaymentRefRequired):
		writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, err.Error())
	case errors.Is(err, domain.ErrStatusConflict):
		writeError(w, http.StatusConflict, domain.CodeInternalError, "booking status changed concurrently, retry")
	default:
		log.Error().Err(err).Msg("internal error")
		msg := "internal error"
		if h.Dev {
			msg = err.Error()
		}
		writeError(w, http.StatusInternalServerError, domain.CodeInternalError, msg)
	}
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeHotelNotFound:
		return http.StatusNotFound
	case domain.CodeMinimumStayNotMet, domain.CodeMaximumStayExceeded,
		domain.CodeAdvanceTooSoon, domain.CodeAdvanceTooFar, domain.CodeClosedDates:
		return http.StatusUnprocessableEntity
	case domain.CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ---- availability ----

type quoteDTO struct {
	RoomTypeID        int64  `json:"room_type_id"`
	RoomTypeName      string `json:"room_type_name"`
	Nights            int    `json:"nights"`
	NightlyRateCents  int64  `json:"nightly_rate_cents"`
	AppliedRatePlanID *int64 `json:"applied_rate_plan_id"`
	SubtotalCents     int64  `json:"subtotal_cents"`
	TaxCents          int64  `json:"tax_cents"`
	TotalCents        int64  `json:"total_cents"`
	Currency          string `json:"currency"`
}

type closedRangeDTO struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Reason *string `json:"reason"`
}

type unavailableDTO struct {
	RoomTypeID   int64            `json:"room_type_id"`
	RoomTypeName string           `json:"room_type_name"`
	Code         domain.ErrorCode `json:"code"`
	Requested    *int             `json:"requested,omitempty"`
	Bound        *int             `json:"bound,omitempty"`
	ClosedRanges []closedRangeDTO `json:"closed_ranges,omitempty"`
}

type availabilityDTO struct {
	HotelID              int64            `json:"hotel_id"`
	HotelName            string           `json:"hotel_name"`
	CheckIn              string           `json:"check_in"`
	CheckOut             string           `json:"check_out"`
	Nights               int              `json:"nights"`
	DaysInAdvance        int              `json:"days_in_advance"`
	Adults               int              `json:"adults"`
	Children             int              `json:"children"`
	AvailableRoomTypes   []quoteDTO       `json:"available_room_types"`
	UnavailableRoomTypes []unavailableDTO `json:"unavailable_room_types"`
	HasAvailability      bool             `json:"has_availability"`
}

const dateLayout = "2006-01-02"

func toAvailabilityDTO(v domain.AvailabilityView) availabilityDTO {
	out := availabilityDTO{
		HotelID:              v.HotelID,
		HotelName:            v.HotelName,
		CheckIn:              v.CheckIn.Format(dateLayout),
		CheckOut:             v.CheckOut.Format(dateLayout),
		Nights:               v.Nights,
		DaysInAdvance:        v.DaysInAdvance,
		Adults:               v.Adults,
		Children:             v.Children,
		AvailableRoomTypes:   []quoteDTO{},
		UnavailableRoomTypes: []unavailableDTO{},
		HasAvailability:      v.HasAvailability,
	}
	for _, q := range v.Available {
		out.AvailableRoomTypes = append(out.AvailableRoomTypes, quoteDTO(q))
	}
	for _, u := range v.Unavailable {
		d := unavailableDTO{
			RoomTypeID:   u.RoomTypeID,
			RoomTypeName: u.RoomTypeName,
			Code:         u.Code,
			Requested:    u.Requested,
			Bound:        u.Bound,
		}
		for _, cr := range u.ClosedRanges {
			d.ClosedRanges = append(d.ClosedRanges, closedRangeDTO{
				Start:  cr.Start.Format(dateLayout),
				End:    cr.End.Format(dateLayout),
				Reason: cr.Reason,
			})
		}
		out.UnavailableRoomTypes = append(out.UnavailableRoomTypes, d)
	}
	return out
}

func (h *Handlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	hotelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "hotel id must be a number")
		return
	}
	q := app.AvailabilityQuery{
		HotelID:  hotelID,
		CheckIn:  r.URL.Query().Get("check_in"),
		CheckOut: r.URL.Query().Get("check_out"),
		Adults:   1,
		Children: 0,
	}
	if s := r.URL.Query().Get("adults"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "adults must be an integer")
			return
		}
		q.Adults = n
	}
	if s := r.URL.Query().Get("children"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "children must be an integer")
			return
		}
		q.Children = n
	}

	view, err := h.Avail.Check(r.Context(), q)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityDTO(view))
}

// ---- bookings ----

type bookingDTO struct {
	ID               string                `json:"id"`
	HotelID          int64                 `json:"hotel_id"`
	RoomTypeID       int64                 `json:"room_type_id"`
	GuestID          int64                 `json:"guest_id"`
	Status           domain.BookingStatus  `json:"status"`
	CheckIn          string                `json:"check_in"`
	CheckOut         string                `json:"check_out"`
	NumAdults        int                   `json:"num_adults"`
	NumChildren      int                   `json:"num_children"`
	TotalPriceCents  int64                 `json:"total_price_cents"`
	Currency         string                `json:"currency"`
	PaymentIntentRef *string               `json:"payment_intent_ref,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	AvailableActions []domain.BookingEvent `json:"available_actions"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	return bookingDTO{
		ID:               b.ID,
		HotelID:          b.HotelID,
		RoomTypeID:       b.RoomTypeID,
		GuestID:          b.GuestID,
		Status:           b.Status,
		CheckIn:          b.CheckIn.Format(dateLayout),
		CheckOut:         b.CheckOut.Format(dateLayout),
		NumAdults:        b.NumAdults,
		NumChildren:      b.NumChildren,
		TotalPriceCents:  b.TotalPriceCents,
		Currency:         b.Currency,
		PaymentIntentRef: b.PaymentIntentRef,
		CancelledAt:      b.CancelledAt,
		AvailableActions: domain.AvailableActions(b.Status),
	}
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HotelID    int64  `json:"hotel_id"`
		RoomTypeID int64  `json:"room_type_id"`
		GuestID    int64  `json:"guest_id"`
		CheckIn    string `json:"check_in"`
		CheckOut   string `json:"check_out"`
		Adults     int    `json:"adults"`
		Children   int    `json:"children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "request body must be valid JSON")
		return
	}
	if req.Adults == 0 && req.Children == 0 {
		req.Adults = 1
	}
	b, err := h.Bookings.CreateBooking(r.Context(), app.CreateBookingInput{
		HotelID:    req.HotelID,
		RoomTypeID: req.RoomTypeID,
		GuestID:    req.GuestID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Adults:     req.Adults,
		Children:   req.Children,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

func (h *Handlers) bookingAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string  `json:"action"`
		Reason *string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "request body must be valid JSON")
		return
	}
	event, err := domain.ParseEvent(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, err.Error())
		return
	}
	if domain.MetaFor(event).System {
		writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "system events cannot be triggered via the API")
		return
	}
	b, err := h.Bookings.ApplyTransition(r.Context(), chi.URLParam(r, "id"), event, app.TransitionOptions{Reason: req.Reason})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// ---- webhooks ----

func (h *Handlers) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, app.MaxWebhookBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInternalError, "could not read request body")
		return
	}
	outcome, err := h.Webhooks.Process(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPayloadTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, domain.CodeMissingParameters, "payload too large")
		case errors.Is(err, app.ErrBadPayload):
			writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "malformed event payload")
		case isSignatureError(err):
			// no internal detail: a failed check is a permanent rejection
			writeError(w, http.StatusBadRequest, domain.CodeMissingParameters, "signature verification failed")
		default:
			// propagate as failure so the provider retries delivery
			log.Error().Err(err).Msg("webhook processing failed")
			msg := "event processing failed"
			if h.Dev {
				msg = err.Error()
			}
			writeError(w, http.StatusInternalServerError, domain.CodeInternalError, msg)
		}
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status app.WebhookOutcome `json:"status"`
	}{outcome})
}

func isSignatureError(err error) bool {
	return errors.Is(err, stripe.ErrInvalidHeader) ||
		errors.Is(err, stripe.ErrTimestampTooOld) ||
		errors.Is(err, stripe.ErrSignatureMismatch)
}
