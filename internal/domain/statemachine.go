package domain

import (
	"fmt"
	"sort"
	"strings"
)

type BookingEvent string

const (
	EventPaymentReceived BookingEvent = "PAYMENT_RECEIVED"
	EventPaymentFailed   BookingEvent = "PAYMENT_FAILED"
	EventPaymentTimeout  BookingEvent = "PAYMENT_TIMEOUT"
	EventCancel          BookingEvent = "CANCEL"
	EventExpire          BookingEvent = "EXPIRE"
	EventCheckIn         BookingEvent = "CHECK_IN"
	EventCheckOut        BookingEvent = "CHECK_OUT"
	EventMarkNoShow      BookingEvent = "MARK_NO_SHOW"
)

// transitions is the full lifecycle table. Statuses absent from a row (or rows
// absent entirely, the terminal ones) accept no events.
var transitions = map[BookingStatus]map[BookingEvent]BookingStatus{
	StatusPending: {
		EventPaymentReceived: StatusConfirmed,
		EventPaymentFailed:   StatusCancelled,
		EventPaymentTimeout:  StatusExpired,
		EventCancel:          StatusCancelled,
		EventExpire:          StatusExpired,
	},
	StatusConfirmed: {
		EventCheckIn:    StatusCheckedIn,
		EventCancel:     StatusCancelled,
		EventMarkNoShow: StatusNoShow,
	},
	StatusCheckedIn: {
		EventCheckOut: StatusCheckedOut,
	},
	StatusCheckedOut: {},
	StatusCancelled:  {},
	StatusNoShow:     {},
	StatusExpired:    {},
}

// NextState returns the resulting status for an event, or false when the
// event is not legal from the current status.
func NextState(s BookingStatus, e BookingEvent) (BookingStatus, bool) {
	next, ok := transitions[s][e]
	return next, ok
}

func CanTransition(s BookingStatus, e BookingEvent) bool {
	_, ok := NextState(s, e)
	return ok
}

// IsTerminal reports whether no event can move the booking out of s.
// Unknown statuses are treated as terminal.
func IsTerminal(s BookingStatus) bool {
	return len(transitions[s]) == 0
}

// AvailableActions returns the legal events from s, sorted for determinism.
// Empty for terminal statuses.
func AvailableActions(s BookingStatus) []BookingEvent {
	row := transitions[s]
	out := make([]BookingEvent, 0, len(row))
	for e := range row {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TransitionError names the rejected event, the status it was applied to, and
// the events that would have been legal. Invalid transitions have no side
// effect and are never retried automatically.
type TransitionError struct {
	Event   BookingEvent
	Current BookingStatus
	Allowed []BookingEvent
}

func (e *TransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("event %s not allowed: status %s is terminal", e.Event, e.Current)
	}
	parts := make([]string, len(e.Allowed))
	for i, a := range e.Allowed {
		parts[i] = string(a)
	}
	return fmt.Sprintf("event %s not allowed from status %s (allowed: %s)",
		e.Event, e.Current, strings.Join(parts, ", "))
}

// ValidateTransition returns the next status, or a *TransitionError carrying
// the currently legal event set.
func ValidateTransition(s BookingStatus, e BookingEvent) (BookingStatus, error) {
	if next, ok := NextState(s, e); ok {
		return next, nil
	}
	return "", &TransitionError{Event: e, Current: s, Allowed: AvailableActions(s)}
}

// EventMeta describes fixed per-event requirements.
type EventMeta struct {
	System             bool // triggered by automation rather than an operator or guest
	RequiresReason     bool
	RequiresPaymentRef bool
}

var eventMeta = map[BookingEvent]EventMeta{
	EventPaymentReceived: {RequiresPaymentRef: true},
	EventPaymentFailed:   {RequiresReason: true},
	EventPaymentTimeout:  {System: true},
	EventCancel:          {RequiresReason: true},
	EventExpire:          {System: true},
	EventCheckIn:         {},
	EventCheckOut:        {},
	EventMarkNoShow:      {},
}

func MetaFor(e BookingEvent) EventMeta { return eventMeta[e] }

// ParseEvent converts a wire string into a known event.
func ParseEvent(s string) (BookingEvent, error) {
	e := BookingEvent(s)
	if _, ok := eventMeta[e]; !ok {
		return "", fmt.Errorf("unknown booking event: %q", s)
	}
	return e, nil
}
