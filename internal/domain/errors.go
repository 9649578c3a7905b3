package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrReasonRequired     = errors.New("event requires a reason")
	ErrPaymentRefRequired = errors.New("event requires a payment reference")
	ErrStatusConflict     = errors.New("booking status changed concurrently")
)

// ErrorCode is the machine-readable code set exposed to calling UIs.
type ErrorCode string

const (
	CodeMissingParameters   ErrorCode = "MISSING_PARAMETERS"
	CodeInvalidDateFormat   ErrorCode = "INVALID_DATE_FORMAT"
	CodeInvalidDateRange    ErrorCode = "INVALID_DATE_RANGE"
	CodePastCheckIn         ErrorCode = "PAST_CHECK_IN"
	CodeMinimumStayNotMet   ErrorCode = "MINIMUM_STAY_NOT_MET"
	CodeMaximumStayExceeded ErrorCode = "MAXIMUM_STAY_EXCEEDED"
	CodeAdvanceTooSoon      ErrorCode = "ADVANCE_BOOKING_TOO_SOON"
	CodeAdvanceTooFar       ErrorCode = "ADVANCE_BOOKING_TOO_FAR"
	CodeClosedDates         ErrorCode = "CLOSED_DATES"
	CodeHotelNotFound       ErrorCode = "HOTEL_NOT_FOUND"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// RequestError rejects a whole request (validation or not-found), as opposed
// to per-room-type business-rule violations which degrade a single room type.
type RequestError struct {
	Code   ErrorCode
	Detail string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func NewRequestError(code ErrorCode, detail string) *RequestError {
	return &RequestError{Code: code, Detail: detail}
}
