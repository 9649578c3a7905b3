package mysql

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const insertBookingSQL = `
INSERT INTO bookings
  (id, hotel_id, room_type_id, room_id, guest_id, status,
   check_in, check_out, num_adults, num_children,
   total_price_cents, currency, payment_intent_ref, cancel_reason,
   created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectBookingSQL = `
SELECT id, hotel_id, room_type_id, room_id, guest_id, status,
       check_in, check_out, num_adults, num_children,
       total_price_cents, currency, payment_intent_ref, cancel_reason,
       created_at, updated_at, cancelled_at
FROM bookings
WHERE id = ?
`

// Conditional update keyed on the expected current status; zero rows affected
// means a concurrent transition won the race.
const casBookingStatusSQL = `
UPDATE bookings
SET status             = ?,
    payment_intent_ref = COALESCE(?, payment_intent_ref),
    cancel_reason      = COALESCE(?, cancel_reason),
    cancelled_at       = COALESCE(?, cancelled_at),
    updated_at         = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?
`

const selectStalePendingSQL = `
SELECT id, hotel_id, room_type_id, room_id, guest_id, status,
       check_in, check_out, num_adults, num_children,
       total_price_cents, currency, payment_intent_ref, cancel_reason,
       created_at, updated_at, cancelled_at
FROM bookings
WHERE status = 'pending' AND created_at < ?
ORDER BY created_at
LIMIT ?
`

// -----------------------------------------------------------------------------
// INVENTORY
// -----------------------------------------------------------------------------

const selectHotelSQL = `
SELECT id, name, city, country, currency, timezone
FROM hotels
WHERE id = ?
`

const selectRoomTypesSQL = `
SELECT id, hotel_id, name, base_price_cents, max_occupancy
FROM room_types
WHERE hotel_id = ?
ORDER BY id
`

// Priority descending with id ascending as the deterministic tie-break.
const selectActiveRatePlansSQL = `
SELECT id, hotel_id, room_type_id, name, price_per_night_cents,
       valid_from, valid_to, priority,
       min_stay_nights, max_stay_nights,
       min_advance_booking_days, max_advance_booking_days,
       applicable_days_of_week, is_active
FROM rate_plans
WHERE hotel_id = ? AND room_type_id = ? AND is_active = 1
ORDER BY priority DESC, id ASC
`

// Half-open interval overlap: stored_start < requested_end AND stored_end >
// requested_start. Hotel-wide rows (room_type_id NULL) always qualify.
const selectClosedRangesSQL = `
SELECT id, hotel_id, room_type_id, start_date, end_date, reason, is_active
FROM closed_date_ranges
WHERE hotel_id = ? AND is_active = 1
  AND start_date < ? AND end_date > ?
  AND (room_type_id IS NULL OR room_type_id = ?)
ORDER BY start_date, id
`

const selectClosedRangesHotelWideSQL = `
SELECT id, hotel_id, room_type_id, start_date, end_date, reason, is_active
FROM closed_date_ranges
WHERE hotel_id = ? AND is_active = 1
  AND start_date < ? AND end_date > ?
  AND room_type_id IS NULL
ORDER BY start_date, id
`

// -----------------------------------------------------------------------------
// WEBHOOK EVENTS
// -----------------------------------------------------------------------------

// The unique key on external_id makes this insert the serialization point for
// duplicate deliveries; losers surface ER_DUP_ENTRY.
const insertWebhookEventSQL = `
INSERT INTO webhook_events (external_id, type, status, payload)
VALUES (?, ?, 'received', ?)
`

const selectWebhookEventSQL = `
SELECT external_id, type, status, payload, processed_at, last_error, created_at
FROM webhook_events
WHERE external_id = ?
`

const updateWebhookStatusSQL = `
UPDATE webhook_events
SET status       = ?,
    last_error   = ?,
    processed_at = CASE WHEN ? = 'processed' THEN CURRENT_TIMESTAMP ELSE processed_at END
WHERE external_id = ?
`
