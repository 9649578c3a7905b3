package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"staybook/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
func nullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}
func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func isDupKey(err error) bool {
	var me *mysqldriver.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// ---------------------------------------------------------------------------
// BookingRepository
// ---------------------------------------------------------------------------

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	_, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.ID,
		b.HotelID,
		b.RoomTypeID,
		valInt64(b.RoomID),
		b.GuestID,
		string(b.Status),
		b.CheckIn,
		b.CheckOut,
		b.NumAdults,
		b.NumChildren,
		b.TotalPriceCents,
		b.Currency,
		valStr(b.PaymentIntentRef),
		valStr(b.CancelReason),
		b.CreatedAt,
		b.UpdatedAt,
	)
	return err
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, selectBookingSQL, id)
	return scanBooking(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var roomID sql.NullInt64
	var status string
	var paymentRef, cancelReason sql.NullString
	var cancelledAt sql.NullTime

	if err := row.Scan(
		&b.ID,
		&b.HotelID,
		&b.RoomTypeID,
		&roomID,
		&b.GuestID,
		&status,
		&b.CheckIn,
		&b.CheckOut,
		&b.NumAdults,
		&b.NumChildren,
		&b.TotalPriceCents,
		&b.Currency,
		&paymentRef,
		&cancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
		&cancelledAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	b.RoomID = nullInt64(roomID)
	b.PaymentIntentRef = nullStr(paymentRef)
	b.CancelReason = nullStr(cancelReason)
	b.CancelledAt = nullTime(cancelledAt)
	return b, nil
}

func (r *Repo) CompareAndSwapStatus(ctx context.Context, id string, expected, next domain.BookingStatus, extra domain.StatusExtra) (bool, error) {
	res, err := r.db.ExecContext(ctx, casBookingStatusSQL,
		string(next),
		valStr(extra.PaymentIntentRef),
		valStr(extra.CancelReason),
		valTime(extra.CancelledAt),
		id,
		string(expected),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, selectStalePendingSQL, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// InventoryRepository
// ---------------------------------------------------------------------------

func (r *Repo) FetchHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	row := r.db.QueryRowContext(ctx, selectHotelSQL, id)

	var h domain.Hotel
	var city, country, tz sql.NullString
	if err := row.Scan(&h.ID, &h.Name, &city, &country, &h.Currency, &tz); err != nil {
		if err == sql.ErrNoRows {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	h.City = nullStr(city)
	h.Country = nullStr(country)
	h.TimeZone = nullStr(tz)
	return h, nil
}

func (r *Repo) FetchRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, selectRoomTypesSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		var rt domain.RoomType
		var occ sql.NullInt64
		if err := rows.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.BasePriceCents, &occ); err != nil {
			return nil, err
		}
		rt.MaxOccupancy = nullInt(occ)
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *Repo) FetchActiveRatePlans(ctx context.Context, hotelID, roomTypeID int64) ([]domain.RatePlan, error) {
	rows, err := r.db.QueryContext(ctx, selectActiveRatePlansSQL, hotelID, roomTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RatePlan
	for rows.Next() {
		var p domain.RatePlan
		var minStay, maxStay, minAdv, maxAdv sql.NullInt64
		var daysJSON sql.NullString
		if err := rows.Scan(
			&p.ID,
			&p.HotelID,
			&p.RoomTypeID,
			&p.Name,
			&p.PricePerNightCents,
			&p.ValidFrom,
			&p.ValidTo,
			&p.Priority,
			&minStay,
			&maxStay,
			&minAdv,
			&maxAdv,
			&daysJSON,
			&p.IsActive,
		); err != nil {
			return nil, err
		}
		p.MinStayNights = nullInt(minStay)
		p.MaxStayNights = nullInt(maxStay)
		p.MinAdvanceBookingDays = nullInt(minAdv)
		p.MaxAdvanceBookingDays = nullInt(maxAdv)
		if daysJSON.Valid && daysJSON.String != "" {
			if err := json.Unmarshal([]byte(daysJSON.String), &p.ApplicableDaysOfWeek); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) FetchClosedDateRanges(ctx context.Context, hotelID int64, roomTypeID *int64, start, end time.Time) ([]domain.ClosedDateRange, error) {
	var rows *sql.Rows
	var err error
	if roomTypeID != nil {
		rows, err = r.db.QueryContext(ctx, selectClosedRangesSQL, hotelID, end, start, *roomTypeID)
	} else {
		rows, err = r.db.QueryContext(ctx, selectClosedRangesHotelWideSQL, hotelID, end, start)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClosedDateRange
	for rows.Next() {
		var cr domain.ClosedDateRange
		var rtID sql.NullInt64
		var reason sql.NullString
		if err := rows.Scan(&cr.ID, &cr.HotelID, &rtID, &cr.Start, &cr.End, &reason, &cr.IsActive); err != nil {
			return nil, err
		}
		cr.RoomTypeID = nullInt64(rtID)
		cr.Reason = nullStr(reason)
		out = append(out, cr)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// WebhookStore
// ---------------------------------------------------------------------------

func (r *Repo) InsertEvent(ctx context.Context, externalID, eventType string, payload []byte) (bool, domain.WebhookEvent, error) {
	_, err := r.db.ExecContext(ctx, insertWebhookEventSQL, externalID, eventType, payload)
	if err == nil {
		ev, gerr := r.getEvent(ctx, externalID)
		return true, ev, gerr
	}
	if !isDupKey(err) {
		return false, domain.WebhookEvent{}, err
	}
	// lost the insert race (or redelivery): report the existing record
	ev, gerr := r.getEvent(ctx, externalID)
	return false, ev, gerr
}

func (r *Repo) getEvent(ctx context.Context, externalID string) (domain.WebhookEvent, error) {
	row := r.db.QueryRowContext(ctx, selectWebhookEventSQL, externalID)

	var ev domain.WebhookEvent
	var status string
	var processedAt sql.NullTime
	var lastError sql.NullString
	if err := row.Scan(&ev.ExternalID, &ev.Type, &status, &ev.Payload, &processedAt, &lastError, &ev.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.WebhookEvent{}, domain.ErrNotFound
		}
		return domain.WebhookEvent{}, err
	}
	ev.Status = domain.WebhookStatus(status)
	ev.ProcessedAt = nullTime(processedAt)
	ev.LastError = nullStr(lastError)
	return ev, nil
}

func (r *Repo) MarkEventStatus(ctx context.Context, externalID string, status domain.WebhookStatus, lastError *string) error {
	_, err := r.db.ExecContext(ctx, updateWebhookStatusSQL,
		string(status), valStr(lastError), string(status), externalID)
	return err
}
