package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	server "staybook/internal/adapters/http_server"
	"staybook/internal/adapters/stripe"
	"staybook/internal/app"
	"staybook/internal/domain"
)

// ---- fakes ----

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type memStore struct {
	mu       sync.Mutex
	hotel    domain.Hotel
	rooms    []domain.RoomType
	plans    map[int64][]domain.RatePlan
	closed   []domain.ClosedDateRange
	bookings map[string]domain.Booking
	events   map[string]*domain.WebhookEvent
}

func (m *memStore) FetchHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	if id != m.hotel.ID {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return m.hotel, nil
}

func (m *memStore) FetchRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	return m.rooms, nil
}

func (m *memStore) FetchActiveRatePlans(ctx context.Context, hotelID, roomTypeID int64) ([]domain.RatePlan, error) {
	return m.plans[roomTypeID], nil
}

func (m *memStore) FetchClosedDateRanges(ctx context.Context, hotelID int64, roomTypeID *int64, start, end time.Time) ([]domain.ClosedDateRange, error) {
	var out []domain.ClosedDateRange
	for _, r := range m.closed {
		if r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) CreateBooking(ctx context.Context, b domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) CompareAndSwapStatus(ctx context.Context, id string, expected, next domain.BookingStatus, extra domain.StatusExtra) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != expected {
		return false, nil
	}
	b.Status = next
	if extra.PaymentIntentRef != nil {
		b.PaymentIntentRef = extra.PaymentIntentRef
	}
	if extra.CancelReason != nil {
		b.CancelReason = extra.CancelReason
	}
	if extra.CancelledAt != nil {
		b.CancelledAt = extra.CancelledAt
	}
	m.bookings[id] = b
	return true, nil
}

func (m *memStore) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error) {
	return nil, nil
}

func (m *memStore) InsertEvent(ctx context.Context, externalID, eventType string, payload []byte) (bool, domain.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[externalID]; ok {
		return false, *ev, nil
	}
	ev := &domain.WebhookEvent{ExternalID: externalID, Type: eventType, Status: domain.WebhookReceived, Payload: payload}
	m.events[externalID] = ev
	return true, *ev, nil
}

func (m *memStore) MarkEventStatus(ctx context.Context, externalID string, status domain.WebhookStatus, lastError *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	ev.Status = status
	ev.LastError = lastError
	return nil
}

// ---- harness ----

const webhookSecret = "whsec_test"

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := &memStore{
		hotel: domain.Hotel{ID: 1, Name: "Harbor View", Currency: "USD"},
		rooms: []domain.RoomType{{ID: 11, HotelID: 1, Name: "Standard", BasePriceCents: 10000}},
		plans: map[int64][]domain.RatePlan{
			11: {{
				ID: 100, HotelID: 1, RoomTypeID: 11, Name: "Summer",
				PricePerNightCents: 15000,
				ValidFrom:          testNow.AddDate(0, -1, 0), ValidTo: testNow.AddDate(1, 0, 0),
				Priority: 10, IsActive: true,
			}},
		},
		bookings: map[string]domain.Booking{},
		events:   map[string]*domain.WebhookEvent{},
	}
	clock := fixedClock{now: testNow}
	avail := app.NewAvailabilityService(store, nil, clock, 0)
	bookings := app.NewBookingService(store, avail, clock)
	verifier := stripe.NewVerifier(webhookSecret, clock)
	webhooks := app.NewWebhookProcessor(store, verifier, app.DefaultHandlers(bookings))

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Avail: avail, Bookings: bookings, Webhooks: webhooks})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, store
}

func getJSON(t *testing.T, url string, wantStatus int, dst any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d want %d", url, res.StatusCode, wantStatus)
	}
	if dst != nil {
		if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func postJSON(t *testing.T, url string, body string, wantStatus int, dst any) {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d want %d", url, res.StatusCode, wantStatus)
	}
	if dst != nil {
		if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

// ---- tests ----

func TestGetAvailability(t *testing.T) {
	ts, _ := newTestServer(t)

	var body struct {
		Nights          int  `json:"nights"`
		DaysInAdvance   int  `json:"days_in_advance"`
		HasAvailability bool `json:"has_availability"`
		Available       []struct {
			RoomTypeID    int64 `json:"room_type_id"`
			SubtotalCents int64 `json:"subtotal_cents"`
			TaxCents      int64 `json:"tax_cents"`
			TotalCents    int64 `json:"total_cents"`
		} `json:"available_room_types"`
	}
	getJSON(t, ts.URL+"/v1/hotels/1/availability?check_in=2025-07-01&check_out=2025-07-04&adults=2", http.StatusOK, &body)

	if !body.HasAvailability || body.Nights != 3 || body.DaysInAdvance != 30 {
		t.Fatalf("unexpected response: %+v", body)
	}
	if len(body.Available) != 1 || body.Available[0].TotalCents != 49500 {
		t.Fatalf("unexpected quote: %+v", body.Available)
	}
}

func TestGetAvailabilityErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	var errBody struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	getJSON(t, ts.URL+"/v1/hotels/1/availability", http.StatusBadRequest, &errBody)
	if errBody.Error.Code != "MISSING_PARAMETERS" {
		t.Fatalf("expected MISSING_PARAMETERS, got %s", errBody.Error.Code)
	}

	getJSON(t, ts.URL+"/v1/hotels/999/availability?check_in=2025-07-01&check_out=2025-07-04", http.StatusNotFound, &errBody)
	if errBody.Error.Code != "HOTEL_NOT_FOUND" {
		t.Fatalf("expected HOTEL_NOT_FOUND, got %s", errBody.Error.Code)
	}

	getJSON(t, ts.URL+"/v1/hotels/1/availability?check_in=bad&check_out=2025-07-04", http.StatusBadRequest, &errBody)
	if errBody.Error.Code != "INVALID_DATE_FORMAT" {
		t.Fatalf("expected INVALID_DATE_FORMAT, got %s", errBody.Error.Code)
	}
}

func TestCreateAndTransitionBooking(t *testing.T) {
	ts, _ := newTestServer(t)

	var created struct {
		ID               string   `json:"id"`
		Status           string   `json:"status"`
		TotalPriceCents  int64    `json:"total_price_cents"`
		AvailableActions []string `json:"available_actions"`
	}
	postJSON(t, ts.URL+"/v1/bookings",
		`{"hotel_id":1,"room_type_id":11,"guest_id":7,"check_in":"2025-07-01","check_out":"2025-07-04","adults":2}`,
		http.StatusCreated, &created)

	if created.Status != "pending" || created.TotalPriceCents != 49500 {
		t.Fatalf("unexpected booking: %+v", created)
	}
	if len(created.AvailableActions) != 5 {
		t.Fatalf("pending booking should offer 5 actions: %v", created.AvailableActions)
	}

	// CHECK_IN from pending is illegal: 409 with the legal set attached
	var conflict struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Actions []string `json:"available_actions"`
	}
	postJSON(t, ts.URL+"/v1/bookings/"+created.ID+"/actions",
		`{"action":"CHECK_IN"}`, http.StatusConflict, &conflict)
	if conflict.Error.Code != "INVALID_TRANSITION" || len(conflict.Actions) != 5 {
		t.Fatalf("unexpected conflict body: %+v", conflict)
	}

	// CANCEL with a reason succeeds
	var cancelled struct {
		Status string `json:"status"`
	}
	postJSON(t, ts.URL+"/v1/bookings/"+created.ID+"/actions",
		`{"action":"CANCEL","reason":"guest request"}`, http.StatusOK, &cancelled)
	if cancelled.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestBookingActionRejectsSystemEvents(t *testing.T) {
	ts, store := newTestServer(t)
	store.bookings["b1"] = domain.Booking{ID: "b1", Status: domain.StatusPending}

	var errBody struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	postJSON(t, ts.URL+"/v1/bookings/b1/actions", `{"action":"EXPIRE"}`, http.StatusBadRequest, &errBody)
	if errBody.Error.Code != "MISSING_PARAMETERS" {
		t.Fatalf("unexpected body: %+v", errBody)
	}
}

func TestStripeWebhookEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	store.bookings["b1"] = domain.Booking{ID: "b1", Status: domain.StatusPending}

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9","metadata":{"booking_id":"b1"}}}}`)
	sig := stripe.SignHeader([]byte(webhookSecret), testNow.Unix(), payload)

	send := func(header string) (int, string) {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", header)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST webhook: %v", err)
		}
		defer res.Body.Close()
		var body struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(res.Body).Decode(&body)
		return res.StatusCode, body.Status
	}

	if code, status := send(sig); code != http.StatusOK || status != "processed" {
		t.Fatalf("first delivery: code=%d status=%s", code, status)
	}
	if store.bookings["b1"].Status != domain.StatusConfirmed {
		t.Fatalf("booking should be confirmed, got %s", store.bookings["b1"].Status)
	}

	// duplicate delivery no-ops
	if code, status := send(sig); code != http.StatusOK || status != "already_processed" {
		t.Fatalf("duplicate delivery: code=%d status=%s", code, status)
	}

	// bad signature is rejected without detail
	if code, _ := send("t=1,v1=deadbeef"); code != http.StatusBadRequest {
		t.Fatalf("bad signature: code=%d", code)
	}
}
