package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"glowdesk/gateway/mpesa"
	"glowdesk/models"
)

// fakeBookingRepo is an in-memory BookingRepository.
type fakeBookingRepo struct {
	mu                sync.Mutex
	bookings          map[string]*models.Booking
	attempts          map[string]*models.PaymentAttempt
	failCreateAttempt error
	findActiveCalls   int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[string]*models.Booking),
		attempts: make(map[string]*models.PaymentAttempt),
	}
}

func (r *fakeBookingRepo) CreateBooking(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *b
	r.bookings[b.ID] = &copied
	return nil
}

func (r *fakeBookingRepo) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found")
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) GetBookingByCheckoutID(ctx context.Context, checkoutID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CheckoutRequestID == checkoutID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("booking for checkout %s not found", checkoutID)
}

func (r *fakeBookingRepo) DeleteBooking(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) UpdateBookingStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (r *fakeBookingRepo) SetBookingSchedule(id string, dateTime time.Time, service string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	b.DateTime = dateTime
	if service != "" {
		b.Service = service
	}
	return nil
}

func (r *fakeBookingRepo) SetCalendarSyncID(id, syncID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	b.CalendarSyncID = syncID
	return nil
}

func (r *fakeBookingRepo) ListBookings(ctx context.Context) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBookingRepo) FindActiveBookingAt(ctx context.Context, dateTime time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findActiveCalls++
	for _, b := range r.bookings {
		if b.DateTime.Equal(dateTime) && b.Status != models.BookingStatusCancelled {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) FindConfirmedWithoutCalendarSync(ctx context.Context) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusConfirmed && b.CalendarSyncID == "" {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CreatePaymentAttempt(a *models.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateAttempt != nil {
		return r.failCreateAttempt
	}
	copied := *a
	r.attempts[a.CheckoutRequestID] = &copied
	return nil
}

func (r *fakeBookingRepo) GetPaymentAttempt(ctx context.Context, checkoutID string) (*models.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[checkoutID]
	if !ok {
		return nil, fmt.Errorf("payment attempt not found")
	}
	copied := *a
	return &copied, nil
}

func (r *fakeBookingRepo) UpdatePaymentAttemptStatus(checkoutID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[checkoutID]
	if !ok {
		return fmt.Errorf("payment attempt not found")
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

// memDraftStore is an in-memory DraftStore.
type memDraftStore struct {
	mu     sync.Mutex
	drafts map[string]models.BookingDraft
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: make(map[string]models.BookingDraft)}
}

func (s *memDraftStore) Get(ctx context.Context, customerID string) (*models.BookingDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[customerID]
	if !ok {
		return nil, fmt.Errorf("draft not found")
	}
	copied := d
	return &copied, nil
}

func (s *memDraftStore) Set(ctx context.Context, draft *models.BookingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.CustomerID] = *draft
	return nil
}

func (s *memDraftStore) Delete(ctx context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, customerID)
	return nil
}

// memDedupStore is an in-memory DedupStore.
type memDedupStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDedupStore() *memDedupStore {
	return &memDedupStore{seen: make(map[string]bool)}
}

func (s *memDedupStore) MarkOnce(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memDedupStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
	return nil
}

// fakeGateway scripts STK push and status-poll behavior.
type fakeGateway struct {
	mu           sync.Mutex
	pushResp     *mpesa.STKPushResponse
	pushErr      error
	statuses     []string
	statusErr    error
	statusCalls  int
	lastCheckout string
}

func (g *fakeGateway) STKPush(ctx context.Context, phone string, amount float64, reference string) (*mpesa.STKPushResponse, error) {
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	if g.pushResp != nil {
		return g.pushResp, nil
	}
	return &mpesa.STKPushResponse{CheckoutRequestID: "ws_1", ResponseCode: "0"}, nil
}

func (g *fakeGateway) QueryStatus(ctx context.Context, checkoutID string) (*mpesa.StatusResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCheckout = checkoutID
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	idx := g.statusCalls - 1
	if idx >= len(g.statuses) {
		idx = len(g.statuses) - 1
	}
	if idx < 0 {
		return &mpesa.StatusResponse{Status: models.PaymentStatusPending}, nil
	}
	return &mpesa.StatusResponse{Status: g.statuses[idx]}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls
}

// fakeAvailClient scripts the authoritative availability service.
type fakeAvailClient struct {
	slots []models.AvailabilitySlot
	err   error
	calls int
}

func (c *fakeAvailClient) AvailableHours(ctx context.Context, date, service string) ([]models.AvailabilitySlot, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.slots, nil
}

// recordingScheduler captures scheduled reminders. Setting failNext makes
// the next N Schedule calls fail.
type recordingScheduler struct {
	mu        sync.Mutex
	scheduled []models.ReminderPayload
	failNext  int
}

func (s *recordingScheduler) Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return fmt.Errorf("reminder queue unavailable")
	}
	s.scheduled = append(s.scheduled, payload)
	return nil
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

// recordingAlerts captures operator alerts.
type recordingAlerts struct {
	mu     sync.Mutex
	titles []string
}

func (a *recordingAlerts) NotifyOperator(ctx context.Context, title, body string, data map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
	return nil
}

// fakeCalendar scripts calendar event creation.
type fakeCalendar struct {
	mu     sync.Mutex
	nextID int
	fail   map[string]bool
	events map[string]string
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{fail: make(map[string]bool), events: make(map[string]string)}
}

func (c *fakeCalendar) CreateEvent(ctx context.Context, b *models.Booking) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[b.ID] {
		return "", fmt.Errorf("calendar unavailable")
	}
	c.nextID++
	id := fmt.Sprintf("evt_%d", c.nextID)
	c.events[b.ID] = id
	return id, nil
}
