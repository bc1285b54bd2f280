package service

import (
	"context"
	"testing"
	"time"

	reservationserrors "bookstay/internal/reservations/errors"
	"bookstay/internal/reservations/repository"
	"bookstay/internal/reservations/validator"
	"bookstay/pkg/config"
	mongotx "bookstay/pkg/db/mongo"
	apperrors "bookstay/pkg/errors"
	"bookstay/pkg/kafka"
	"bookstay/pkg/logger"
	"bookstay/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testOfferID     = "507f1f77bcf86cd799439011"
	testGuestID     = "guest-42"
	testReservation = "64a0f2c3b1d4e5f678901234"
)

// ────────────────────────────────────────────────
// Mock repositories for testing
// ────────────────────────────────────────────────

type mockReservationRepository struct {
	createFunc       func(ctx context.Context, r *model.Reservation) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	findByGuestFunc  func(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, error)
	findExpiredFunc  func(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error)
	updateFunc       func(ctx context.Context, id string, r *model.Reservation) (*mongo.UpdateResult, error)
	countByGuestFunc func(ctx context.Context, guestID string) (int64, error)

	deleted []string
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = testReservation
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findByGuestFunc != nil {
		return m.findByGuestFunc(ctx, guestID, limit, offset)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
	if m.findExpiredFunc != nil {
		return m.findExpiredFunc(ctx, now, limit)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Update(ctx context.Context, id string, r *model.Reservation) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, r)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockReservationRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockReservationRepository) CountByGuest(ctx context.Context, guestID string) (int64, error) {
	if m.countByGuestFunc != nil {
		return m.countByGuestFunc(ctx, guestID)
	}
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockAvailabilityRepository struct {
	createFunc      func(ctx context.Context, entry *model.Availability) error
	findByOfferFunc func(ctx context.Context, offerID string) ([]*model.Availability, error)
	deleteFunc      func(ctx context.Context, offerID string, dateFrom string, dateUntil string) error

	created []model.Availability
	deleted []string
}

func (m *mockAvailabilityRepository) Create(ctx context.Context, entry *model.Availability) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	m.created = append(m.created, *entry)
	return nil
}

func (m *mockAvailabilityRepository) FindByOffer(ctx context.Context, offerID string) ([]*model.Availability, error) {
	if m.findByOfferFunc != nil {
		return m.findByOfferFunc(ctx, offerID)
	}
	return []*model.Availability{}, nil
}

func (m *mockAvailabilityRepository) DeleteByOfferAndRange(ctx context.Context, offerID string, dateFrom string, dateUntil string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, offerID, dateFrom, dateUntil)
	}
	m.deleted = append(m.deleted, offerID+"/"+dateFrom+"/"+dateUntil)
	return nil
}

type mockOfferLockRepository struct {
	createFunc func(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error)

	acquired []string
	released []string
}

func (m *mockOfferLockRepository) Create(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	m.acquired = append(m.acquired, lock.ID)
	return lock, nil
}

func (m *mockOfferLockRepository) Delete(ctx context.Context, lockID string) error {
	m.released = append(m.released, lockID)
	return nil
}

type mockOfferCatalog struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Offer, error)
}

func (m *mockOfferCatalog) FindByID(ctx context.Context, id string) (*model.Offer, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Offer{ID: id, HotelName: "Grand Plaza", RoomLabel: "double", City: "tel_aviv", PricePerNight: 120}, nil
}

type mockEventPublisher struct {
	published []kafka.Message
}

func (m *mockEventPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return nil
}

// ────────────────────────────────────────────────
// Test helpers
// ────────────────────────────────────────────────

type testEnv struct {
	svc    *reservationService
	repo   *mockReservationRepository
	ledger *mockAvailabilityRepository
	locks  *mockOfferLockRepository
	events *mockEventPublisher
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:          log,
		HoldDuration: time.Hour,
		OfferLockTTL: 10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	env := &testEnv{
		repo:   &mockReservationRepository{},
		ledger: &mockAvailabilityRepository{},
		locks:  &mockOfferLockRepository{},
		events: &mockEventPublisher{},
		clock:  time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}

	var _ repository.ReservationRepository = env.repo
	var _ repository.AvailabilityRepository = env.ledger
	var _ repository.OfferLockRepository = env.locks

	svc := NewReservationService(
		env.repo,
		env.ledger,
		env.locks,
		validator.NewReservationValidator(log),
		&mockOfferCatalog{},
		env.events,
		cfg,
	)
	env.svc = svc.(*reservationService)
	env.svc.now = func() time.Time { return env.clock }

	return env
}

func pendingReservation(expiresAt time.Time) *model.Reservation {
	return &model.Reservation{
		ID:        testReservation,
		OfferID:   testOfferID,
		GuestID:   testGuestID,
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
		Status:    model.ReservationPending,
		Payment:   model.Payment{Status: model.PaymentPending},
		ExpiresAt: expiresAt,
	}
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	env := newTestEnv(t)

	reservation, err := env.svc.Create(context.Background(), testGuestID, &model.ReservationRequest{
		OfferID:   testOfferID,
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.ReservationPending {
		t.Errorf("expected status pending, got %s", reservation.Status)
	}
	if reservation.Payment.Status != model.PaymentPending {
		t.Errorf("expected payment pending, got %s", reservation.Payment.Status)
	}
	if want := env.clock.Add(time.Hour); !reservation.ExpiresAt.Equal(want) {
		t.Errorf("expected expires_at %v, got %v", want, reservation.ExpiresAt)
	}
	if len(env.ledger.created) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(env.ledger.created))
	}
	if env.ledger.created[0].OfferID != testOfferID {
		t.Errorf("ledger entry has wrong offer: %s", env.ledger.created[0].OfferID)
	}
	if len(env.locks.acquired) != 1 || env.locks.acquired[0] != "offer_lock_"+testOfferID {
		t.Errorf("expected offer lock acquisition, got %v", env.locks.acquired)
	}
	if len(env.locks.released) != 1 {
		t.Errorf("expected lock release, got %v", env.locks.released)
	}
	if len(env.events.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(env.events.published))
	}
	if got := env.events.published[0].GetEventType(); got != model.EventReservationCreated {
		t.Errorf("expected created event, got %s", got)
	}
}

func TestCreate_OverlapConflict(t *testing.T) {
	tests := []struct {
		name          string
		existingFrom  string
		existingUntil string
		wantConflict  bool
	}{
		{"full overlap", "04.10.2024", "04.15.2024", true},
		{"partial overlap", "04.12.2024", "04.20.2024", true},
		{"containing range", "04.01.2024", "04.30.2024", true},
		{"touching end boundary", "04.15.2024", "04.20.2024", true},
		{"touching start boundary", "04.05.2024", "04.10.2024", true},
		{"adjacent after", "04.16.2024", "04.20.2024", false},
		{"adjacent before", "04.05.2024", "04.09.2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.ledger.findByOfferFunc = func(ctx context.Context, offerID string) ([]*model.Availability, error) {
				return []*model.Availability{
					{OfferID: testOfferID, DateFrom: tt.existingFrom, DateUntil: tt.existingUntil},
				}, nil
			}

			_, err := env.svc.Create(context.Background(), testGuestID, &model.ReservationRequest{
				OfferID:   testOfferID,
				DateFrom:  "04.10.2024",
				DateUntil: "04.15.2024",
			})

			if tt.wantConflict {
				appErr := apperrors.AsAppError(err)
				if appErr == nil || appErr.Code != apperrors.CodeConflict {
					t.Fatalf("expected CONFLICT, got %v", err)
				}
				if len(env.locks.released) != 1 {
					t.Errorf("lock must be released after conflict, got %v", env.locks.released)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreate_UnparsableLedgerEntryBlocksBooking(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.findByOfferFunc = func(ctx context.Context, offerID string) ([]*model.Availability, error) {
		return []*model.Availability{
			{OfferID: testOfferID, DateFrom: "garbage", DateUntil: "04.15.2024"},
		}, nil
	}

	_, err := env.svc.Create(context.Background(), testGuestID, &model.ReservationRequest{
		OfferID:   testOfferID,
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
	})

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("a ledger entry that cannot be parsed must fail the booking, got %v", err)
	}
	if len(env.ledger.created) != 0 {
		t.Errorf("no ledger entry may be written past an unparsable one, got %v", env.ledger.created)
	}
}

func TestCreate_LockContention(t *testing.T) {
	env := newTestEnv(t)
	env.locks.createFunc = func(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error) {
		return nil, duplicateKeyErr()
	}

	_, err := env.svc.Create(context.Background(), testGuestID, &model.ReservationRequest{
		OfferID:   testOfferID,
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
	})

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected CONFLICT on lock contention, got %v", err)
	}
	if len(env.ledger.created) != 0 {
		t.Errorf("no ledger entry may be written under contention")
	}
}

func TestCreate_UnknownOffer(t *testing.T) {
	env := newTestEnv(t)
	env.svc.catalog = &mockOfferCatalog{
		findByIDFunc: func(ctx context.Context, id string) (*model.Offer, error) {
			return nil, apperrors.NotFoundWithID("Offer", id)
		},
	}

	_, err := env.svc.Create(context.Background(), testGuestID, &model.ReservationRequest{
		OfferID:   testOfferID,
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
	})

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreate_InvalidDates(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		wantCode string
	}{
		{"wrong separator", "04-10-2024", apperrors.CodeInvalidInput},
		{"day first", "15.04.2024", apperrors.CodeInvalidInput},
		{"garbage", "next tuesday", apperrors.CodeInvalidInput},
		{"empty", "", apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.svc.Create(context.Background(), testGuestID, &model.ReservationRequest{
				OfferID:   testOfferID,
				DateFrom:  tt.from,
				DateUntil: "04.15.2024",
			})

			appErr := apperrors.AsAppError(err)
			if appErr == nil {
				t.Fatalf("expected validation failure, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestCreate_NoGuest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), "", &model.ReservationRequest{
		OfferID:   testOfferID,
		DateFrom:  "04.10.2024",
		DateUntil: "04.15.2024",
	})

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

// ────────────────────────────────────────────────
// SimulatePayment
// ────────────────────────────────────────────────

func TestSimulatePayment_Success(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock.Add(30 * time.Minute)), nil
	}

	reservation, err := env.svc.SimulatePayment(context.Background(), testGuestID, testReservation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.ReservationConfirmed {
		t.Errorf("expected confirmed, got %s", reservation.Status)
	}
	if reservation.Payment.Status != model.PaymentPaid {
		t.Errorf("expected paid, got %s", reservation.Payment.Status)
	}
	if len(env.events.published) != 1 || env.events.published[0].GetEventType() != model.EventReservationConfirmed {
		t.Errorf("expected confirmed event, got %v", env.events.published)
	}
}

func TestSimulatePayment_ExactlyAtExpiryStillLive(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock), nil
	}

	reservation, err := env.svc.SimulatePayment(context.Background(), testGuestID, testReservation)
	if err != nil {
		t.Fatalf("payment at the exact expiry instant must succeed: %v", err)
	}
	if reservation.Status != model.ReservationConfirmed {
		t.Errorf("expected confirmed, got %s", reservation.Status)
	}
}

func TestSimulatePayment_AfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock.Add(-time.Second)), nil
	}

	_, err := env.svc.SimulatePayment(context.Background(), testGuestID, testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeExpired {
		t.Fatalf("expected EXPIRED, got %v", err)
	}
	if appErr.StatusCode() != 410 {
		t.Errorf("expected HTTP 410, got %d", appErr.StatusCode())
	}
	if len(env.ledger.deleted) != 1 {
		t.Fatalf("expired reservation must release its ledger entry, got %d deletions", len(env.ledger.deleted))
	}
	if want := testOfferID + "/04.10.2024/04.15.2024"; env.ledger.deleted[0] != want {
		t.Errorf("wrong ledger entry released: %s", env.ledger.deleted[0])
	}
	if len(env.repo.deleted) != 1 {
		t.Errorf("expired reservation must be removed, got %v", env.repo.deleted)
	}
	if len(env.events.published) != 1 || env.events.published[0].GetEventType() != model.EventReservationReclaimed {
		t.Errorf("expected reclaimed event, got %v", env.events.published)
	}
}

func TestSimulatePayment_AlreadyPaid(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		r := pendingReservation(env.clock.Add(30 * time.Minute))
		r.Status = model.ReservationConfirmed
		r.Payment.Status = model.PaymentPaid
		return r, nil
	}

	_, err := env.svc.SimulatePayment(context.Background(), testGuestID, testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
}

func TestSimulatePayment_WrongGuest(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock.Add(30 * time.Minute)), nil
	}

	_, err := env.svc.SimulatePayment(context.Background(), "someone-else", testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("ownership mismatch must read as NOT_FOUND, got %v", err)
	}
}

func TestSimulatePayment_CancelledBeforeLockGrant(t *testing.T) {
	env := newTestEnv(t)
	gone := false
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		if gone {
			return nil, reservationserrors.ErrNotFound
		}
		return pendingReservation(env.clock.Add(30 * time.Minute)), nil
	}
	env.locks.createFunc = func(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error) {
		gone = true
		env.locks.acquired = append(env.locks.acquired, lock.ID)
		return lock, nil
	}

	_, err := env.svc.SimulatePayment(context.Background(), testGuestID, testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("a reservation removed before the lock grant must read as NOT_FOUND, got %v", err)
	}
	if len(env.events.published) != 0 {
		t.Errorf("no event may be published for a vanished reservation, got %v", env.events.published)
	}
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_Success(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock.Add(30 * time.Minute)), nil
	}

	if err := env.svc.Cancel(context.Background(), testGuestID, testReservation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(env.repo.deleted) != 1 || env.repo.deleted[0] != testReservation {
		t.Fatalf("expected reservation to be deleted, got %v", env.repo.deleted)
	}
	if len(env.ledger.deleted) != 1 {
		t.Errorf("cancel must release the ledger entry, got %d deletions", len(env.ledger.deleted))
	}
	if len(env.events.published) != 1 || env.events.published[0].GetEventType() != model.EventReservationCancelled {
		t.Errorf("expected cancelled event, got %v", env.events.published)
	}
}

func TestCancel_ConfirmedReservation(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		r := pendingReservation(env.clock.Add(30 * time.Minute))
		r.Status = model.ReservationConfirmed
		r.Payment.Status = model.PaymentPaid
		return r, nil
	}

	err := env.svc.Cancel(context.Background(), testGuestID, testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
	if len(env.ledger.deleted) != 0 {
		t.Errorf("confirmed reservation must keep its ledger entry")
	}
	if len(env.repo.deleted) != 0 {
		t.Errorf("confirmed reservation must not be deleted")
	}
}

func TestCancel_PaymentConfirmsBeforeLockGrant(t *testing.T) {
	env := newTestEnv(t)
	confirmed := false
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		r := pendingReservation(env.clock.Add(30 * time.Minute))
		if confirmed {
			r.Status = model.ReservationConfirmed
			r.Payment.Status = model.PaymentPaid
		}
		return r, nil
	}
	env.locks.createFunc = func(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error) {
		confirmed = true
		env.locks.acquired = append(env.locks.acquired, lock.ID)
		return lock, nil
	}

	err := env.svc.Cancel(context.Background(), testGuestID, testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("a reservation paid before the lock grant must not cancel, got %v", err)
	}
	if len(env.repo.deleted) != 0 {
		t.Errorf("confirmed reservation must not be deleted, got %v", env.repo.deleted)
	}
	if len(env.ledger.deleted) != 0 {
		t.Errorf("confirmed reservation must keep its ledger entry, got %v", env.ledger.deleted)
	}
	if len(env.locks.released) != 1 {
		t.Errorf("lock must be released after the rejected cancel, got %v", env.locks.released)
	}
}

// ────────────────────────────────────────────────
// PaymentStatus
// ────────────────────────────────────────────────

func TestPaymentStatus_LazyReclaim(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock.Add(-time.Minute)), nil
	}

	_, err := env.svc.PaymentStatus(context.Background(), testGuestID, testReservation)

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeExpired {
		t.Fatalf("expected EXPIRED, got %v", err)
	}
	if appErr.StatusCode() != 410 {
		t.Errorf("expected HTTP 410, got %d", appErr.StatusCode())
	}
	if len(env.ledger.deleted) != 1 {
		t.Errorf("lazy reclaim must release the ledger entry")
	}
	if len(env.events.published) != 1 || env.events.published[0].GetEventType() != model.EventReservationReclaimed {
		t.Errorf("expected reclaimed event, got %v", env.events.published)
	}
}

func TestPaymentStatus_LiveReservationUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return pendingReservation(env.clock.Add(30 * time.Minute)), nil
	}

	reservation, err := env.svc.PaymentStatus(context.Background(), testGuestID, testReservation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.ReservationPending {
		t.Errorf("expected pending, got %s", reservation.Status)
	}
	if len(env.ledger.deleted) != 0 {
		t.Errorf("live reservation must not be reclaimed")
	}
}

// ────────────────────────────────────────────────
// ReclaimExpired
// ────────────────────────────────────────────────

func TestReclaimExpired_Sweep(t *testing.T) {
	env := newTestEnv(t)

	first := pendingReservation(env.clock.Add(-2 * time.Hour))
	second := pendingReservation(env.clock.Add(-time.Hour))
	second.ID = "64a0f2c3b1d4e5f678905678"
	second.DateFrom = "05.01.2024"
	second.DateUntil = "05.03.2024"

	env.repo.findExpiredFunc = func(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
		return []*model.Reservation{first, second}, nil
	}

	reclaimed, err := env.svc.ReclaimExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reclaimed != 2 {
		t.Errorf("expected 2 reclaimed, got %d", reclaimed)
	}
	if len(env.ledger.deleted) != 2 {
		t.Errorf("expected 2 ledger releases, got %d", len(env.ledger.deleted))
	}
	if len(env.events.published) != 2 {
		t.Errorf("expected 2 reclaimed events, got %d", len(env.events.published))
	}
}

func TestReclaimExpired_ContinuesPastLockedOffer(t *testing.T) {
	env := newTestEnv(t)

	first := pendingReservation(env.clock.Add(-2 * time.Hour))
	second := pendingReservation(env.clock.Add(-time.Hour))
	second.ID = "64a0f2c3b1d4e5f678905678"
	second.OfferID = "507f1f77bcf86cd799439022"

	env.repo.findExpiredFunc = func(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
		return []*model.Reservation{first, second}, nil
	}
	env.locks.createFunc = func(ctx context.Context, lock *model.OfferLock) (*model.OfferLock, error) {
		if lock.ID == "offer_lock_"+testOfferID {
			return nil, duplicateKeyErr()
		}
		return lock, nil
	}

	reclaimed, err := env.svc.ReclaimExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reclaimed != 1 {
		t.Errorf("expected 1 reclaimed past the locked offer, got %d", reclaimed)
	}
}

// ────────────────────────────────────────────────
// ListByGuest
// ────────────────────────────────────────────────

func TestListByGuest_ConcurrentAccess(t *testing.T) {
	env := newTestEnv(t)
	env.repo.countByGuestFunc = func(ctx context.Context, guestID string) (int64, error) {
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	}
	env.repo.findByGuestFunc = func(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, error) {
		time.Sleep(10 * time.Millisecond)
		return []*model.Reservation{
			pendingReservation(env.clock.Add(time.Hour)),
		}, nil
	}

	for i := 0; i < 10; i++ {
		reservations, count, err := env.svc.ListByGuest(context.Background(), testGuestID, 10, 0)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if count != 7 {
			t.Errorf("iteration %d: expected count 7, got %d", i, count)
		}
		if len(reservations) != 1 {
			t.Errorf("iteration %d: expected 1 reservation, got %d", i, len(reservations))
		}
	}
}
