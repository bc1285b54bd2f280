package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reservationserrors "bookstay/internal/reservations/errors"
	"bookstay/internal/reservations/repository"
	"bookstay/internal/reservations/validator"
	"bookstay/pkg/config"
	"bookstay/pkg/dates"
	apperrors "bookstay/pkg/errors"
	"bookstay/pkg/kafka"
	"bookstay/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// OfferCatalog resolves offers referenced by reservation requests. Backed by
// the catalog HTTP client in production and by repository lookups in tests.
type OfferCatalog interface {
	FindByID(ctx context.Context, id string) (*model.Offer, error)
}

// EventPublisher pushes reservation lifecycle events to the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ReservationService interface {
	Create(ctx context.Context, guestID string, req *model.ReservationRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, guestID string, id string) (*model.Reservation, error)
	ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	Cancel(ctx context.Context, guestID string, id string) error
	SimulatePayment(ctx context.Context, guestID string, id string) (*model.Reservation, error)
	PaymentStatus(ctx context.Context, guestID string, id string) (*model.Reservation, error)
	ReclaimExpired(ctx context.Context) (int, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	ledger    repository.AvailabilityRepository
	lockRepo  repository.OfferLockRepository
	validator *validator.ReservationValidator
	catalog   OfferCatalog
	events    EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	ledger repository.AvailabilityRepository,
	lockRepo repository.OfferLockRepository,
	validator *validator.ReservationValidator,
	catalog OfferCatalog,
	events EventPublisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		ledger:    ledger,
		lockRepo:  lockRepo,
		validator: validator,
		catalog:   catalog,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *reservationService) Create(ctx context.Context, guestID string, req *model.ReservationRequest) (*model.Reservation, error) {
	if guestID == "" {
		return nil, apperrors.Unauthorized("Guest identity is required")
	}

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Reservation request validation failed", "error", err)
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && vErrs.HasDateFormatError() {
			return nil, apperrors.InvalidInput("Dates must be calendar dates in MM.DD.YYYY format")
		}
		return nil, apperrors.Validation("Invalid reservation input", map[string]any{"error": err.Error()})
	}

	newFrom, newUntil, err := dates.ParseRange(req.DateFrom, req.DateUntil)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalog.FindByID(ctx, req.OfferID); err != nil {
		if appErr := apperrors.AsAppError(err); appErr != nil {
			return nil, appErr
		}
		return nil, apperrors.Internal("Failed to resolve offer", err)
	}

	// Acquire advisory lock to prevent race conditions
	lockID, err := s.acquireOfferLock(ctx, req.OfferID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseOfferLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release offer lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	now := s.now().UTC().Truncate(time.Millisecond)
	reservation := &model.Reservation{
		OfferID:   req.OfferID,
		GuestID:   guestID,
		DateFrom:  req.DateFrom,
		DateUntil: req.DateUntil,
		Status:    model.ReservationPending,
		Payment:   model.Payment{Status: model.PaymentPending},
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.HoldDuration),
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyAvailable(sessCtx, req.OfferID, newFrom, newUntil); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		entry := &model.Availability{
			OfferID:   req.OfferID,
			DateFrom:  req.DateFrom,
			DateUntil: req.DateUntil,
		}
		if err := s.ledger.Create(sessCtx, entry); err != nil {
			return apperrors.Internal("Failed to record availability", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return nil, err
	}

	s.publish(ctx, model.EventReservationCreated, reservation)

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"offer_id", reservation.OfferID,
		"guest_id", reservation.GuestID,
		"expires_at", reservation.ExpiresAt,
	)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	return s.findOwned(ctx, guestID, id)
}

func (s *reservationService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if guestID == "" {
		return nil, 0, apperrors.Unauthorized("Guest identity is required")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByGuest(ctx, guestID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "guest_id", guestID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByGuest(ctx, guestID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "guest_id", guestID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) Cancel(ctx context.Context, guestID string, id string) error {
	reservation, err := s.findOwned(ctx, guestID, id)
	if err != nil {
		return err
	}

	if reservation.Status != model.ReservationPending || reservation.Payment.Status != model.PaymentPending {
		return apperrors.InvalidState("Only a pending, unpaid reservation can be cancelled")
	}

	lockID, err := s.acquireOfferLock(ctx, reservation.OfferID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseOfferLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release offer lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	// Re-read under the lock: a payment may have confirmed the reservation
	// between the first read and the lock grant.
	reservation, err = s.findOwned(ctx, guestID, id)
	if err != nil {
		return err
	}
	if reservation.Status != model.ReservationPending || reservation.Payment.Status != model.PaymentPending {
		return apperrors.InvalidState("Only a pending, unpaid reservation can be cancelled")
	}

	if err := s.release(ctx, reservation); err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "error", err)
		return err
	}

	reservation.Status = model.ReservationCancelled
	s.publish(ctx, model.EventReservationCancelled, reservation)

	s.cfg.Log.Info("Reservation cancelled successfully", "id", id, "offer_id", reservation.OfferID)
	return nil
}

func (s *reservationService) SimulatePayment(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	reservation, err := s.findOwned(ctx, guestID, id)
	if err != nil {
		return nil, err
	}

	if reservation.Status == model.ReservationCancelled {
		return nil, apperrors.InvalidState("Reservation has been cancelled")
	}
	if reservation.Payment.Status != model.PaymentPending {
		return nil, apperrors.InvalidState("Payment has already been completed or failed")
	}

	// The expiry check and the resulting transition must not interleave with
	// the sweeper, so both happen under the offer lock.
	lockID, err := s.acquireOfferLock(ctx, reservation.OfferID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseOfferLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release offer lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	// Re-read under the lock: a concurrent cancel or sweep may have removed
	// the reservation between the first read and the lock grant.
	reservation, err = s.findOwned(ctx, guestID, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status == model.ReservationCancelled {
		return nil, apperrors.InvalidState("Reservation has been cancelled")
	}
	if reservation.Payment.Status != model.PaymentPending {
		return nil, apperrors.InvalidState("Payment has already been completed or failed")
	}

	if reservation.Expired(s.now()) {
		if err := s.release(ctx, reservation); err != nil {
			s.cfg.Log.Error("Failed to reclaim expired reservation", "id", id, "error", err)
			return nil, err
		}
		reservation.Status = model.ReservationCancelled
		reservation.Payment.Status = model.PaymentFailed
		s.publish(ctx, model.EventReservationReclaimed, reservation)
		s.cfg.Log.Info("Expired reservation reclaimed on payment attempt", "id", id, "offer_id", reservation.OfferID)
		return nil, apperrors.Expired("Reservation holding window has elapsed")
	}

	reservation.Status = model.ReservationConfirmed
	reservation.Payment.Status = model.PaymentPaid

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, reservation); err != nil {
			return apperrors.Internal("Failed to confirm reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to complete payment", "id", id, "error", err)
		return nil, err
	}

	s.publish(ctx, model.EventReservationConfirmed, reservation)

	s.cfg.Log.Info("Payment completed successfully", "id", id, "offer_id", reservation.OfferID)
	return reservation, nil
}

func (s *reservationService) PaymentStatus(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	reservation, err := s.findOwned(ctx, guestID, id)
	if err != nil {
		return nil, err
	}

	// Lazy reclaim keeps status reads truthful between sweeper runs.
	if reservation.Expired(s.now()) {
		if err := s.reclaim(ctx, reservation); err != nil {
			s.cfg.Log.Error("Failed to reclaim expired reservation on status read", "id", id, "error", err)
			return nil, err
		}
		return nil, apperrors.Expired("Reservation holding window has elapsed")
	}

	return reservation, nil
}

// ReclaimExpired sweeps pending reservations whose holding window elapsed and
// releases their dates. Returns the number of reservations reclaimed; failures
// on individual items are logged and do not abort the sweep.
func (s *reservationService) ReclaimExpired(ctx context.Context) (int, error) {
	const sweepLimit = 100

	expired, err := s.repo.FindExpired(ctx, s.now(), sweepLimit)
	if err != nil {
		return 0, apperrors.Internal("Failed to scan for expired reservations", err)
	}

	reclaimed := 0
	for _, reservation := range expired {
		if err := s.reclaim(ctx, reservation); err != nil {
			s.cfg.Log.Warn("Failed to reclaim reservation",
				"id", reservation.ID,
				"offer_id", reservation.OfferID,
				"error", err,
			)
			continue
		}
		reclaimed++
	}

	return reclaimed, nil
}

// --- Helpers ---

// findOwned fetches a reservation and enforces guest ownership. A reservation
// held by a different guest is reported as not found rather than forbidden so
// reservation IDs leak nothing about other guests.
func (s *reservationService) findOwned(ctx context.Context, guestID string, id string) (*model.Reservation, error) {
	if guestID == "" {
		return nil, apperrors.Unauthorized("Guest identity is required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	if reservation.GuestID != guestID {
		return nil, apperrors.NotFoundWithID("Reservation", id)
	}

	return reservation, nil
}

// verifyAvailable walks the offer's ledger and rejects any closed-inclusive
// overlap with the requested range. Ranges that merely touch on a boundary
// date still collide because both stays claim that night.
func (s *reservationService) verifyAvailable(ctx context.Context, offerID string, newFrom, newUntil time.Time) error {
	entries, err := s.ledger.FindByOffer(ctx, offerID)
	if err != nil {
		return apperrors.Internal("Failed to check offer availability", err)
	}

	for _, entry := range entries {
		existingFrom, existingUntil, err := dates.ParseRange(entry.DateFrom, entry.DateUntil)
		if err != nil {
			// An entry that cannot be parsed cannot be proven non-overlapping,
			// so the booking must not proceed past it.
			s.cfg.Log.Error("Unparsable availability entry",
				"entry_id", entry.ID,
				"offer_id", offerID,
				"error", err,
			)
			return err
		}
		if dates.Overlaps(newFrom, newUntil, existingFrom, existingUntil) {
			return apperrors.Conflict(fmt.Sprintf(
				"Offer is already reserved for an overlapping date range (%s - %s)",
				entry.DateFrom,
				entry.DateUntil,
			))
		}
	}
	return nil
}

// release deletes the reservation and its ledger entry in one transaction, so
// the two records can never drift apart. Either record already gone is
// tolerated so the sweeper and the lazy path cannot trip over each other.
func (s *reservationService) release(ctx context.Context, reservation *model.Reservation) error {
	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ledger.DeleteByOfferAndRange(sessCtx, reservation.OfferID, reservation.DateFrom, reservation.DateUntil); err != nil {
			if !errors.Is(err, reservationserrors.ErrLedgerEntryNotFound) {
				return apperrors.Internal("Failed to release availability", err)
			}
		}
		if err := s.repo.Delete(sessCtx, reservation.ID); err != nil {
			if !errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.Internal("Failed to delete reservation", err)
			}
		}
		return nil
	})
}

// reclaim releases an expired reservation under the offer lock.
func (s *reservationService) reclaim(ctx context.Context, reservation *model.Reservation) error {
	lockID, err := s.acquireOfferLock(ctx, reservation.OfferID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseOfferLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release offer lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	if err := s.release(ctx, reservation); err != nil {
		return err
	}

	reservation.Status = model.ReservationCancelled
	reservation.Payment.Status = model.PaymentFailed
	s.publish(ctx, model.EventReservationReclaimed, reservation)

	s.cfg.Log.Info("Expired reservation reclaimed",
		"id", reservation.ID,
		"offer_id", reservation.OfferID,
		"expired_at", reservation.ExpiresAt,
	)
	return nil
}

// acquireOfferLock creates an advisory lock to serialize booking mutations per offer
// Returns the lock ID if successful, or conflict error if lock already exists
func (s *reservationService) acquireOfferLock(ctx context.Context, offerID string) (string, error) {
	lockID := fmt.Sprintf("offer_lock_%s", offerID)

	lock := &model.OfferLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.OfferLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This offer is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire offer lock", err)
	}

	return lockID, nil
}

// releaseOfferLock removes the advisory lock
func (s *reservationService) releaseOfferLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *reservationService) publish(ctx context.Context, eventType string, reservation *model.Reservation) {
	if s.events == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(reservation.OfferID).
		WithEventType(eventType).
		WithSource("reservations").
		WithValue(model.ReservationEvent{
			ReservationID: reservation.ID,
			OfferID:       reservation.OfferID,
			GuestID:       reservation.GuestID,
			DateFrom:      reservation.DateFrom,
			DateUntil:     reservation.DateUntil,
			Status:        reservation.Status,
			PaymentStatus: reservation.Payment.Status,
			OccurredAt:    s.now().UTC(),
		}).
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}
