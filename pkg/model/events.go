package model

import "time"

// Reservation lifecycle event types published to the event stream.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationReclaimed = "reservation.reclaimed"

	ReservationEventsTopic    = "reservation-events"
	ReservationEventsDLQTopic = "reservation-events-dlq"
)

// ReservationEvent is the payload for every reservation lifecycle event.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	OfferID       string    `json:"offer_id"`
	GuestID       string    `json:"guest_id"`
	DateFrom      string    `json:"date_from"`
	DateUntil     string    `json:"date_until"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}
