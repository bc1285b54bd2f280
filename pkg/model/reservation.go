package model

import (
	"time"
)

const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"

	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Payment is owned outright by its Reservation; it has no independent lifecycle.
type Payment struct {
	Status string `json:"status" bson:"status" validate:"required,oneof=pending paid failed"`
}

type Reservation struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OfferID   string    `json:"offer_id" bson:"offer_id" validate:"required,mongodb"`
	GuestID   string    `json:"guest_id" bson:"guest_id" validate:"required,min=1,max=64"`
	DateFrom  string    `json:"date_from" bson:"date_from" validate:"required,caldate"`
	DateUntil string    `json:"date_until" bson:"date_until" validate:"required,caldate"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	Payment   Payment   `json:"payment" bson:"payment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at" validate:"omitempty"`
}

// Expired reports whether the holding window has elapsed for an unpaid pending
// reservation. A reservation whose expiry equals now is still live; only a
// strictly later clock reading expires it.
func (r *Reservation) Expired(now time.Time) bool {
	return r.Status == ReservationPending &&
		r.Payment.Status == PaymentPending &&
		now.After(r.ExpiresAt)
}

// ReservationRequest is the creation payload; the guest identity comes from the
// authenticated request, never from the body.
type ReservationRequest struct {
	OfferID   string `json:"offer_id" validate:"required,mongodb"`
	DateFrom  string `json:"date_from" validate:"required,caldate"`
	DateUntil string `json:"date_until" validate:"required,caldate"`
}
