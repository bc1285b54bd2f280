package model

import "time"

// Availability is one committed date range for one offer: the durable witness
// that the offer is taken on those days, kept in lockstep with the reservation
// that produced it. Matched for deletion by offer id plus the exact date pair.
type Availability struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OfferID   string    `json:"offer_id" bson:"offer_id" validate:"required,mongodb"`
	DateFrom  string    `json:"date_from" bson:"date_from" validate:"required,caldate"`
	DateUntil string    `json:"date_until" bson:"date_until" validate:"required,caldate"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
