package model

import "time"

// OfferLock is an advisory lock document serializing booking mutations per
// offer. Acquisition is a unique _id insert; a duplicate key means another
// request holds the offer. ExpiresAt bounds the damage of a crashed holder.
type OfferLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
