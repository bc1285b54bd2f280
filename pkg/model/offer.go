package model

import "time"

// Offer is a bookable inventory unit: one room category at one hotel.
type Offer struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HotelName     string    `json:"hotel_name" bson:"hotel_name" validate:"required,min=2,max=100"`
	RoomLabel     string    `json:"room_label" bson:"room_label" validate:"required,min=2,max=100"`
	City          string    `json:"city" bson:"city" validate:"required,min=2,max=100"`
	PricePerNight int       `json:"price_per_night" bson:"price_per_night" validate:"required,min=1"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type OfferUpdate struct {
	HotelName     string `json:"hotel_name,omitempty" validate:"omitempty,min=2,max=100"`
	RoomLabel     string `json:"room_label,omitempty" validate:"omitempty,min=2,max=100"`
	City          string `json:"city,omitempty" validate:"omitempty,min=2,max=100"`
	PricePerNight *int   `json:"price_per_night,omitempty" validate:"omitempty,min=1"`
}
