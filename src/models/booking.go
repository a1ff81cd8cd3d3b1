package models

import (
	"bts/src/types"
	"time"
)

type Booking struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	Reference   string              `gorm:"uniqueIndex" json:"reference,omitempty"`
	TripID      uint                `json:"trip_id,omitempty"`
	UserID      uint                `json:"user_id,omitempty"`
	Status      types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	TripDate    *time.Time          `json:"trip_date,omitempty"`
	Validated   bool                `json:"validated"`
	ValidatedAt *time.Time          `json:"validated_at,omitempty"`

	Trip    Trip           `json:"trip,omitempty"`
	User    *User          `json:"user,omitempty"`
	Seats   []*BookingSeat `json:"seats,omitempty"`
	Payment *Payment       `json:"payment,omitempty"`

	types.Timestamps
}

type BookingSeat struct {
	ID                uint    `gorm:"primarykey" json:"id"`
	BookingID         uint    `json:"booking_id,omitempty"`
	SeatNumber        uint    `json:"seat_number,omitempty"`
	PassengerName     string  `json:"passenger_name,omitempty"`
	PassengerDocument string  `json:"passenger_document,omitempty"`
	Price             float64 `json:"price"`

	Booking Booking `json:"-"`

	types.Timestamps
}
