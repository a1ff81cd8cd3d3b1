package models

import (
	"bts/src/types"
	"time"
)

type Trip struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	RouteID     uint             `json:"route_id,omitempty"`
	DepartureAt *time.Time       `json:"departure_at,omitempty"`
	BusPlate    string           `json:"bus_plate,omitempty"`
	SeatCount   uint             `json:"seat_count,omitempty"`
	SeatPrice   float64          `json:"seat_price"`
	Currency    string           `json:"currency,omitempty"`
	Status      types.TripStatus `gorm:"default:'scheduled'" json:"status,omitempty"`

	Route    Route      `json:"route,omitempty"`
	Bookings []*Booking `json:"bookings,omitempty"`

	types.Timestamps
}
