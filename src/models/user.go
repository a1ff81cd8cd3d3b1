package models

import "bts/src/types"

type User struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `gorm:"uniqueIndex" json:"email,omitempty"`
	Document string `json:"document,omitempty"`
	Role     string `gorm:"default:'user'" json:"role,omitempty"`

	Bookings []*Booking `json:"bookings,omitempty"`

	types.Timestamps
}
