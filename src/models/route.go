package models

import "bts/src/types"

type Route struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Code            string `gorm:"uniqueIndex" json:"code,omitempty"`
	Origin          string `json:"origin,omitempty"`
	Destination     string `json:"destination,omitempty"`
	DurationMinutes uint   `json:"duration_minutes,omitempty"`
	Active          bool   `gorm:"default:true" json:"active"`

	Trips []*Trip `json:"trips,omitempty"`

	types.Timestamps
}
