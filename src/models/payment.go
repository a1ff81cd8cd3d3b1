package models

import (
	"bts/src/types"

	"github.com/google/uuid"
)

type Payment struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	BookingID uint                `json:"booking_id,omitempty"`
	RequestID *string             `gorm:"index" json:"request_id,omitempty"`
	Amount    float64             `json:"amount"`
	Currency  string              `json:"currency,omitempty"`
	Status    types.PaymentStatus `gorm:"default:'pending'" json:"status,omitempty"`
	// GatewayResponse keeps the last payload seen for this payment verbatim.
	// Its shape varies by gateway response variant so it stays opaque.
	GatewayResponse types.JSONB `gorm:"type:jsonb" json:"-"`

	Booking Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
