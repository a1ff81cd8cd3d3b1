package models

import (
	"bts/src/types"

	"github.com/google/uuid"
)

// NotificationLog is the append-only audit trail of gateway notifications.
// Notifications that cannot be matched to any booking land here with
// Processed=false.
type NotificationLog struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	RequestID string      `gorm:"index" json:"request_id,omitempty"`
	Reference string      `json:"reference,omitempty"`
	Status    string      `json:"status,omitempty"`
	Payload   types.JSONB `gorm:"type:jsonb" json:"payload,omitempty"`
	PaymentID *uuid.UUID  `gorm:"type:uuid" json:"payment_id,omitempty"`
	BookingID *uint       `json:"booking_id,omitempty"`
	Processed bool        `json:"processed"`

	types.Timestamps
}
