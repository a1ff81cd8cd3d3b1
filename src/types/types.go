package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Environment string

const (
	Production Environment = "production"
	Test       Environment = "test"
	Local      Environment = "local"
)

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_APPROVED PaymentStatus = "approved"
	PAYMENT_REJECTED PaymentStatus = "rejected"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "canceled"
)

type TripStatus string

const (
	TRIP_SCHEDULED TripStatus = "scheduled"
	TRIP_DEPARTED  TripStatus = "departed"
	TRIP_CANCELED  TripStatus = "canceled"
)

// Gateway-side status codes as they appear on notifications and
// status-query responses.
const (
	GATEWAY_APPROVED           = "APPROVED"
	GATEWAY_APPROVED_PARTIAL   = "APPROVED_PARTIAL"
	GATEWAY_REJECTED           = "REJECTED"
	GATEWAY_REJECTED_PARTIAL   = "REJECTED_PARTIAL"
	GATEWAY_PENDING            = "PENDING"
	GATEWAY_PENDING_VALIDATION = "PENDING_VALIDATION"
)

// GatewayStatus is the canonical status triple every gateway payload
// variant is normalized into.
type GatewayStatus struct {
	Status  string `json:"status"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message,omitempty"`
}

// GatewayNotification is the push payload posted by the payment gateway.
type GatewayNotification struct {
	RequestID string         `json:"requestId"`
	Reference string         `json:"reference,omitempty"`
	Signature string         `json:"signature,omitempty"`
	Status    *GatewayStatus `json:"status"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateRouteRequestBody struct {
	Origin          string `json:"origin" binding:"required"`
	Destination     string `json:"destination" binding:"required"`
	DurationMinutes uint   `json:"duration_minutes,omitempty"`
}

type CreateTripRequestBody struct {
	RouteID     uint    `json:"route" binding:"required"`
	DepartureAt string  `json:"departure_at" binding:"required,traveldate" time_format:"2006-01-02 15:04:05 -07:00"`
	BusPlate    string  `json:"bus_plate,omitempty"`
	SeatCount   uint    `json:"seats" binding:"required"`
	SeatPrice   float64 `json:"seat_price" binding:"required"`
	Currency    string  `json:"currency" binding:"required"`
}

type SeatSelection struct {
	SeatNumber        uint   `json:"seat" binding:"required"`
	PassengerName     string `json:"passenger_name" binding:"required"`
	PassengerDocument string `json:"passenger_document,omitempty"`
}

type CreateBookingRequestBody struct {
	TripID uint            `json:"trip" binding:"required"`
	Seats  []SeatSelection `json:"seats" binding:"required,min=1,dive"`
}

type TripSearchQueryFilters struct {
	Origin      string `form:"origin" binding:"required"`
	Destination string `form:"destination" binding:"required"`
	Date        string `form:"date,omitempty" binding:"omitempty"`
}

type VerifyTicketRequestBody struct {
	Code string `json:"code" binding:"required"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type APIResponseTrip struct {
	ID          uint       `json:"id"`
	RouteID     uint       `json:"route_id,omitempty"`
	Origin      string     `json:"origin,omitempty"`
	Destination string     `json:"destination,omitempty"`
	DepartureAt *time.Time `json:"departure_at,omitempty"`
	SeatPrice   float64    `json:"seat_price,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	SeatsFree   uint       `json:"seats_free"`
}

type APIResponseBookingStatus struct {
	BookingID     uint          `json:"booking_id"`
	Reference     string        `json:"reference"`
	BookingStatus BookingStatus `json:"booking_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}
