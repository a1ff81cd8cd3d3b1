package common

import (
	"bts/src/db"
	"bts/src/models"
	"bts/src/types"
	"errors"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MapGatewayStatus is the single source of truth for translating a
// gateway status code into the Payment/Booking state pair. It is shared
// by the webhook and the status-polling path. The returned bool reports
// whether the code is terminal; non-terminal codes leave the booking
// status untouched.
func MapGatewayStatus(code string) (types.PaymentStatus, types.BookingStatus, bool) {
	switch code {
	case types.GATEWAY_APPROVED, types.GATEWAY_APPROVED_PARTIAL:
		return types.PAYMENT_APPROVED, types.BOOKING_CONFIRMED, true
	case types.GATEWAY_REJECTED, types.GATEWAY_REJECTED_PARTIAL:
		return types.PAYMENT_REJECTED, types.BOOKING_CANCELED, true
	default:
		return types.PAYMENT_PENDING, types.BOOKING_PENDING, false
	}
}

type ReconcileInput struct {
	RequestID string
	Reference string
	Status    types.GatewayStatus
	Payload   types.JSONB
}

type ReconcileResult struct {
	PaymentID *uuid.UUID
	BookingID *uint
	Resolved  bool
}

// ReconcileNotification resolves the Payment/Booking pair for a gateway
// notification and applies the state mapping. Lookup order: Payment by
// external request id first, then Booking by reference code. When only
// the Booking exists a pending Payment is synthesized for it; when the
// Payment carries a different external id it is healed to match.
// Notifications matching nothing are recorded unresolved and dropped.
//
// Persistence failures are logged and handling continues best-effort;
// the Payment and Booking writes are two independent statements, so a
// failed Booking write after a Payment write leaves the pair transiently
// inconsistent until the next notification.
func ReconcileNotification(in *ReconcileInput) (*ReconcileResult, error) {
	dbi := db.GetDb()
	result := &ReconcileResult{}

	var payment models.Payment
	var booking models.Booking
	found := false
	bookingLoaded := false

	err := dbi.
		Model(&models.Payment{}).
		Where("request_id = ?", in.RequestID).
		First(&payment).
		Error
	if err == nil {
		found = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Error looking up Payment for request [%s]: %s\n", in.RequestID, err.Error())
	}

	if !found && in.Reference != "" {
		err := dbi.
			Where(&models.Booking{Reference: in.Reference}).
			First(&booking).
			Error
		switch {
		case err == nil:
			bookingLoaded = true
			err := dbi.
				Model(&models.Payment{}).
				Where("booking_id = ?", booking.ID).
				First(&payment).
				Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if p, err := synthesizePayment(dbi, &booking, in.RequestID); err == nil {
					payment = *p
					found = true
				}
			} else if err != nil {
				log.Printf("Error looking up Payment for Booking [%s]: %s\n", in.Reference, err.Error())
			} else {
				found = true
				if payment.RequestID == nil || *payment.RequestID != in.RequestID {
					// heal bookings paid before the external id was persisted
					requestId := in.RequestID
					if err := dbi.
						Model(&models.Payment{}).
						Where("id = ?", payment.ID).
						Update("request_id", requestId).
						Error; err != nil {
						log.Printf("Error updating external id on Payment [%s]: %s\n", payment.ID, err.Error())
					} else {
						payment.RequestID = &requestId
					}
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			log.Printf("Error looking up Booking [%s]: %s\n", in.Reference, err.Error())
		}
	}

	if !found {
		entry := models.NotificationLog{
			RequestID: in.RequestID,
			Reference: in.Reference,
			Status:    in.Status.Status,
			Payload:   in.Payload,
			Processed: false,
		}
		if err := dbi.Create(&entry).Error; err != nil {
			log.Printf("Error recording unresolved notification [%s]: %s\n", in.RequestID, err.Error())
		}
		log.Printf("Notification [%s] matches no Payment or Booking. Recorded as unresolved\n", in.RequestID)
		return result, nil
	}

	result.PaymentID = &payment.ID
	result.BookingID = &payment.BookingID
	result.Resolved = true

	paymentStatus, bookingStatus, terminal := MapGatewayStatus(in.Status.Status)

	if payment.Status != paymentStatus {
		if err := dbi.
			Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Updates(map[string]any{
				"status":           paymentStatus,
				"gateway_response": in.Payload,
			}).
			Error; err != nil {
			log.Printf("Error updating Payment [%s]: %s\n", payment.ID, err.Error())
		}
	}

	if !bookingLoaded {
		if err := dbi.
			Where(&models.Booking{ID: payment.BookingID}).
			First(&booking).
			Error; err != nil {
			log.Printf("Error retrieving Booking [%d] for Payment [%s]: %s\n", payment.BookingID, payment.ID, err.Error())
		} else {
			bookingLoaded = true
		}
	}
	if bookingLoaded {
		target := booking.Status
		if terminal {
			target = bookingStatus
		} else if booking.Status == "" {
			target = types.BOOKING_PENDING
		}
		if target != booking.Status {
			if err := dbi.
				Model(&models.Booking{}).
				Where("id = ?", booking.ID).
				Update("status", target).
				Error; err != nil {
				log.Printf("Error updating Booking [%d]: %s\n", booking.ID, err.Error())
			} else if target == types.BOOKING_CONFIRMED && os.Getenv("API_ENV") != string(types.Test) {
				go SendBookingConfirmedMail(booking.ID)
			}
		}
	}

	entry := models.NotificationLog{
		RequestID: in.RequestID,
		Reference: in.Reference,
		Status:    in.Status.Status,
		Payload:   in.Payload,
		PaymentID: &payment.ID,
		BookingID: &payment.BookingID,
		Processed: true,
	}
	if err := dbi.Create(&entry).Error; err != nil {
		log.Printf("Error appending notification audit entry [%s]: %s\n", in.RequestID, err.Error())
	}
	return result, nil
}

// synthesizePayment creates the missing pending Payment for a booking
// the gateway knows about. Amount is the sum of the booking's seat
// lines, currency comes from the trip.
func synthesizePayment(dbi *gorm.DB, booking *models.Booking, requestID string) (*models.Payment, error) {
	var total float64
	if err := dbi.
		Model(&models.BookingSeat{}).
		Where("booking_id = ?", booking.ID).
		Select("COALESCE(SUM(price),0)").
		Scan(&total).
		Error; err != nil {
		log.Printf("Error totaling seat lines for Booking [%d]: %s\n", booking.ID, err.Error())
		return nil, err
	}
	var trip models.Trip
	currency := ""
	if err := dbi.
		Where(&models.Trip{ID: booking.TripID}).
		First(&trip).
		Error; err != nil {
		log.Printf("Error retrieving Trip [%d] for Booking [%d]: %s\n", booking.TripID, booking.ID, err.Error())
	} else {
		currency = trip.Currency
	}
	payment := models.Payment{
		BookingID: booking.ID,
		RequestID: &requestID,
		Amount:    total,
		Currency:  currency,
		Status:    types.PAYMENT_PENDING,
	}
	if err := dbi.Create(&payment).Error; err != nil {
		log.Printf("Error creating Payment for Booking [%d]: %s\n", booking.ID, err.Error())
		return nil, err
	}
	return &payment, nil
}
