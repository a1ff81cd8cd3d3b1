package main

import (
	"bts/src/common"
	"bts/src/db"
	"bts/src/lib"
	"bts/src/models"
	"bts/src/types"
	"bts/src/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			seatNumbers := make([]uint, 0, len(body.Seats))
			for _, seat := range body.Seats {
				seatNumbers = append(seatNumbers, seat.SeatNumber)
			}

			dbi := db.GetDb()
			var booking models.Booking
			err := dbi.Transaction(func(tx *gorm.DB) error {
				var trip models.Trip
				// concurrent bookings for the same trip serialize on
				// this row lock, so the seat count below stays exact
				if err := tx.
					Clauses(clause.Locking{Strength: "UPDATE"}).
					Where(&models.Trip{ID: body.TripID, Status: types.TRIP_SCHEDULED}).
					First(&trip).
					Error; err != nil {
					return errors.New("trip is not open for booking")
				}
				if trip.DepartureAt == nil || time.Now().After(*trip.DepartureAt) {
					return errors.New("trip already departed")
				}
				for _, n := range seatNumbers {
					if n == 0 || n > trip.SeatCount {
						return fmt.Errorf("seat %d does not exist on this trip", n)
					}
				}

				var taken int64
				if err := tx.
					Model(&models.BookingSeat{}).
					Joins("JOIN bookings ON bookings.id = booking_seats.booking_id").
					Where("bookings.trip_id = ?", trip.ID).
					Where("bookings.status <> ?", types.BOOKING_CANCELED).
					Where("booking_seats.seat_number IN ?", seatNumbers).
					Count(&taken).
					Error; err != nil {
					return err
				}
				if taken > 0 {
					return errors.New("one or more selected seats are already taken")
				}

				booking = models.Booking{
					Reference: utils.NewBookingReference(),
					TripID:    trip.ID,
					UserID:    userId,
					Status:    types.BOOKING_PENDING,
					TripDate:  trip.DepartureAt,
				}
				if err := tx.Create(&booking).Error; err != nil {
					return err
				}
				for _, seat := range body.Seats {
					line := models.BookingSeat{
						BookingID:         booking.ID,
						SeatNumber:        seat.SeatNumber,
						PassengerName:     seat.PassengerName,
						PassengerDocument: seat.PassengerDocument,
						Price:             trip.SeatPrice,
					}
					if err := tx.Create(&line).Error; err != nil {
						return err
					}
				}
				payment := models.Payment{
					BookingID: booking.ID,
					Amount:    trip.SeatPrice * float64(len(body.Seats)),
					Currency:  trip.Currency,
					Status:    types.PAYMENT_PENDING,
				}
				return tx.Create(&payment).Error
			})
			if err != nil {
				log.Printf("Error creating Booking: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			dbi := db.GetDb()
			var bookings []models.Booking
			if err := dbi.
				Model(&models.Booking{}).
				Where(&models.Booking{UserID: userId}).
				Preload("Trip").
				Preload("Trip.Route").
				Find(&bookings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, ok := loadOwnBooking(ctx, params.ID)
			if !ok {
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, ok := loadOwnBooking(ctx, params.ID)
			if !ok {
				return
			}

			// When the gateway never pushed a notification, pull the
			// status ourselves and run it through the same reconciler.
			if booking.Payment != nil &&
				booking.Payment.Status == types.PAYMENT_PENDING &&
				booking.Payment.RequestID != nil {
				gw := lib.GetGatewayClient()
				raw, err := gw.QueryStatus(ctx.Request.Context(), *booking.Payment.RequestID)
				if err != nil {
					log.Printf("Error querying gateway for request [%s]: %s\n", *booking.Payment.RequestID, err.Error())
				} else {
					var payload types.JSONB
					json.Unmarshal(raw, &payload)
					status := common.NormalizeGatewayStatus(raw)
					if _, err := common.ReconcileNotification(&common.ReconcileInput{
						RequestID: *booking.Payment.RequestID,
						Reference: booking.Reference,
						Status:    status,
						Payload:   payload,
					}); err != nil {
						log.Printf("Error reconciling polled status for Booking [%d]: %s\n", booking.ID, err.Error())
					}
					booking, ok = loadOwnBooking(ctx, params.ID)
					if !ok {
						return
					}
				}
			}

			res := types.APIResponseBookingStatus{
				BookingID:     booking.ID,
				Reference:     booking.Reference,
				BookingStatus: booking.Status,
				PaymentStatus: types.PAYMENT_PENDING,
			}
			if booking.Payment != nil {
				res.PaymentStatus = booking.Payment.Status
			}
			ctx.JSON(http.StatusOK, gin.H{"data": res})
		}).
		POST("/bookings/:id/session", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, ok := loadOwnBooking(ctx, params.ID)
			if !ok {
				return
			}
			if booking.Payment == nil || booking.Payment.Status != types.PAYMENT_PENDING {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "booking has no pending payment"})
				return
			}

			gw := lib.GetGatewayClient()
			session, err := gw.CreateSession(ctx.Request.Context(), &lib.GatewaySessionRequest{
				Reference:   booking.Reference,
				Description: fmt.Sprintf("Bus booking %s", booking.Reference),
				Amount:      booking.Payment.Amount,
				Currency:    booking.Payment.Currency,
				ReturnURL:   ctx.Query("return_url"),
			})
			if err != nil {
				log.Printf("Error creating gateway session for Booking [%d]: %s\n", booking.ID, err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not create payment session"})
				return
			}

			dbi := db.GetDb()
			if err := dbi.
				Model(&models.Payment{}).
				Where("id = ?", booking.Payment.ID).
				Update("request_id", session.RequestID).
				Error; err != nil {
				log.Printf("Error storing external id on Payment [%s]: %s\n", booking.Payment.ID, err.Error())
			}
			if rd := lib.GetRedisClient(); rd != nil {
				rd.SetEx(context.Background(), fmt.Sprintf("gateway:session:%s", booking.Reference), session.ProcessURL, 30*time.Minute)
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": session})
		})
	return g
}

// loadOwnBooking fetches a booking with its seats and payment, allowing
// access to the owner and to admins. Writes the error response itself.
func loadOwnBooking(ctx *gin.Context, bookingId uint) (*models.Booking, bool) {
	userId := ctx.GetUint("id")
	role := ctx.GetString("role")
	dbi := db.GetDb()
	var booking models.Booking
	if err := dbi.
		Where(&models.Booking{ID: bookingId}).
		Preload("Seats").
		Preload("Payment").
		Preload("Trip").
		Preload("Trip.Route").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.Status(http.StatusNotFound)
			return nil, false
		}
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return nil, false
	}
	if booking.UserID != userId && role != "admin" {
		ctx.Status(http.StatusNotFound)
		return nil, false
	}
	return &booking, true
}
