package common

import (
	"bts/src/db"
	"bts/src/lib"
	"bts/src/models"
	"fmt"
	"log"
	"os"
)

// SendBookingConfirmedMail emails the e-ticket notice for a booking
// that just got confirmed. Failures are logged only.
func SendBookingConfirmedMail(bookingID uint) {
	dbi := db.GetDb()
	var booking models.Booking
	if err := dbi.
		Where(&models.Booking{ID: bookingID}).
		Preload("User").
		Preload("Trip").
		Preload("Trip.Route").
		First(&booking).
		Error; err != nil {
		log.Printf("Error retrieving Booking [%d] for confirmation mail: %s\n", bookingID, err.Error())
		return
	}
	if booking.User == nil || booking.User.Email == "" {
		log.Printf("Booking [%d] has no user email. Skipping confirmation mail\n", bookingID)
		return
	}
	departure := ""
	if booking.Trip.DepartureAt != nil {
		departure = booking.Trip.DepartureAt.Format("2006-01-02 15:04")
	}
	body := fmt.Sprintf(
		"Your booking %s (%s to %s, departing %s) is confirmed. Open the app to download your e-ticket.",
		booking.Reference,
		booking.Trip.Route.Origin,
		booking.Trip.Route.Destination,
		departure,
	)
	input := &lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: "Bus Ticketing",
		To:       []string{booking.User.Email},
		Subject:  fmt.Sprintf("Booking %s confirmed", booking.Reference),
		Body:     body,
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("Error sending confirmation mail for Booking [%d]: %s\n", bookingID, err.Error())
	}
}
