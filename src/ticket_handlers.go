package main

import (
	"bts/src/lib"
	"bts/src/types"
	"bts/src/utils"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings/:id/ticket", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, ok := loadOwnBooking(ctx, params.ID)
			if !ok {
				return
			}
			if booking.Status != types.BOOKING_CONFIRMED {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "booking is not confirmed"})
				return
			}

			filename := fmt.Sprintf("eticket_%s", booking.Reference)
			cached := ""
			if rd := lib.GetRedisClient(); rd != nil {
				cached = rd.Get(context.Background(), filename).Val()
			}
			if cached != "" {
				if _, err := os.Stat(cached); err == nil {
					ctx.FileAttachment(cached, "eticket.jpeg")
					return
				}
			}

			seats := make([]uint, 0, len(booking.Seats))
			for _, seat := range booking.Seats {
				seats = append(seats, seat.SeatNumber)
			}
			rawData := map[string]any{
				"bookingId": booking.ID,
				"reference": booking.Reference,
				"seats":     seats,
			}
			rawBytes, _ := json.Marshal(rawData)
			rawText := string(rawBytes)

			keyEnv := os.Getenv("API_QRC_SECRET")
			key, err := hex.DecodeString(keyEnv)
			if err != nil {
				log.Printf("Could not read key from string: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			encryptedMessage, err := utils.EncryptMessage(key, rawText)
			if err != nil {
				log.Printf("Error encrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			qrc, err := qrcode.New(encryptedMessage)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			filepath := path.Join(os.TempDir(), fmt.Sprintf("%s.jpeg", filename))
			if err = qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if rd := lib.GetRedisClient(); rd != nil {
				rd.SetEx(context.Background(), filename, filepath, 2*time.Hour)
			}
			ctx.FileAttachment(filepath, "eticket.jpeg")
		})
	return g
}
