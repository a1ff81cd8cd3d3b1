package main

import (
	"bts/src/db"
	"bts/src/middlewares"
	"bts/src/models"
	"bts/src/types"
	"bts/src/utils"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func verificationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/verify", middlewares.RequireRole("checker", "admin"), func(ctx *gin.Context) {
			var body types.VerifyTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			keyEnv := os.Getenv("API_QRC_SECRET")
			key, err := hex.DecodeString(keyEnv)
			if err != nil {
				log.Printf("Could not read data from string: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			message, err := utils.DecryptMessage(key, body.Code)
			if err != nil {
				log.Printf("Error decrypting message: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var rawData map[string]any
			if err := json.Unmarshal([]byte(*message), &rawData); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "ticket payload is unreadable"})
				return
			}
			reference, _ := rawData["reference"].(string)
			if reference == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "ticket payload is unreadable"})
				return
			}

			dbi := db.GetDb()
			var booking models.Booking
			err = dbi.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.Booking{Reference: reference}).
					Preload("Seats").
					Preload("Trip").
					First(&booking).
					Error; err != nil {
					return errors.New("no booking matches this ticket")
				}
				if booking.Status != types.BOOKING_CONFIRMED {
					return errors.New("booking is not confirmed")
				}
				if booking.Validated {
					return errors.New("ticket was already used")
				}
				now := time.Now()
				res := tx.
					Model(&models.Booking{}).
					Where("id = ? AND validated = ?", booking.ID, false).
					Updates(map[string]any{
						"validated":    true,
						"validated_at": now,
					})
				if res.Error != nil {
					return res.Error
				}
				// a concurrent scan may have won between the read and
				// this write
				if res.RowsAffected == 0 {
					return errors.New("ticket was already used")
				}
				booking.Validated = true
				booking.ValidatedAt = &now
				return nil
			})
			if err != nil {
				log.Printf("Error on ticket verification [%s]: %s\n", reference, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"reference":    booking.Reference,
				"validated_at": booking.ValidatedAt,
				"seats":        booking.Seats,
			}})
		})
	return g
}
