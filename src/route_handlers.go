package main

import (
	"bts/src/config"
	"bts/src/db"
	"bts/src/lib"
	"bts/src/models"
	"bts/src/types"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const tripSearchCacheTTL = 60 * time.Second

func publicHandlers(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/routes", func(ctx *gin.Context) {
			dbi := db.GetDb()
			var routes []models.Route
			if err := dbi.
				Model(&models.Route{}).
				Where("active = ?", true).
				Find(&routes).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": routes, "count": len(routes)})
		}).
		GET("/trips/search", func(ctx *gin.Context) {
			var filters types.TripSearchQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			cacheKey := fmt.Sprintf("trips:%s:%s:%s", filters.Origin, filters.Destination, filters.Date)
			if rd := lib.GetRedisClient(); rd != nil {
				if cached, err := rd.Get(context.Background(), cacheKey).Result(); err == nil {
					var results []types.APIResponseTrip
					if err := json.Unmarshal([]byte(cached), &results); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": results, "count": len(results)})
						return
					}
				}
			}

			dbi := db.GetDb()
			var trips []models.Trip
			q := dbi.
				Model(&models.Trip{}).
				Joins("Route").
				Where(`"Route"."origin" = ? AND "Route"."destination" = ?`, filters.Origin, filters.Destination).
				Where("trips.status = ?", types.TRIP_SCHEDULED).
				Where("trips.departure_at > ?", time.Now())
			if filters.Date != "" {
				day, err := time.Parse(config.DATE_PARSE_FORMAT, filters.Date)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
					return
				}
				q = q.Where("trips.departure_at >= ? AND trips.departure_at < ?", day, day.AddDate(0, 0, 1))
			}
			if err := q.Find(&trips).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}

			results := make([]types.APIResponseTrip, 0, len(trips))
			for _, trip := range trips {
				var booked int64
				if err := dbi.
					Model(&models.BookingSeat{}).
					Joins("JOIN bookings ON bookings.id = booking_seats.booking_id").
					Where("bookings.trip_id = ?", trip.ID).
					Where("bookings.status <> ?", types.BOOKING_CANCELED).
					Count(&booked).
					Error; err != nil {
					log.Printf("Error counting booked seats for Trip [%d]: %s\n", trip.ID, err.Error())
				}
				free := uint(0)
				if uint(booked) < trip.SeatCount {
					free = trip.SeatCount - uint(booked)
				}
				results = append(results, types.APIResponseTrip{
					ID:          trip.ID,
					RouteID:     trip.RouteID,
					Origin:      trip.Route.Origin,
					Destination: trip.Route.Destination,
					DepartureAt: trip.DepartureAt,
					SeatPrice:   trip.SeatPrice,
					Currency:    trip.Currency,
					SeatsFree:   free,
				})
			}

			if rd := lib.GetRedisClient(); rd != nil {
				if bResults, err := json.Marshal(&results); err == nil {
					rd.SetEx(context.Background(), cacheKey, string(bResults), tripSearchCacheTTL)
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": results, "count": len(results)})
		})
	return apiv1
}

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/routes", func(ctx *gin.Context) {
			var body types.CreateRouteRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			route := models.Route{
				Code:            slug.Make(fmt.Sprintf("%s %s", body.Origin, body.Destination)),
				Origin:          body.Origin,
				Destination:     body.Destination,
				DurationMinutes: body.DurationMinutes,
				Active:          true,
			}
			dbi := db.GetDb()
			if err := dbi.Create(&route).Error; err != nil {
				log.Printf("Error creating Route [%s]: %s\n", route.Code, err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": route})
		}).
		POST("/trips", func(ctx *gin.Context) {
			var body types.CreateTripRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			departureAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.DepartureAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dbi := db.GetDb()
			var trip models.Trip
			if err := dbi.Transaction(func(tx *gorm.DB) error {
				var route models.Route
				if err := tx.Where(&models.Route{ID: body.RouteID}).First(&route).Error; err != nil {
					return err
				}
				trip = models.Trip{
					RouteID:     route.ID,
					DepartureAt: &departureAt,
					BusPlate:    body.BusPlate,
					SeatCount:   body.SeatCount,
					SeatPrice:   body.SeatPrice,
					Currency:    body.Currency,
					Status:      types.TRIP_SCHEDULED,
				}
				return tx.Create(&trip).Error
			}); err != nil {
				log.Printf("Error creating Trip: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": trip})
		}).
		GET("/notifications", func(ctx *gin.Context) {
			dbi := db.GetDb()
			var entries []models.NotificationLog
			q := dbi.Model(&models.NotificationLog{}).Order("created_at DESC").Limit(100)
			if ctx.Query("unresolved") == "true" {
				q = q.Where("processed = ?", false)
			}
			if err := q.Find(&entries).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries)})
		})
	return g
}
