package boot

import (
	"bts/src/common"
	"bts/src/db"
	"bts/src/lib"
	"bts/src/models"
	"bts/src/types"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Route{},
		&models.Trip{},
		&models.Booking{},
		&models.BookingSeat{},
		&models.Payment{},
		&models.NotificationLog{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitJobs registers the recurring maintenance jobs: the guard sweep
// and the expiry of pending bookings whose trip already departed.
func InitJobs(guard *common.NotificationGuard) {
	if _, err := lib.CreateCronJob(guard.Sweep, common.SweepInterval); err != nil {
		log.Printf("Error scheduling guard sweep: %s\n", err.Error())
	}
	if _, err := lib.CreateCronJob(ExpireStaleBookings, 15*time.Minute); err != nil {
		log.Printf("Error scheduling booking expiry: %s\n", err.Error())
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
}

// ExpireStaleBookings cancels pending bookings for trips that already
// departed. Their payments stay pending; a late notification for a
// canceled booking still reconciles through the normal path.
func ExpireStaleBookings() {
	dbi := db.GetDb()
	now := time.Now()
	res := dbi.
		Model(&models.Booking{}).
		Where("status = ?", types.BOOKING_PENDING).
		Where("trip_id IN (?)", dbi.
			Model(&models.Trip{}).
			Select("id").
			Where("departure_at < ?", now)).
		Update("status", types.BOOKING_CANCELED)
	if res.Error != nil {
		log.Printf("Error expiring stale bookings: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Expired %d stale bookings\n", res.RowsAffected)
	}
}
