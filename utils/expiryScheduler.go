package utils

import (
	"log"
	"time"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// InitializeExpiryScheduler sets up the daily access-expiry reminder job
func InitializeExpiryScheduler() {
	log.Println("[EXPIRY-SCHEDULER] Initializing access expiry scheduler...")

	c := cron.New()

	// Run daily at 9 AM to warn students whose access ends within 3 days
	c.AddFunc("0 9 * * *", func() {
		log.Println("[EXPIRY-SCHEDULER] Running daily access expiry check...")
		ProcessExpiringEnrollments()
	})

	c.Start()
	log.Println("[EXPIRY-SCHEDULER] Access expiry scheduler started - runs daily at 9 AM")
}

// ProcessExpiringEnrollments sends reminder emails for non-lifetime enrollments
// expiring within 3 days. It only writes the reminder flag, never the
// enrollment status: expiry stays a computed property.
func ProcessExpiringEnrollments() {
	db := database.Database.Db
	now := time.Now()
	threeDaysFromNow := now.AddDate(0, 0, 3)

	var expiring []courseModels.Enrollment
	if err := db.
		Where("status = ? AND is_lifetime = ? AND expiry_reminder_sent = ? AND is_deleted = ?",
			models.EnrollmentActive, false, false, false).
		Where("access_expires_at BETWEEN ? AND ?", now, threeDaysFromNow).
		Find(&expiring).Error; err != nil {
		log.Printf("[EXPIRY-SCHEDULER] Error fetching expiring enrollments: %v", err)
		return
	}

	log.Printf("[EXPIRY-SCHEDULER] Found %d enrollments expiring soon", len(expiring))

	for _, enrollment := range expiring {
		var user models.User
		if err := db.Where("id = ?", enrollment.UserID).First(&user).Error; err != nil {
			log.Printf("[EXPIRY-SCHEDULER] Error fetching user %d: %v", enrollment.UserID, err)
			continue
		}

		var course courseModels.Course
		if err := db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
			log.Printf("[EXPIRY-SCHEDULER] Error fetching course %d: %v", enrollment.CourseID, err)
			continue
		}

		SendAccessExpiryReminder(user.Email, user.Name, course.Title, enrollment.AccessExpiresAt)

		if err := db.Model(&courseModels.Enrollment{}).
			Where("id = ?", enrollment.ID).
			UpdateColumn("expiry_reminder_sent", true).Error; err != nil {
			log.Printf("[EXPIRY-SCHEDULER] Error marking reminder sent for enrollment %d: %v", enrollment.ID, err)
		}
	}
}
