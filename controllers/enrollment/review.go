package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReviewRequest is the validated review body
type ReviewRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// AddReview stores the student's one-time rating on the enrollment and folds
// it into the course's rating aggregate. Both writes commit in one
// transaction.
func AddReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)
	reqData, ok := c.Locals("validatedReview").(*ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have access to this enrollment!", nil)
	}

	now := time.Now()
	if err := enrollment.AddRating(reqData.Rating, reqData.Review, now); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Review already submitted!", nil)
	}

	txErr := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := enrollment.SaveWithVersion(tx); err != nil {
			return err
		}

		var course courseModels.Course
		if err := tx.Where("id = ? AND is_deleted = ?", enrollment.CourseID, false).First(&course).Error; err != nil {
			return err
		}
		course.AddRating(reqData.Rating)
		return tx.Model(&course).
			Select("rating_sum", "rating_count", "average_rating").
			Updates(&course).Error
	})
	if txErr != nil {
		if errors.Is(txErr, courseModels.ErrConcurrentUpdate) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment was modified concurrently, reload and try again!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit review!", nil)
	}

	enrollment.ComputeDerived(now)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review submitted successfully!", enrollment)
}
