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

// ProgressRequest is the validated lecture-completion body
type ProgressRequest struct {
	LectureID uint `json:"lectureId"`
	TimeSpent *int `json:"timeSpent"`
}

// UpdateProgress marks a lecture complete for the owner's enrollment and
// recomputes progress from the completion count against the course's lecture
// total. Re-marking the same lecture is a no-op for membership and does not
// merge time spent.
func UpdateProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)
	reqData, ok := c.Locals("validatedProgress").(*ProgressRequest)
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

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	timeSpent := 0
	if reqData.TimeSpent != nil {
		timeSpent = *reqData.TimeSpent
	}

	now := time.Now()
	txErr := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var existing courseModels.LectureCompletion
		err := tx.Where("enrollment_id = ? AND lecture_id = ? AND is_deleted = ?", enrollment.ID, reqData.LectureID, false).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			completion := courseModels.LectureCompletion{
				EnrollmentID: enrollment.ID,
				LectureID:    reqData.LectureID,
				TimeSpent:    timeSpent,
			}
			if err := tx.Create(&completion).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var completed int64
		if err := tx.Model(&courseModels.LectureCompletion{}).
			Where("enrollment_id = ? AND is_deleted = ?", enrollment.ID, false).
			Count(&completed).Error; err != nil {
			return err
		}

		enrollment.ApplyProgress(int(completed), course.TotalLectures, now)
		enrollment.LastAccessedAt = &now
		return enrollment.SaveWithVersion(tx)
	})
	if txErr != nil {
		if errors.Is(txErr, courseModels.ErrConcurrentUpdate) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment was modified concurrently, reload and try again!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	enrollment.ComputeDerived(now)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", enrollment)
}
