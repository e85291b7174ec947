package controllers

import (
	"errors"
	"log"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnrollRequest is the validated enrollment body
type EnrollRequest struct {
	CourseID      uint   `json:"courseId"`
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
}

// EnrollInCourse creates an enrollment for the authenticated student. Payment
// is settled upstream; the supplied transaction id is recorded as completed.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedEnrollment").(*EnrollRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if !course.IsPublished() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not published!", nil)
	}

	var existing courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, course.ID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Already enrolled in this course!", nil)
	}

	// Optional upstream receipt lookup; transport errors never block enrollment
	receipt, rawReceipt, err := utils.FetchGatewayReceipt(reqData.TransactionID)
	if err != nil {
		log.Printf("Gateway receipt lookup failed for transaction %s: %v", reqData.TransactionID, err)
	}
	if receipt != nil && receipt.Status == models.PaymentFailed {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment was not settled by the gateway!", nil)
	}

	now := time.Now()
	enrollment := courseModels.Enrollment{
		UserID:          userID,
		CourseID:        course.ID,
		InstructorID:    course.InstructorID,
		Status:          models.EnrollmentActive,
		TotalLectures:   course.TotalLectures,
		PaymentAmount:   course.Price,
		PaymentCurrency: course.Currency,
		PaymentMethod:   reqData.PaymentMethod,
		TransactionID:   reqData.TransactionID,
		PaymentStatus:   models.PaymentCompleted,
		PaidAt:          &now,
		ReceiptNumber:   utils.NewReceiptNumber(),
		GatewayReceipt:  datatypes.JSON(rawReceipt),
		RefundStatus:    models.RefundNone,
		IsLifetime:      course.AccessDays == 0,
	}
	if course.AccessDays > 0 {
		expiry := now.AddDate(0, 0, course.AccessDays)
		enrollment.AccessExpiresAt = &expiry
	}

	// Enrollment row and course counter commit together or not at all
	txErr := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		return tx.Model(&courseModels.Course{}).
			Where("id = ?", course.ID).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count + 1")).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Already enrolled in this course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	utils.SendEnrollmentConfirmation(user.Email, user.Name, course.Title, enrollment.ReceiptNumber)

	enrollment.ComputeDerived(now)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

// GetMyCourses lists the authenticated student's enrollments, optionally
// filtered by status
func GetMyCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	status, _ := c.Locals("validatedStatus").(string)

	db := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false)
	if status != "" && status != "all" {
		db = db.Where("status = ?", status)
	}

	var enrollments []courseModels.Enrollment
	if err := db.Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	now := time.Now()
	for i := range enrollments {
		enrollments[i].ComputeDerived(now)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"total":       len(enrollments),
	})
}

// GetEnrollment returns one enrollment to its owner (or an admin)
func GetEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID && user.Role != models.RoleAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have access to this enrollment!", nil)
	}

	enrollment.ComputeDerived(time.Now())
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", enrollment)
}
