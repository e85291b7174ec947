package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// RefundRequestBody is the validated refund request
type RefundRequestBody struct {
	Reason string `json:"reason"`
}

// RefundDecisionBody is the validated admin refund decision
type RefundDecisionBody struct {
	RefundStatus string   `json:"refundStatus"`
	RefundAmount *float64 `json:"refundAmount"`
}

// RequestRefund opens the refund workflow for the owner's enrollment. A
// refund may be requested at most once for the life of the record.
func RequestRefund(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)
	reqData, ok := c.Locals("validatedRefundRequest").(*RefundRequestBody)
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
	if err := enrollment.RequestRefund(reqData.Reason, now); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Refund already requested!", nil)
	}

	if err := enrollment.SaveWithVersion(database.Database.Db); err != nil {
		if errors.Is(err, courseModels.ErrConcurrentUpdate) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment was modified concurrently, reload and try again!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to request refund!", nil)
	}

	enrollment.ComputeDerived(now)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Refund requested successfully!", enrollment)
}

// ProcessRefund records the admin decision on a refund request
func ProcessRefund(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(int)
	reqData, ok := c.Locals("validatedRefundDecision").(*RefundDecisionBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	now := time.Now()
	if err := enrollment.ProcessRefund(reqData.RefundStatus, reqData.RefundAmount, now); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid refund status!", nil)
	}

	if err := enrollment.SaveWithVersion(database.Database.Db); err != nil {
		if errors.Is(err, courseModels.ErrConcurrentUpdate) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment was modified concurrently, reload and try again!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process refund!", nil)
	}

	enrollment.ComputeDerived(now)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Refund processed successfully!", enrollment)
}
