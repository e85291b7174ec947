package enrollmentValidator

import (
	"strconv"
	"strings"

	enrollmentController "lms/controllers/enrollment"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// Enroll validates the enrollment body
func Enroll() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(enrollmentController.EnrollRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CourseID == 0 {
			errors["courseId"] = "Course ID is required!"
		}

		if !models.Contains(models.PaymentMethods, reqData.PaymentMethod) {
			errors["paymentMethod"] = "Payment method must be one of: " + strings.Join(models.PaymentMethods, ", ") + "!"
		}

		reqData.TransactionID = strings.TrimSpace(reqData.TransactionID)
		if reqData.TransactionID == "" {
			errors["transactionId"] = "Transaction ID is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedEnrollment", reqData)
		return c.Next()
	}
}

// EnrollmentID validates the :id route parameter
func EnrollmentID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("id"))
		if idStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Enrollment ID is required!", nil)
		}

		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}

		c.Locals("enrollmentID", id)
		return c.Next()
	}
}

// MyCourses validates the optional status filter
func MyCourses() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := strings.TrimSpace(c.Query("status"))
		if status != "" && status != "all" && !models.Contains(models.EnrollmentStatuses, status) {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"status": "Status must be all, active, completed or cancelled!",
			})
		}

		c.Locals("validatedStatus", status)
		return c.Next()
	}
}

// UpdateProgress validates the :id parameter and the lecture-completion body
func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseEnrollmentID(c)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}
		c.Locals("enrollmentID", id)

		reqData := new(enrollmentController.ProgressRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.LectureID == 0 {
			errors["lectureId"] = "Lecture ID is required!"
		}

		if reqData.TimeSpent != nil && *reqData.TimeSpent < 0 {
			errors["timeSpent"] = "Time spent cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgress", reqData)
		return c.Next()
	}
}

// AddReview validates the :id parameter and the review body
func AddReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseEnrollmentID(c)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}
		c.Locals("enrollmentID", id)

		reqData := new(enrollmentController.ReviewRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Rating < models.RatingMin || reqData.Rating > models.RatingMax {
			errors["rating"] = "Rating must be between 1 and 5!"
		}

		if len(reqData.Review) > models.ReviewMaxLen {
			errors["review"] = "Review cannot exceed 1000 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

// RequestRefund validates the :id parameter and the refund reason
func RequestRefund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseEnrollmentID(c)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}
		c.Locals("enrollmentID", id)

		reqData := new(enrollmentController.RefundRequestBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Reason = strings.TrimSpace(reqData.Reason)
		if len(reqData.Reason) < models.RefundReasonMinLen || len(reqData.Reason) > models.RefundReasonMaxLen {
			errors["reason"] = "Reason must be between 10 and 500 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRefundRequest", reqData)
		return c.Next()
	}
}

// ProcessRefund validates the :id parameter and the admin decision body
func ProcessRefund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseEnrollmentID(c)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}
		c.Locals("enrollmentID", id)

		reqData := new(enrollmentController.RefundDecisionBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if !models.Contains(models.RefundDecisions, reqData.RefundStatus) {
			errors["refundStatus"] = "Refund status must be approved or rejected!"
		}

		if reqData.RefundAmount != nil && *reqData.RefundAmount < 0 {
			errors["refundAmount"] = "Refund amount cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRefundDecision", reqData)
		return c.Next()
	}
}

// AdminList validates the admin listing query, applying defaults
func AdminList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := &enrollmentController.AdminListQuery{Page: 1, Limit: 10}

		errors := make(map[string]string)

		if pageStr := c.Query("page"); pageStr != "" {
			page, err := strconv.Atoi(pageStr)
			if err != nil || page < 1 {
				errors["page"] = "Page must be greater than 0!"
			} else {
				reqData.Page = page
			}
		}

		if limitStr := c.Query("limit"); limitStr != "" {
			limit, err := strconv.Atoi(limitStr)
			if err != nil || limit < 1 || limit > 100 {
				errors["limit"] = "Limit must be between 1 and 100!"
			} else {
				reqData.Limit = limit
			}
		}

		if status := c.Query("status"); status != "" {
			if !models.Contains(models.EnrollmentStatuses, status) {
				errors["status"] = "Status must be active, completed or cancelled!"
			} else {
				reqData.Status = status
			}
		}

		if courseIDStr := c.Query("courseId"); courseIDStr != "" {
			courseID, err := strconv.Atoi(courseIDStr)
			if err != nil || courseID < 1 {
				errors["courseId"] = "Invalid Course ID!"
			} else {
				reqData.CourseID = uint(courseID)
			}
		}

		if studentIDStr := c.Query("studentId"); studentIDStr != "" {
			studentID, err := strconv.Atoi(studentIDStr)
			if err != nil || studentID < 1 {
				errors["studentId"] = "Invalid Student ID!"
			} else {
				reqData.StudentID = uint(studentID)
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAdminList", reqData)
		return c.Next()
	}
}

func parseEnrollmentID(c *fiber.Ctx) (int, bool) {
	idStr := strings.TrimSpace(c.Params("id"))
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
