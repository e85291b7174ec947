package controllers

import (
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// AdminListQuery is the validated admin listing query
type AdminListQuery struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Status    string `json:"status"`
	CourseID  uint   `json:"courseId"`
	StudentID uint   `json:"studentId"`
}

// AdminListEnrollments lists enrollments across all students with filters and
// 1-based pagination
func AdminListEnrollments(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAdminList").(*AdminListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
	}

	db := database.Database.Db.Model(&courseModels.Enrollment{}).Where("is_deleted = ?", false)
	if reqData.Status != "" {
		db = db.Where("status = ?", reqData.Status)
	}
	if reqData.CourseID > 0 {
		db = db.Where("course_id = ?", reqData.CourseID)
	}
	if reqData.StudentID > 0 {
		db = db.Where("user_id = ?", reqData.StudentID)
	}

	var total int64
	db.Count(&total)

	offset := (reqData.Page - 1) * reqData.Limit
	var enrollments []courseModels.Enrollment
	if err := db.Offset(offset).Limit(reqData.Limit).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	now := time.Now()
	for i := range enrollments {
		enrollments[i].ComputeDerived(now)
	}

	totalPages := int(total) / reqData.Limit
	if int(total)%reqData.Limit != 0 {
		totalPages++
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"pagination": fiber.Map{
			"currentPage":      reqData.Page,
			"totalPages":       totalPages,
			"totalEnrollments": total,
			"limit":            reqData.Limit,
		},
	})
}

// GetEnrollmentStats aggregates counts by status and completed-payment
// revenue over all enrollments
func GetEnrollmentStats(c *fiber.Ctx) error {
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var rows []statusCount
	if err := database.Database.Db.Model(&courseModels.Enrollment{}).
		Select("status, count(*) as count").
		Where("is_deleted = ?", false).
		Group("status").
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch statistics!", nil)
	}

	byStatus := map[string]int64{}
	var total int64
	for _, row := range rows {
		byStatus[row.Status] = row.Count
		total += row.Count
	}

	var revenue float64
	if err := database.Database.Db.Model(&courseModels.Enrollment{}).
		Select("coalesce(sum(payment_amount), 0)").
		Where("payment_status = ? AND is_deleted = ?", models.PaymentCompleted, false).
		Scan(&revenue).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch statistics!", nil)
	}

	var refunded float64
	database.Database.Db.Model(&courseModels.Enrollment{}).
		Select("coalesce(sum(refund_amount), 0)").
		Where("refund_status = ? AND is_deleted = ?", models.RefundApproved, false).
		Scan(&refunded)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Statistics fetched successfully!", fiber.Map{
		"total_enrollments": total,
		"by_status":         byStatus,
		"total_revenue":     revenue,
		"total_refunded":    refunded,
	})
}
