package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// IssueCertificate issues the completion certificate for the owner's
// enrollment. Requires full progress and fails once a certificate exists;
// both violated preconditions share one message.
func IssueCertificate(c *fiber.Ctx) error {
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

	if enrollment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have access to this enrollment!", nil)
	}

	now := time.Now()
	certificateNumber := utils.CertificateNumber(enrollment.UserID, enrollment.CourseID, now)
	downloadURL := utils.CertificateDownloadURL(certificateNumber)

	if err := enrollment.IssueCertificate(certificateNumber, downloadURL, now); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course not completed or certificate already issued!", nil)
	}

	if err := enrollment.SaveWithVersion(database.Database.Db); err != nil {
		if errors.Is(err, courseModels.ErrConcurrentUpdate) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment was modified concurrently, reload and try again!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error; err == nil {
		utils.SendCertificateIssued(user.Email, user.Name, course.Title, certificateNumber, downloadURL)
	}

	enrollment.ComputeDerived(now)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued successfully!", fiber.Map{
		"certificate": fiber.Map{
			"certificate_id": enrollment.CertificateID,
			"issued_at":      enrollment.CertificateIssuedAt,
			"download_url":   enrollment.CertificateURL,
		},
		"enrollment": enrollment,
	})
}

// VerifyCertificate resolves an issued certificate by its public number
func VerifyCertificate(c *fiber.Ctx) error {
	certificateNumber := c.Params("number")
	if certificateNumber == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate number is required!", nil)
	}

	var enrollment courseModels.Enrollment
	err := database.Database.Db.
		Where("certificate_id = ? AND certificate_issued = ? AND is_deleted = ?", certificateNumber, true, false).
		First(&enrollment).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	var course courseModels.Course
	database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verified successfully!", fiber.Map{
		"certificate_id": enrollment.CertificateID,
		"issued_at":      enrollment.CertificateIssuedAt,
		"course_title":   course.Title,
		"student_id":     enrollment.UserID,
	})
}
