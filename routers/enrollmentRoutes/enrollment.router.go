package enrollmentRoutes

import (
	controllers "lms/controllers/enrollment"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

// SetupEnrollmentRoutes sets up all enrollment lifecycle routes
func SetupEnrollmentRoutes(app *fiber.App) {
	enrollGroup := app.Group("/api/enrollments")

	// Student operations
	enrollGroup.Post("/", middleware.JWTMiddleware, validators.Enroll(), controllers.EnrollInCourse)
	enrollGroup.Get("/my-courses", middleware.JWTMiddleware, validators.MyCourses(), controllers.GetMyCourses)

	// Admin operations; fixed paths register before the :id routes
	enrollGroup.Get("/stats",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		controllers.GetEnrollmentStats)
	enrollGroup.Get("/",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		validators.AdminList(),
		controllers.AdminListEnrollments)
	enrollGroup.Put("/:id/refund-status",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		validators.ProcessRefund(),
		controllers.ProcessRefund)

	// Owner operations on one enrollment
	enrollGroup.Get("/:id", middleware.JWTMiddleware, validators.EnrollmentID(), controllers.GetEnrollment)
	enrollGroup.Put("/:id/progress", middleware.JWTMiddleware, validators.UpdateProgress(), controllers.UpdateProgress)
	enrollGroup.Post("/:id/review", middleware.JWTMiddleware, validators.AddReview(), controllers.AddReview)
	enrollGroup.Post("/:id/certificate", middleware.JWTMiddleware, validators.EnrollmentID(), controllers.IssueCertificate)
	enrollGroup.Post("/:id/refund", middleware.JWTMiddleware, validators.RequestRefund(), controllers.RequestRefund)

	// Public certificate verification
	certGroup := app.Group("/api/certificates")
	certGroup.Get("/:number/download", controllers.VerifyCertificate)
}
