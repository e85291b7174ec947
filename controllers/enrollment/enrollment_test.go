package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	courseRoutes "lms/routers/courseRoutes"
	enrollmentRoutes "lms/routers/enrollmentRoutes"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	config.LoadConfig()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	courseRoutes.SetupCourseRoutes(app)
	enrollmentRoutes.SetupEnrollmentRoutes(app)
	return app
}

func createUser(t *testing.T, name, email, role string) (models.User, string) {
	t.Helper()

	user := models.User{Name: name, Email: email, Password: "x", Role: role}
	require.NoError(t, database.Database.Db.Create(&user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return user, token
}

func createPublishedCourse(t *testing.T, instructorID uint, price float64, totalLectures int) courseModels.Course {
	t.Helper()

	course := courseModels.Course{
		Title:         "Systems Programming in Go",
		Description:   "From sockets to schedulers",
		InstructorID:  instructorID,
		Price:         price,
		Currency:      "USD",
		TotalLectures: totalLectures,
		Status:        models.CoursePublished,
	}
	require.NoError(t, database.Database.Db.Create(&course).Error)
	return course
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Errors  map[string]string      `json:"errors"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp.StatusCode, env
}

func enrollBody(courseID uint, txn string) fiber.Map {
	return fiber.Map{
		"courseId":      courseID,
		"paymentMethod": "credit_card",
		"transactionId": txn,
	}
}

func TestEnrollmentLifecycle(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, studentToken := createUser(t, "Sam", "sam@example.com", models.RoleStudent)
	_, adminToken := createUser(t, "Ada", "ada@example.com", models.RoleAdmin)
	course := createPublishedCourse(t, instructor.ID, 49.99, 10)

	// Enroll
	code, env := doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(course.ID, "txn-1"))
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)
	assert.Equal(t, "active", env.Data["status"])
	assert.Equal(t, float64(0), env.Data["progress"])
	assert.Equal(t, "completed", env.Data["payment_status"])
	assert.Equal(t, 49.99, env.Data["payment_amount"])
	assert.Equal(t, true, env.Data["is_lifetime"])
	assert.NotEmpty(t, env.Data["receipt_number"])
	enrollmentID := uint(env.Data["id"].(float64))

	// Second enroll for the same pair fails
	code, env = doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(course.ID, "txn-2"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	// Course counter incremented once
	var refreshed courseModels.Course
	require.NoError(t, database.Database.Db.First(&refreshed, course.ID).Error)
	assert.Equal(t, int64(1), refreshed.EnrolledCount)

	// Complete 9 of 10 lectures, still active
	progressPath := fmt.Sprintf("/api/enrollments/%d/progress", enrollmentID)
	for lecture := 1; lecture <= 9; lecture++ {
		code, env = doRequest(t, app, http.MethodPut, progressPath, studentToken,
			fiber.Map{"lectureId": lecture, "timeSpent": 300})
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, float64(90), env.Data["progress"])
	assert.Equal(t, "active", env.Data["status"])
	assert.Nil(t, env.Data["completed_at"])

	// Re-marking a lecture does not move progress
	code, env = doRequest(t, app, http.MethodPut, progressPath, studentToken,
		fiber.Map{"lectureId": 9, "timeSpent": 120})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(90), env.Data["progress"])

	// Tenth lecture completes the course
	code, env = doRequest(t, app, http.MethodPut, progressPath, studentToken,
		fiber.Map{"lectureId": 10})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(100), env.Data["progress"])
	assert.Equal(t, "completed", env.Data["status"])
	assert.NotNil(t, env.Data["completed_at"])
	assert.Equal(t, true, env.Data["is_completed"])

	// Certificate issues once
	certPath := fmt.Sprintf("/api/enrollments/%d/certificate", enrollmentID)
	code, env = doRequest(t, app, http.MethodPost, certPath, studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	cert := env.Data["certificate"].(map[string]interface{})
	certNumber := cert["certificate_id"].(string)
	assert.NotEmpty(t, certNumber)
	assert.NotEmpty(t, cert["download_url"])

	code, env = doRequest(t, app, http.MethodPost, certPath, studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Course not completed or certificate already issued!", env.Message)

	// Public certificate verification
	code, env = doRequest(t, app, http.MethodGet, "/api/certificates/"+certNumber+"/download", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, certNumber, env.Data["certificate_id"])

	// Refund request succeeds exactly once
	refundPath := fmt.Sprintf("/api/enrollments/%d/refund", enrollmentID)
	code, env = doRequest(t, app, http.MethodPost, refundPath, studentToken,
		fiber.Map{"reason": "not satisfied with pacing"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pending", env.Data["refund_status"])

	code, env = doRequest(t, app, http.MethodPost, refundPath, studentToken,
		fiber.Map{"reason": "still not satisfied with pacing"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Refund already requested!", env.Message)

	// Admin approves the refund
	code, env = doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/enrollments/%d/refund-status", enrollmentID),
		adminToken, fiber.Map{"refundStatus": "approved", "refundAmount": 49.99})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "approved", env.Data["refund_status"])
	assert.Equal(t, 49.99, env.Data["refund_amount"])
	assert.NotNil(t, env.Data["refund_processed_at"])
}

func TestEnrollValidationAndPreconditions(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, studentToken := createUser(t, "Sam", "sam@example.com", models.RoleStudent)

	// Unknown payment method
	code, env := doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, fiber.Map{
		"courseId":      1,
		"paymentMethod": "barter",
		"transactionId": "txn-1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "paymentMethod")

	// Missing course
	code, env = doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(999, "txn-1"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Course not found!", env.Message)

	// Draft course cannot be enrolled
	draft := courseModels.Course{
		Title:        "Unfinished",
		Description:  "Not ready yet",
		InstructorID: instructor.ID,
		Status:       models.CourseDraft,
	}
	require.NoError(t, database.Database.Db.Create(&draft).Error)

	code, env = doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(draft.ID, "txn-1"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Course is not published!", env.Message)
}

func TestOwnershipChecks(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, ownerToken := createUser(t, "Sam", "sam@example.com", models.RoleStudent)
	_, otherToken := createUser(t, "Eve", "eve@example.com", models.RoleStudent)
	course := createPublishedCourse(t, instructor.ID, 19.99, 5)

	code, env := doRequest(t, app, http.MethodPost, "/api/enrollments/", ownerToken, enrollBody(course.ID, "txn-1"))
	require.Equal(t, http.StatusCreated, code)
	enrollmentID := uint(env.Data["id"].(float64))

	paths := map[string]struct {
		method string
		body   interface{}
	}{
		fmt.Sprintf("/api/enrollments/%d", enrollmentID):             {http.MethodGet, nil},
		fmt.Sprintf("/api/enrollments/%d/progress", enrollmentID):    {http.MethodPut, fiber.Map{"lectureId": 1}},
		fmt.Sprintf("/api/enrollments/%d/review", enrollmentID):      {http.MethodPost, fiber.Map{"rating": 5}},
		fmt.Sprintf("/api/enrollments/%d/certificate", enrollmentID): {http.MethodPost, nil},
		fmt.Sprintf("/api/enrollments/%d/refund", enrollmentID):      {http.MethodPost, fiber.Map{"reason": "this is long enough"}},
	}
	for path, req := range paths {
		code, _ := doRequest(t, app, req.method, path, otherToken, req.body)
		assert.Equal(t, http.StatusForbidden, code, "expected 403 for %s %s", req.method, path)
	}

	// Admin endpoints reject students
	code, _ = doRequest(t, app, http.MethodGet, "/api/enrollments/", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = doRequest(t, app, http.MethodGet, "/api/enrollments/stats", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Missing enrollment is a 404 for its owner
	code, _ = doRequest(t, app, http.MethodGet, "/api/enrollments/9999", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAddReviewUpdatesCourseAggregate(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, studentToken := createUser(t, "Sam", "sam@example.com", models.RoleStudent)
	course := createPublishedCourse(t, instructor.ID, 19.99, 5)

	code, env := doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(course.ID, "txn-1"))
	require.Equal(t, http.StatusCreated, code)
	enrollmentID := uint(env.Data["id"].(float64))

	reviewPath := fmt.Sprintf("/api/enrollments/%d/review", enrollmentID)

	// Out-of-range rating
	code, env = doRequest(t, app, http.MethodPost, reviewPath, studentToken, fiber.Map{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "rating")

	code, env = doRequest(t, app, http.MethodPost, reviewPath, studentToken,
		fiber.Map{"rating": 4, "review": "great pacing and depth"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env.Data["rating_given"])

	var refreshed courseModels.Course
	require.NoError(t, database.Database.Db.First(&refreshed, course.ID).Error)
	assert.Equal(t, int64(1), refreshed.RatingCount)
	assert.InDelta(t, 4.0, refreshed.AverageRating, 0.001)

	// Second review is rejected and the aggregate is untouched
	code, env = doRequest(t, app, http.MethodPost, reviewPath, studentToken, fiber.Map{"rating": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Review already submitted!", env.Message)

	require.NoError(t, database.Database.Db.First(&refreshed, course.ID).Error)
	assert.Equal(t, int64(1), refreshed.RatingCount)
}

func TestMyCoursesFilter(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, studentToken := createUser(t, "Sam", "sam@example.com", models.RoleStudent)
	first := createPublishedCourse(t, instructor.ID, 10, 1)
	second := createPublishedCourse(t, instructor.ID, 20, 5)

	code, env := doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(first.ID, "txn-1"))
	require.Equal(t, http.StatusCreated, code)
	firstID := uint(env.Data["id"].(float64))
	code, _ = doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(second.ID, "txn-2"))
	require.Equal(t, http.StatusCreated, code)

	// Complete the single-lecture course
	code, _ = doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/enrollments/%d/progress", firstID),
		studentToken, fiber.Map{"lectureId": 1})
	require.Equal(t, http.StatusOK, code)

	code, env = doRequest(t, app, http.MethodGet, "/api/enrollments/my-courses?status=active", studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), env.Data["total"])

	code, env = doRequest(t, app, http.MethodGet, "/api/enrollments/my-courses?status=all", studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), env.Data["total"])

	code, env = doRequest(t, app, http.MethodGet, "/api/enrollments/my-courses?status=bogus", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "status")
}

func TestAdminListAndStats(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, adminToken := createUser(t, "Ada", "ada@example.com", models.RoleAdmin)
	course := createPublishedCourse(t, instructor.ID, 25, 4)

	for i := 1; i <= 3; i++ {
		_, token := createUser(t, fmt.Sprintf("S%d", i), fmt.Sprintf("s%d@example.com", i), models.RoleStudent)
		code, _ := doRequest(t, app, http.MethodPost, "/api/enrollments/", token,
			enrollBody(course.ID, fmt.Sprintf("txn-%d", i)))
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := doRequest(t, app, http.MethodGet, "/api/enrollments/?page=1&limit=2", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	pagination := env.Data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["currentPage"])
	assert.Equal(t, float64(2), pagination["totalPages"])
	assert.Equal(t, float64(3), pagination["totalEnrollments"])
	assert.Equal(t, float64(2), pagination["limit"])
	assert.Len(t, env.Data["enrollments"], 2)

	code, env = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/enrollments/?courseId=%d&status=active", course.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, env.Data["enrollments"], 3)

	code, env = doRequest(t, app, http.MethodGet, "/api/enrollments/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), env.Data["total_enrollments"])
	byStatus := env.Data["by_status"].(map[string]interface{})
	assert.Equal(t, float64(3), byStatus["active"])
	assert.InDelta(t, 75.0, env.Data["total_revenue"].(float64), 0.001)
}

func TestAccessExpiryWindow(t *testing.T) {
	app := setupApp(t)

	instructor, _ := createUser(t, "Ina", "ina@example.com", models.RoleInstructor)
	_, studentToken := createUser(t, "Sam", "sam@example.com", models.RoleStudent)

	course := createPublishedCourse(t, instructor.ID, 30, 5)
	require.NoError(t, database.Database.Db.Model(&course).Update("access_days", 30).Error)

	code, env := doRequest(t, app, http.MethodPost, "/api/enrollments/", studentToken, enrollBody(course.ID, "txn-1"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, false, env.Data["is_lifetime"])
	assert.NotNil(t, env.Data["access_expires_at"])
	assert.Equal(t, false, env.Data["is_expired"])
	enrollmentID := uint(env.Data["id"].(float64))

	// Push the expiry into the past; the record reads as expired but the
	// stored status is untouched
	past := time.Now().Add(-time.Hour)
	require.NoError(t, database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollmentID).
		UpdateColumn("access_expires_at", past).Error)

	code, env = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/enrollments/%d", enrollmentID), studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env.Data["is_expired"])
	assert.Equal(t, "active", env.Data["status"])
}
