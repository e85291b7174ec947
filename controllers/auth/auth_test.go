package authController_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lms/config"
	"lms/database"
	authRoutes "lms/routers/authRoutes"
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
	authRoutes.SetupAuthRoutes(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env map[string]interface{}
	rawBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(rawBody, &env))
	return resp.StatusCode, env
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	code, env := postJSON(t, app, "/api/auth/register", fiber.Map{
		"name":     "Sam",
		"email":    "sam@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, code)
	data := env["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "STUDENT", user["role"])

	// Duplicate email
	code, env = postJSON(t, app, "/api/auth/register", fiber.Map{
		"name":     "Sam Again",
		"email":    "sam@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already registered!", env["message"])

	// Login with the right password
	code, env = postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "sam@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, code)
	data = env["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	// Wrong password
	code, _ = postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "sam@example.com",
		"password": "wrong-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	app := setupApp(t)

	code, env := postJSON(t, app, "/api/auth/register", fiber.Map{
		"name":     "",
		"email":    "not-an-email",
		"password": "short",
		"role":     "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	errs := env["errors"].(map[string]interface{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "role")
}
