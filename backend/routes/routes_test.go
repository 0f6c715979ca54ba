package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learnflow/backend/cache"
	"learnflow/backend/config"
	"learnflow/backend/middleware"
	"learnflow/backend/models"
	"learnflow/backend/routes"
	"learnflow/backend/testutil"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const courseYAML = `
title: Stoicism
sections:
  - title: Basics
    chapters:
      - title: Who were the Stoics
        kind: text
        body: Zeno, Seneca, Epictetus
      - title: Lecture
        kind: video
        video_url: https://example.com/lecture.mp4
    quiz:
      questions:
        - question: Who founded Stoicism?
          options: [Zeno, Plato]
  - title: Practice
    chapters:
      - title: Journaling
        kind: text
`

type testApp struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestApp(t *testing.T) *testApp {
	db := testutil.DB(t)
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		CacheTTL:             time.Minute,
		ProgressWriteTimeout: time.Second,
	}
	logger := testutil.Logger(t)

	app := fiber.New()
	app.Use(middleware.LoggingMiddleware(logger))
	routes.SetupRoutes(app, db, cfg, cache.Nop{}, logger)
	return &testApp{app: app, db: db, cfg: cfg}
}

func (ta *testApp) token(t *testing.T, user *models.User) string {
	token, err := utils.GenerateJWTToken(user.ID, user.Role, ta.cfg)
	require.NoError(t, err)
	return "Bearer " + token
}

func (ta *testApp) do(t *testing.T, method, path, token, contentType string, body []byte) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &result), string(raw))
	}
	return resp.StatusCode, result
}

func (ta *testApp) send(t *testing.T, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	return ta.do(t, method, path, token, fiber.MIMEApplicationJSON, body)
}

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", result)
	return d
}

func id(v interface{}) uint {
	return uint(v.(float64))
}

func (ta *testApp) importCourse(t *testing.T, admin string) uint {
	status, result := ta.do(t, "POST", "/api/admin/courses/import", admin, "application/x-yaml", []byte(courseYAML))
	require.Equal(t, fiber.StatusCreated, status, result)
	return id(data(t, result)["id"])
}

func TestAuthFlow(t *testing.T) {
	ta := newTestApp(t)

	status, result := ta.send(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "marcus", "email": "marcus@example.com", "password": "meditations",
	})
	require.Equal(t, fiber.StatusCreated, status, result)
	assert.NotEmpty(t, data(t, result)["token"])

	status, _ = ta.send(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "", "email": "nope", "password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = ta.send(t, "POST", "/api/auth/login", "", map[string]string{"username": "marcus", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, result = ta.send(t, "POST", "/api/auth/login", "", map[string]string{"username": "marcus", "password": "meditations"})
	require.Equal(t, fiber.StatusOK, status)
	token := "Bearer " + data(t, result)["token"].(string)

	status, result = ta.send(t, "GET", "/api/user/profile", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	user := data(t, result)["user"].(map[string]interface{})
	assert.Equal(t, "marcus", user["username"])

	status, _ = ta.send(t, "GET", "/api/user/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestLearnFlow(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.token(t, testutil.SeedUser(t, ta.db, "admin", models.RoleAdmin))
	learner := ta.token(t, testutil.SeedUser(t, ta.db, "learner", "user"))
	courseID := ta.importCourse(t, admin)
	base := fmt.Sprintf("/api/courses/%d", courseID)

	status, result := ta.send(t, "GET", base+"/learn", learner, nil)
	require.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "/courses", result["redirect"])

	status, _ = ta.send(t, "POST", base+"/enroll", learner, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, result = ta.send(t, "GET", base+"/learn", learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	page := data(t, result)
	assert.Equal(t, "welcome", page["state"].(map[string]interface{})["view"])
	sections := page["sections"].([]interface{})
	require.Len(t, sections, 2)
	basics := sections[0].(map[string]interface{})
	basicsID := id(basics["id"])
	chapters := basics["chapters"].([]interface{})
	firstChapter := id(chapters[0].(map[string]interface{})["id"])
	lecture := id(chapters[1].(map[string]interface{})["id"])

	// Quiz wins over chapter in the descriptor.
	status, result = ta.send(t, "GET", fmt.Sprintf("%s/learn?section=%d&chapter=%d&quiz=1", base, basicsID, firstChapter), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "quiz", data(t, result)["state"].(map[string]interface{})["view"])

	status, result = ta.send(t, "GET", base+"/learn?section=abc&chapter=9999", learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "welcome", data(t, result)["state"].(map[string]interface{})["view"])

	status, result = ta.send(t, "POST", fmt.Sprintf("%s/chapters/%d/next", base, firstChapter), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	target := data(t, result)
	assert.Equal(t, fmt.Sprintf("chapter=%d&section=%d", lecture, basicsID), target["descriptor"])
	assert.Equal(t, true, target["recorded"])

	status, _ = ta.send(t, "POST", fmt.Sprintf("%s/chapters/%d/complete", base, lecture), learner, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, result = ta.send(t, "GET", fmt.Sprintf("%s/sections/%d/quiz", base, basicsID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	questions := data(t, result)["questions"].([]interface{})
	require.Len(t, questions, 1)

	status, result = ta.send(t, "POST", fmt.Sprintf("%s/sections/%d/quiz/attempts", base, basicsID), learner,
		map[string]interface{}{"answers": map[string]string{"1": "Zeno"}})
	require.Equal(t, fiber.StatusCreated, status, result)
	attempt := data(t, result)
	assert.Equal(t, float64(1), attempt["attempt_number"])
	progress := attempt["course_progress"].(map[string]interface{})
	assert.Equal(t, float64(75), progress["percentage"])

	status, _ = ta.send(t, "POST", base+"/finish", learner, map[string]bool{"confirmed": false})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, result = ta.send(t, "POST", base+"/finish", learner, map[string]bool{"confirmed": true})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(t, result)["exit"])

	status, result = ta.send(t, "GET", "/api/progress/overview", learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	overview := data(t, result)
	assert.Equal(t, float64(1), overview["courses_completed"])
	assert.Equal(t, float64(2), overview["chapters_completed"])
	assert.Equal(t, float64(1), overview["quizzes_attempted"])

	status, result = ta.send(t, "GET", "/api/courses/", learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := result["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "completed", list[0].(map[string]interface{})["status"])
}

func TestBadRequests(t *testing.T) {
	ta := newTestApp(t)
	learner := ta.token(t, testutil.SeedUser(t, ta.db, "learner", "user"))

	status, _ := ta.send(t, "GET", "/api/courses/abc/learn", learner, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = ta.send(t, "POST", "/api/courses/9999/enroll", learner, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = ta.send(t, "POST", "/api/courses/1/chapters/0/next", learner, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminAnalytics(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.token(t, testutil.SeedUser(t, ta.db, "admin", models.RoleAdmin))
	learnerUser := testutil.SeedUser(t, ta.db, "learner", "user")
	learner := ta.token(t, learnerUser)
	courseID := ta.importCourse(t, admin)
	path := fmt.Sprintf("/api/admin/courses/%d/analytics", courseID)

	status, _ := ta.send(t, "GET", path, learner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = ta.do(t, "POST", "/api/admin/courses/import", admin, "application/x-yaml", []byte("sections: []\n"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = ta.send(t, "POST", fmt.Sprintf("/api/courses/%d/enroll", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = ta.send(t, "GET", fmt.Sprintf("/api/courses/%d/learn", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, result := ta.send(t, "GET", path, admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	analytics := data(t, result)
	assert.Equal(t, float64(1), analytics["stats"].(map[string]interface{})["enrolled"])
	assert.Len(t, analytics["learners"], 1)
	assert.Len(t, analytics["chapters"], 3)

	req := httptest.NewRequest("GET", path+"/export", nil)
	req.Header.Set("Authorization", admin)
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "analytics.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Learners")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "learner", rows[1][1])

	chapterRows, err := f.GetRows("Chapters")
	require.NoError(t, err)
	assert.Len(t, chapterRows, 4)
}
