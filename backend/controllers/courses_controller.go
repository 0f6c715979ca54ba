package controllers

import (
	"errors"
	"time"

	"learnflow/backend/completion"
	"learnflow/backend/content"
	"learnflow/backend/learning"
	"learnflow/backend/models"
	"learnflow/backend/navigation"
	"learnflow/backend/progress"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CoursesController struct {
	Learning    *learning.Service
	Content     content.Store
	Enrollments *completion.GormEnrollments
	Progress    *progress.GormStore
	Log         *zap.Logger
}

func NewCoursesController(svc *learning.Service, contentStore content.Store, enrollments *completion.GormEnrollments, store *progress.GormStore, log *zap.Logger) *CoursesController {
	return &CoursesController{
		Learning:    svc,
		Content:     contentStore,
		Enrollments: enrollments,
		Progress:    store,
		Log:         log,
	}
}

type CourseSummary struct {
	ID             uint                    `json:"id"`
	Title          string                  `json:"title"`
	ShortDesc      string                  `json:"short_desc"`
	Difficulty     string                  `json:"difficulty"`
	LogoURL        string                  `json:"logo_url"`
	Percentage     int                     `json:"percentage"`
	Status         models.CompletionStatus `json:"status"`
	LastAccessedAt *time.Time              `json:"last_accessed_at,omitempty"`
}

// GetUserCourses godoc
// @Summary List enrolled courses with progress
// @Tags courses
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [get]
func (cc *CoursesController) GetUserCourses(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	ctx := c.UserContext()

	courses, err := cc.Enrollments.EnrolledCourses(ctx, userID)
	if err != nil {
		cc.Log.Error("listing enrolled courses failed", zap.Uint("user_id", userID), zap.Error(err))
		return utils.InternalServerError(c, "Failed to fetch courses")
	}

	var warnings []string
	byCourse := make(map[uint]models.CourseProgress)
	rows, err := cc.Progress.ListCourseProgress(ctx, userID)
	if err != nil {
		cc.Log.Warn("listing course progress failed", zap.Uint("user_id", userID), zap.Error(err))
		warnings = append(warnings, "Progress could not be loaded")
	}
	for _, row := range rows {
		byCourse[row.CourseID] = row
	}

	out := make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		summary := CourseSummary{
			ID:         course.ID,
			Title:      course.Title,
			ShortDesc:  course.ShortDesc,
			Difficulty: course.Difficulty,
			LogoURL:    course.LogoURL,
			Status:     models.StatusNotStarted,
		}
		if row, ok := byCourse[course.ID]; ok {
			summary.Percentage = row.CompletionPercentage
			summary.Status = row.Status
			lastAccessed := row.LastAccessedAt
			summary.LastAccessedAt = &lastAccessed
		}
		out = append(out, summary)
	}
	return utils.Success(c, fiber.StatusOK, out, warnings...)
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	ctx := c.UserContext()

	if _, err := cc.Content.GetCourse(ctx, courseID); err != nil {
		if errors.Is(err, content.ErrCourseNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return learningError(c, cc.Log, err)
	}

	enrollment, err := cc.Enrollments.Enroll(ctx, userID, courseID)
	if err != nil {
		cc.Log.Error("enrollment failed", zap.Uint("user_id", userID), zap.Uint("course_id", courseID), zap.Error(err))
		return utils.InternalServerError(c, "Could not enroll")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id": enrollment.CourseID,
		"status":    enrollment.Status,
	})
}

// Learn godoc
// @Summary Render the learn page state
// @Description Composes sections, current item, next action and progress for a deep link.
// @Tags learn
// @Produce json
// @Param id path int true "Course ID"
// @Param section query int false "Section ID"
// @Param chapter query int false "Chapter ID"
// @Param quiz query int false "1 to open the section quiz"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/learn [get]
func (cc *CoursesController) Learn(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	d := navigation.ParseDescriptor(c.Query("section"), c.Query("chapter"), c.Query("quiz"))
	page, err := cc.Learning.RenderState(c.UserContext(), userID, courseID, d)
	if err != nil {
		return learningError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, page, page.Warnings...)
}

// ChapterNext godoc
// @Summary Complete a chapter and move on
// @Tags learn
// @Produce json
// @Param id path int true "Course ID"
// @Param chapterId path int true "Chapter ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters/{chapterId}/next [post]
func (cc *CoursesController) ChapterNext(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	chapterID, err := paramID(c, "chapterId")
	if err != nil {
		return utils.BadRequest(c, "Invalid chapter ID")
	}

	target, err := cc.Learning.OnChapterNext(c.UserContext(), userID, courseID, chapterID)
	if err != nil {
		return learningError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, target, target.Warnings...)
}

// GetQuiz godoc
// @Summary Quiz payload for a section
// @Tags learn
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionId path int true "Section ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/sections/{sectionId}/quiz [get]
func (cc *CoursesController) GetQuiz(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	sectionID, err := paramID(c, "sectionId")
	if err != nil {
		return utils.BadRequest(c, "Invalid section ID")
	}

	payload, err := cc.Learning.FetchQuiz(c.UserContext(), userID, courseID, sectionID)
	if err != nil {
		return learningError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, payload)
}
