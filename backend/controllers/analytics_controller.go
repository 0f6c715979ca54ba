package controllers

import (
	"errors"
	"fmt"
	"time"

	"learnflow/backend/content"
	"learnflow/backend/models"
	"learnflow/backend/progress"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsController struct {
	Content  content.Store
	Progress *progress.GormStore
	Importer *content.Importer
	Log      *zap.Logger
}

func NewAnalyticsController(contentStore content.Store, store *progress.GormStore, importer *content.Importer, log *zap.Logger) *AnalyticsController {
	return &AnalyticsController{Content: contentStore, Progress: store, Importer: importer, Log: log}
}

// loadAnalytics writes the error response itself and then returns nil
// analytics.
func (ac *AnalyticsController) loadAnalytics(c *fiber.Ctx) (*models.CourseAnalytics, error) {
	courseID, err := paramID(c, "id")
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid course ID")
	}
	ctx := c.UserContext()

	course, err := ac.Content.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, content.ErrCourseNotFound) {
			return nil, utils.NotFound(c, "Course not found")
		}
		ac.Log.Error("loading course failed", zap.Uint("course_id", courseID), zap.Error(err))
		return nil, utils.InternalServerError(c, "Failed to fetch course")
	}

	analytics, err := ac.Progress.CourseAnalytics(ctx, course)
	if err != nil {
		ac.Log.Error("course analytics failed", zap.Uint("course_id", courseID), zap.Error(err))
		return nil, utils.InternalServerError(c, "Failed to fetch course analytics")
	}
	return analytics, nil
}

// GetCourseAnalytics godoc
// @Summary Course progress analytics
// @Description Per-learner progress rows and per-chapter completion counts (admin only)
// @Tags admin
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/analytics [get]
func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	analytics, err := ac.loadAnalytics(c)
	if analytics == nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, analytics)
}

// ExportCourseAnalytics godoc
// @Summary Course progress analytics as a spreadsheet
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Course ID"
// @Success 200 {file} file
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/analytics/export [get]
func (ac *AnalyticsController) ExportCourseAnalytics(c *fiber.Ctx) error {
	analytics, err := ac.loadAnalytics(c)
	if analytics == nil {
		return err
	}

	f, err := AnalyticsWorkbook(analytics)
	if err != nil {
		ac.Log.Error("building analytics workbook failed", zap.Uint("course_id", analytics.CourseID), zap.Error(err))
		return utils.InternalServerError(c, "Failed to build export")
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return utils.InternalServerError(c, "Failed to write export")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="course-%d-analytics.xlsx"`, analytics.CourseID))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// AnalyticsWorkbook lays analytics out on a Learners and a Chapters sheet.
func AnalyticsWorkbook(a *models.CourseAnalytics) (*excelize.File, error) {
	f := excelize.NewFile()

	const learners, chapters = "Learners", "Chapters"
	if err := f.SetSheetName("Sheet1", learners); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(chapters); err != nil {
		f.Close()
		return nil, err
	}

	learnerRows := [][]interface{}{{
		"User ID", "Username", "Completed items", "Total items", "Percentage", "Status", "Completed at", "Last accessed",
	}}
	for _, l := range a.Learners {
		completedAt := ""
		if l.CompletedAt != nil {
			completedAt = l.CompletedAt.Format(time.RFC3339)
		}
		learnerRows = append(learnerRows, []interface{}{
			l.UserID, l.Username, l.CompletedItems, l.TotalItems, l.CompletionPercentage,
			string(l.Status), completedAt, l.LastAccessedAt.Format(time.RFC3339),
		})
	}

	chapterRows := [][]interface{}{{"Section", "Chapter ID", "Chapter", "Learners completed"}}
	for _, ch := range a.Chapters {
		chapterRows = append(chapterRows, []interface{}{ch.SectionTitle, ch.ChapterID, ch.ChapterTitle, ch.Completed})
	}

	for sheet, rows := range map[string][][]interface{}{learners: learnerRows, chapters: chapterRows} {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			row := row
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

// ImportCourse godoc
// @Summary Import a course from YAML
// @Description Creates the course, its sections, chapters and quizzes in one transaction (admin only)
// @Tags admin
// @Accept application/x-yaml
// @Produce json
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/import [post]
func (ac *AnalyticsController) ImportCourse(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	file, problems, err := content.ParseCourseFile(c.Body())
	if err != nil {
		return utils.BadRequest(c, "Cannot parse course YAML")
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	course, err := ac.Importer.Import(c.UserContext(), file, userID)
	if err != nil {
		ac.Log.Error("course import failed", zap.String("title", file.Title), zap.Error(err))
		return utils.InternalServerError(c, "Failed to import course")
	}
	ac.Log.Info("course imported", zap.Uint("course_id", course.ID), zap.Int("sections", len(course.Sections)))

	return utils.Created(c, fiber.Map{
		"id":       course.ID,
		"title":    course.Title,
		"sections": len(course.Sections),
	})
}
