package controllers

import (
	"encoding/json"

	"learnflow/backend/learning"
	"learnflow/backend/progress"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProgressController struct {
	Learning *learning.Service
	Progress *progress.GormStore
	Log      *zap.Logger
}

func NewProgressController(svc *learning.Service, store *progress.GormStore, log *zap.Logger) *ProgressController {
	return &ProgressController{Learning: svc, Progress: store, Log: log}
}

type QuizAttemptRequest struct {
	// Answers are stored verbatim.
	Answers json.RawMessage `json:"answers"`
}

type FinishCourseRequest struct {
	Confirmed bool `json:"confirmed"`
}

// GetProgressOverview godoc
// @Summary Get user progress overview
// @Description Counts of enrolled, in-progress and completed courses, chapters and quizzes
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/overview [get]
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	overview, err := pc.Progress.Overview(c.UserContext(), userID)
	if err != nil {
		pc.Log.Error("progress overview failed", zap.Uint("user_id", userID), zap.Error(err))
		return utils.InternalServerError(c, "Failed to fetch progress overview")
	}
	return utils.Success(c, fiber.StatusOK, overview)
}

// CompleteChapter godoc
// @Summary Mark a chapter completed
// @Description Idempotent; used when a video finishes playing.
// @Tags progress
// @Produce json
// @Param id path int true "Course ID"
// @Param chapterId path int true "Chapter ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters/{chapterId}/complete [post]
func (pc *ProgressController) CompleteChapter(c *fiber.Ctx) error {
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

	res, warnings, err := pc.Learning.CompleteChapter(c.UserContext(), userID, courseID, chapterID)
	if err != nil {
		return learningError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, res, warnings...)
}

// SubmitQuizAttempt godoc
// @Summary Record a quiz attempt
// @Description Stores the answers without scoring; one attempt unlocks the section.
// @Tags progress
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionId path int true "Section ID"
// @Param attempt body QuizAttemptRequest true "Answers"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/sections/{sectionId}/quiz/attempts [post]
func (pc *ProgressController) SubmitQuizAttempt(c *fiber.Ctx) error {
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

	var input QuizAttemptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Cannot parse JSON")
		}
	}

	res, warnings, err := pc.Learning.SubmitQuiz(c.UserContext(), userID, courseID, sectionID, string(input.Answers))
	if err != nil {
		return learningError(c, pc.Log, err)
	}
	status := fiber.StatusCreated
	if !res.Success {
		status = fiber.StatusOK
	}
	return utils.Success(c, status, res, warnings...)
}

// FinishCourse godoc
// @Summary Finish a course
// @Description Requires {"confirmed": true}; marks the course completed and returns the exit destination.
// @Tags progress
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body FinishCourseRequest true "Confirmation"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/finish [post]
func (pc *ProgressController) FinishCourse(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input FinishCourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if !input.Confirmed {
		return utils.BadRequest(c, "Finishing a course must be confirmed")
	}

	target, err := pc.Learning.OnFinishCourse(c.UserContext(), userID, courseID)
	if err != nil {
		return learningError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, target, target.Warnings...)
}
