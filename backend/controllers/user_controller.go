package controllers

import (
	"errors"

	"learnflow/backend/models"
	"learnflow/backend/progress"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserController struct {
	DB       *gorm.DB
	Progress *progress.GormStore
	Log      *zap.Logger
}

func NewUserController(db *gorm.DB, store *progress.GormStore, log *zap.Logger) *UserController {
	return &UserController{DB: db, Progress: store, Log: log}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data with a progress overview
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := learnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	ctx := c.UserContext()

	var user models.User
	if err := uc.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var warnings []string
	overview, err := uc.Progress.Overview(ctx, userID)
	if err != nil {
		uc.Log.Warn("profile overview failed", zap.Uint("user_id", userID), zap.Error(err))
		warnings = append(warnings, "Progress could not be loaded")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":     userPayload(&user),
		"progress": overview,
	}, warnings...)
}
