package controllers

import (
	"errors"
	"strings"

	"learnflow/backend/config"
	"learnflow/backend/models"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, log *zap.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Log: log}
}

type RegisterRequest struct {
	Username string `json:"username" example:"john_doe"`
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"secret123" minLength:"8"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func userPayload(user *models.User) fiber.Map {
	return fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	}
}

// Register godoc
// @Summary Register a new learner
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	problems := make(map[string]string)
	if strings.TrimSpace(input.Username) == "" {
		problems["username"] = "Username is required"
	}
	if !strings.Contains(input.Email, "@") {
		problems["email"] = "A valid email is required"
	}
	if len(input.Password) < 8 {
		problems["password"] = "Password must be at least 8 characters"
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hashedPassword),
		Role:         "user",
	}
	if err := ac.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		ac.Log.Warn("user registration failed", zap.String("username", user.Username), zap.Error(err))
		return utils.BadRequest(c, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Created(c, fiber.Map{
		"token": token,
		"user":  userPayload(&user),
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := ac.DB.WithContext(c.UserContext()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		ac.Log.Error("login lookup failed", zap.Error(err))
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  userPayload(&user),
	})
}
