package middleware

import (
	"learnflow/backend/config"
	"learnflow/backend/models"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// AuthMiddleware verifies the bearer token and stores the caller's
// identity in c.Locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := utils.ExtractIdentityFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalRole, identity.Role)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(LocalRole).(string); role != models.RoleAdmin {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}
		return c.Next()
	}
}

// UserID returns the authenticated learner id set by AuthMiddleware.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}
