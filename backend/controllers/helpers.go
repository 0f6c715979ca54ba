package controllers

import (
	"errors"
	"fmt"

	"learnflow/backend/learning"
	"learnflow/backend/middleware"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

func learnerID(c *fiber.Ctx) (uint, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("missing learner identity")
	}
	return id, nil
}

// learningError maps core errors onto responses. Only enrollment and
// missing content reach the client as failures.
func learningError(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, learning.ErrNotEnrolled):
		return utils.ForbiddenRedirect(c, "You are not enrolled in this course", learning.NotEnrolledRedirect)
	case learning.IsNotFound(err):
		return utils.NotFound(c, err.Error())
	default:
		log.Error("learning request failed", zap.String("path", c.Path()), zap.Error(err))
		return utils.InternalServerError(c, "Something went wrong")
	}
}
