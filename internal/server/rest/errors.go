package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, common.ErrorValidation):
		return fiber.StatusBadRequest, common.Detail(err, common.ErrorValidation)
	case errors.Is(err, common.ErrorAlreadyExists):
		return fiber.StatusBadRequest, common.Detail(err, common.ErrorAlreadyExists)
	case errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, "Token expired"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return fiber.StatusForbidden, "You can only modify your own listings"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable, "Request timed out"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func errorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, msg := statusFor(err)

		if code >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed",
				"method", c.Method(), "path", c.Path(), "status", code, "error", err)
		}

		return c.Status(code).JSON(ErrorResponse{
			StatusCode: code,
			Message:    msg,
			Error:      http.StatusText(code),
		})
	}
}
