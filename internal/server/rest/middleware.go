package rest

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "user"

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireUser resolves the bearer token to a user and stores it in Locals.
// Any failure rejects the request with 401.
func requireUser(users UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(common.AuthorizationHeaderName))
		if !ok {
			return common.ErrorUnauthorized
		}

		user, err := users.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	u, ok := c.Locals(userLocalKey).(*models.User)
	if !ok || u == nil {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

// accessLog writes one line per request after the handler chain ran.
func accessLog(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid, _ := c.Locals("requestid").(string)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusFor(err)
		}
		logger.Info(c.UserContext(), "http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
			"request_id", rid,
		)
		return err
	}
}
