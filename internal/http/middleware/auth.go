package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docintake/internal/auth"
)

// UserIDLocalKey is the key under which the authenticated user id is stored in Fiber's context locals.
const UserIDLocalKey = "user_id"

// UserProvisioner creates the local profile for a newly seen identity.
type UserProvisioner interface {
	Ensure(ctx context.Context, userID string) error
}

// Auth verifies the bearer token, provisions the user and stores the user id in locals.
// Failures are returned as *fiber.Error so the global error handler renders them.
func Auth(verifier auth.Verifier, users UserProvisioner, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		userID, err := verifier.Verify(token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				log.Warn("auth_verify_failed", zap.Error(err))
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		if err := users.Ensure(c.UserContext(), userID); err != nil {
			log.Error("user_provision_failed",
				zap.String("request_id", RequestIDFrom(c)),
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return fiber.ErrInternalServerError
		}

		c.Locals(UserIDLocalKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside an Auth-guarded route.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
