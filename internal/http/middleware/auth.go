package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/auth"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const (
	// ActorLocalKey is the key under which the authenticated actor is stored
	// in Fiber's context locals.
	ActorLocalKey = "actor"
)

// Authenticate verifies the Bearer access token and resolves the caller's
// role, storing a model.Actor in context locals for downstream handlers.
// The role is read from the database on every request so a role change
// takes effect without waiting for the access token to expire.
func Authenticate(sessions *auth.SessionManager, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := sessions.VerifyAccess(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrSessionExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		uwr, err := users.FindByIDWithRole(c.UserContext(), claims.Subject)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
		}

		c.Locals(ActorLocalKey, model.Actor{ID: uwr.ID, Role: uwr.Role})
		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by Authenticate. The zero Actor is
// returned when the middleware did not run on this route.
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(ActorLocalKey).(model.Actor)
	return actor
}
