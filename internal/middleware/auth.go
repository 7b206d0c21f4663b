package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/auth"
	"github.com/linkvault/linkvault/internal/config"
)

const subjectLocal = "subject_id"

// Auth validates the external provider's bearer token and exposes the
// verified subject identifier to downstream handlers. Session establishment
// and credential checks belong to the provider; only the signed assertion
// crosses this boundary.
func Auth(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.AuthJWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		subject := auth.Subject(claims)
		if subject == "" {
			return fiber.NewError(http.StatusUnauthorized, "token carries no subject")
		}

		c.Locals(subjectLocal, subject)
		return c.Next()
	}
}

// Subject returns the verified subject identifier set by Auth, or "" when
// the request was not authenticated.
func Subject(c *fiber.Ctx) string {
	subject, _ := c.Locals(subjectLocal).(string)
	return subject
}
