package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/identity"
)

// RegisterUserRoutes wires identity reconciliation endpoints.
func RegisterUserRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/auth/check-user", h.CheckUser)
	r.Get("/user/me", h.Me)
}
