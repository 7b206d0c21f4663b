package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/wallet"
)

// RegisterWalletRoutes wires wallet binding endpoints. The guards apply only
// to the bind operation; reads and unconditional clears stay cheap.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, linkGuards ...fiber.Handler) {
	r.Get("/wallet", h.Get)
	r.Post("/wallet", append(linkGuards, h.Link)...)
	r.Delete("/wallet", h.Unlink)
}
