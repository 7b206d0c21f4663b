package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/identity"
	"github.com/linkvault/linkvault/internal/middleware"
)

// Handler exposes wallet binding HTTP endpoints.
type Handler struct {
	users   *identity.Service
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(users *identity.Service, service *Service) *Handler {
	return &Handler{users: users, service: service}
}

type linkRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// Get returns the caller's bound wallet address, null when unset.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, err := h.resolve(c)
	if err != nil {
		return err
	}
	address, err := h.service.Get(c.UserContext(), user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_address": address})
}

// Link binds the submitted wallet address to the caller.
func (h *Handler) Link(c *fiber.Ctx) error {
	user, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	address, err := h.service.Link(c.UserContext(), user, req.WalletAddress)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyAddress):
			return fiber.NewError(http.StatusBadRequest, ErrEmptyAddress.Error())
		case errors.Is(err, ErrAddressInUse):
			return fiber.NewError(http.StatusConflict, ErrAddressInUse.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "failed to link wallet")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_address": address})
}

// Unlink clears the caller's wallet binding.
func (h *Handler) Unlink(c *fiber.Ctx) error {
	user, err := h.resolve(c)
	if err != nil {
		return err
	}
	if err := h.service.Unlink(c.UserContext(), user); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to unlink wallet")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_address": nil})
}

func (h *Handler) resolve(c *fiber.Ctx) (identity.User, error) {
	subject := middleware.Subject(c)
	user, err := h.users.Resolve(c.UserContext(), subject)
	if err != nil {
		if errors.Is(err, identity.ErrNoSubject) {
			return identity.User{}, fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		return identity.User{}, fiber.NewError(http.StatusInternalServerError, "user could not be ensured in database")
	}
	return user, nil
}
