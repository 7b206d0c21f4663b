package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/middleware"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type userResponse struct {
	ID            string    `json:"id"`
	SubjectID     string    `json:"subject_id"`
	WalletAddress *string   `json:"wallet_address"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toUserResponse(user User) userResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return userResponse{
		ID:            user.ID,
		SubjectID:     user.SubjectID,
		WalletAddress: user.WalletAddress,
		Roles:         roles,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// CheckUser ensures a record exists for the authenticated principal.
func (h *Handler) CheckUser(c *fiber.Ctx) error {
	subject := middleware.Subject(c)
	user, err := h.service.Resolve(c.UserContext(), subject)
	if err != nil {
		return resolveError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": toUserResponse(user)})
}

// Me returns the authenticated principal's profile with flattened roles.
func (h *Handler) Me(c *fiber.Ctx) error {
	subject := middleware.Subject(c)
	user, err := h.service.Resolve(c.UserContext(), subject)
	if err != nil {
		return resolveError(err)
	}
	return c.Status(http.StatusOK).JSON(toUserResponse(user))
}

// resolveError maps reconciliation failures to transport errors without
// leaking storage details to the caller.
func resolveError(err error) error {
	switch {
	case errors.Is(err, ErrNoSubject):
		return fiber.NewError(http.StatusUnauthorized, "unauthorized: no user session found")
	case errors.Is(err, ErrInconsistent):
		return fiber.NewError(http.StatusInternalServerError, "user profile could not be loaded")
	default:
		return fiber.NewError(http.StatusInternalServerError, "user could not be ensured in database")
	}
}
