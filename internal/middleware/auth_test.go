package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/auth"
	"github.com/linkvault/linkvault/internal/config"
)

func setupAuthApp(t *testing.T, secret string) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(Auth(config.Config{AuthJWTSecret: secret}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(Subject(c))
	})
	return app
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token, err := auth.SignHS256(map[string]any{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}, []byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthExposesVerifiedSubject(t *testing.T) {
	app := setupAuthApp(t, "secret")

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "secret", "subj-1"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRejectsMissingBearer(t *testing.T) {
	app := setupAuthApp(t, "secret")

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRejectsForgedToken(t *testing.T) {
	app := setupAuthApp(t, "secret")

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "other-secret", "subj-1"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRejectsTokenWithoutSubject(t *testing.T) {
	app := setupAuthApp(t, "secret")

	token, err := auth.SignHS256(map[string]any{"exp": time.Now().Add(time.Hour).Unix()}, []byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
