package wallet

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/auth"
	"github.com/linkvault/linkvault/internal/config"
	"github.com/linkvault/linkvault/internal/identity"
	"github.com/linkvault/linkvault/internal/middleware"
)

const testSecret = "handler-test-secret"

func setupHandlerApp(t *testing.T) *fiber.App {
	t.Helper()
	store := identity.NewMemoryStore()
	ids := identity.NewService(store)
	handler := NewHandler(ids, NewService(store, nil))

	app := fiber.New()
	app.Use(middleware.Auth(config.Config{AuthJWTSecret: testSecret}))
	app.Get("/wallet", handler.Get)
	app.Post("/wallet", handler.Link)
	app.Delete("/wallet", handler.Unlink)
	return app
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := auth.SignHS256(map[string]any{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}, []byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, subject, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/wallet", reader)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, subject))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(payload)
}

func decodeBody(t *testing.T, raw string) map[string]any {
	t.Helper()
	decoded := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return decoded
}

func TestWalletEndpointsLifecycle(t *testing.T) {
	app := setupHandlerApp(t)

	status, raw := doJSON(t, app, fiber.MethodGet, "subj-a", "")
	if status != fiber.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	if body := decodeBody(t, raw); body["wallet_address"] != nil {
		t.Fatalf("expected null wallet before linking, got %v", body["wallet_address"])
	}

	status, raw = doJSON(t, app, fiber.MethodPost, "subj-a", `{"wallet_address":" W1 "}`)
	if status != fiber.StatusOK {
		t.Fatalf("link: expected 200, got %d", status)
	}
	if body := decodeBody(t, raw); body["wallet_address"] != "W1" {
		t.Fatalf("expected trimmed W1, got %v", body["wallet_address"])
	}

	status, _ = doJSON(t, app, fiber.MethodDelete, "subj-a", "")
	if status != fiber.StatusOK {
		t.Fatalf("unlink: expected 200, got %d", status)
	}

	status, raw = doJSON(t, app, fiber.MethodGet, "subj-a", "")
	if status != fiber.StatusOK {
		t.Fatalf("get after unlink: expected 200, got %d", status)
	}
	if body := decodeBody(t, raw); body["wallet_address"] != nil {
		t.Fatalf("expected null wallet after unlink, got %v", body["wallet_address"])
	}
}

func TestWalletLinkValidationStatus(t *testing.T) {
	app := setupHandlerApp(t)

	status, _ := doJSON(t, app, fiber.MethodPost, "subj-a", `{"wallet_address":"   "}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for blank address, got %d", status)
	}
}

func TestWalletLinkConflictStatus(t *testing.T) {
	app := setupHandlerApp(t)

	status, _ := doJSON(t, app, fiber.MethodPost, "subj-a", `{"wallet_address":"W1"}`)
	if status != fiber.StatusOK {
		t.Fatalf("first link: expected 200, got %d", status)
	}

	status, raw := doJSON(t, app, fiber.MethodPost, "subj-b", `{"wallet_address":"W1"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for owned address, got %d", status)
	}
	if strings.Contains(raw, "subj-a") {
		t.Fatalf("conflict response must not leak the owner, got %q", raw)
	}
}

func TestWalletRequiresAuthentication(t *testing.T) {
	app := setupHandlerApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/wallet", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
