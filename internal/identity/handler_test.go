package identity

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/linkvault/linkvault/internal/auth"
	"github.com/linkvault/linkvault/internal/config"
	"github.com/linkvault/linkvault/internal/middleware"
)

const testSecret = "identity-test-secret"

func setupHandlerApp(t *testing.T) (*fiber.App, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	handler := NewHandler(NewService(store))

	app := fiber.New()
	app.Use(middleware.Auth(config.Config{AuthJWTSecret: testSecret}))
	app.Post("/auth/check-user", handler.CheckUser)
	app.Get("/user/me", handler.Me)
	return app, store
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

func TestCheckUserEnsuresRecord(t *testing.T) {
	app, store := setupHandlerApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/auth/check-user", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, "subj-1"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded struct {
		User struct {
			ID        string `json:"id"`
			SubjectID string `json:"subject_id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.User.ID != "subj-1" || decoded.User.SubjectID != "subj-1" {
		t.Fatalf("expected canonical record for subj-1, got %+v", decoded.User)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", store.Len())
	}
}

func TestMeFlattensRoles(t *testing.T) {
	app, store := setupHandlerApp(t)

	// First call creates the record; a separate authority then grants roles.
	req := httptest.NewRequest(fiber.MethodGet, "/user/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, "subj-1"))
	if _, err := app.Test(req); err != nil {
		t.Fatalf("initial resolve: %v", err)
	}
	store.SetRoles("subj-1", []string{"admin", "viewer"})

	req2 := httptest.NewRequest(fiber.MethodGet, "/user/me", nil)
	req2.Header.Set(fiber.HeaderAuthorization, bearer(t, "subj-1"))
	resp, err := app.Test(req2)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Roles) != 2 || decoded.Roles[0] != "admin" || decoded.Roles[1] != "viewer" {
		t.Fatalf("expected flattened roles [admin viewer], got %v", decoded.Roles)
	}
}

func TestMeReturnsEmptyRolesArray(t *testing.T) {
	app, _ := setupHandlerApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/user/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, "subj-1"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	roles, ok := decoded["roles"].([]any)
	if !ok {
		t.Fatalf("roles must serialize as an array, got %T", decoded["roles"])
	}
	if len(roles) != 0 {
		t.Fatalf("expected empty roles, got %v", roles)
	}
}
