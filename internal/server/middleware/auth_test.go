package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runAuth(t *testing.T, app *App, authHeader string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	cc := &AppContext{Context: c, App: app}

	if err := AuthMiddleware(next)(cc); err != nil {
		t.Fatalf("expected middleware to respond, got %v", err)
	}
	return rec
}

func TestAuthDisabledInjectsServiceUser(t *testing.T) {
	app := &App{AuthEnabled: false}

	var user *AppUser
	rec := runAuth(t, app, "", func(c echo.Context) error {
		user = c.(*AppContext).User
		return c.NoContent(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil || user.UserID != "service" || !IsAdmin(user) {
		t.Fatalf("expected service admin user, got %+v", user)
	}
	if !HasPermission(user, "document.create") {
		t.Fatal("expected service user to hold all permissions")
	}
}

func TestAuthEnabledRejectsMissingToken(t *testing.T) {
	app := &App{AuthEnabled: true}

	rec := runAuth(t, app, "", func(c echo.Context) error {
		t.Fatal("expected request to be rejected")
		return nil
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMasterAPIKeyBypass(t *testing.T) {
	app := &App{AuthEnabled: true, MasterAPIKey: "master-secret"}

	var user *AppUser
	rec := runAuth(t, app, "Bearer master-secret", func(c echo.Context) error {
		user = c.(*AppContext).User
		return c.NoContent(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil || user.UserID != "master" || !HasPermission(user, "crawl.run") {
		t.Fatalf("expected master user with permissions, got %+v", user)
	}
}

func TestRequirePermission(t *testing.T) {
	e := echo.New()

	run := func(user *AppUser) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/crawls", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		cc := &AppContext{Context: c, App: &App{}, User: user}

		handler := RequirePermission("crawl.run")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(cc); err != nil {
			t.Fatalf("expected middleware to respond, got %v", err)
		}
		return rec
	}

	if rec := run(nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing user, got %d", rec.Code)
	}
	if rec := run(&AppUser{UserID: "u", Role: "user", Permissions: []string{"document.view"}}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing permission, got %d", rec.Code)
	}
	if rec := run(&AppUser{UserID: "u", Role: "user", Permissions: []string{"crawl.run"}}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with permission, got %d", rec.Code)
	}
}
