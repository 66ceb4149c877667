package emergency

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lifestack/lifestack/internal/platform/auth"
)

func newHandlerServer(t *testing.T, svc *Service) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := c.Request().Header.Get("X-Role")
			if role != "" {
				actor := auth.Actor{ID: "u-test", Name: "Medic One", Role: auth.Role(role)}
				c.SetRequest(c.Request().WithContext(auth.WithActor(c.Request().Context(), actor)))
			}
			return next(c)
		}
	})
	NewHandler(svc).Register(e.Group(""))
	return e
}

func do(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestActivateEndpoint(t *testing.T) {
	svc, _ := newTestEmergency(t)
	e := newHandlerServer(t, svc)

	body := `{"code":"P-1002","justification":"unconscious patient"}`
	rec := do(e, http.MethodPost, "/emergency/grants", body, map[string]string{"X-Role": "emergency"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActivateRequiresEmergencyRole(t *testing.T) {
	svc, _ := newTestEmergency(t)
	e := newHandlerServer(t, svc)

	body := `{"code":"P-1002","justification":"x"}`
	rec := do(e, http.MethodPost, "/emergency/grants", body, map[string]string{"X-Role": "doctor"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for doctor, got %d", rec.Code)
	}
}

func TestActivateInvalidIdentity(t *testing.T) {
	svc, _ := newTestEmergency(t)
	e := newHandlerServer(t, svc)

	body := `{"code":"P-404","justification":"x"}`
	rec := do(e, http.MethodPost, "/emergency/grants", body, map[string]string{"X-Role": "emergency"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid identity") {
		t.Errorf("expected invalid identity message, got %s", rec.Body.String())
	}
}

func TestActivateRateLimited(t *testing.T) {
	svc, _ := newTestEmergency(t)
	e := newHandlerServer(t, svc)

	body := `{"code":"P-1002","justification":"x"}`
	headers := map[string]string{"X-Role": "emergency"}

	var last *httptest.ResponseRecorder
	for i := 0; i <= maxActivationsPerHour; i++ {
		last = do(e, http.MethodPost, "/emergency/grants", body, headers)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 past the hourly cap, got %d", last.Code)
	}
}

func TestReleaseEndpoint(t *testing.T) {
	svc, _ := newTestEmergency(t)
	e := newHandlerServer(t, svc)
	headers := map[string]string{"X-Role": "emergency"}

	do(e, http.MethodPost, "/emergency/grants", `{"code":"P-1002","justification":"x"}`, headers)

	if rec := do(e, http.MethodDelete, "/emergency/grants/P-1002", "", headers); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/emergency/grants/P-1002", "", headers); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after release, got %d", rec.Code)
	}
}
