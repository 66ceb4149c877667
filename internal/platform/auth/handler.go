package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler exposes sign-in and sign-out over HTTP.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// Register mounts the session routes. Sign-in is open; sign-out requires a
// valid token, which authMW provides.
func (h *Handler) Register(g *echo.Group, authMW echo.MiddlewareFunc) {
	g.POST("/auth/sessions", h.signIn)
	g.DELETE("/auth/sessions", h.signOut, authMW)
}

type signInRequest struct {
	Role              string `json:"role"`
	Name              string `json:"name"`
	LicenseID         string `json:"license_id"`
	PatientID         string `json:"patient_id"`
	PreferredLanguage string `json:"preferred_language"`
}

type signInResponse struct {
	Token string `json:"token"`
	Actor Actor  `json:"actor"`
}

// signIn issues a role token. There is no credential check: the deployment
// model is a trusted kiosk where the role picker is the front door, so the
// token exists to carry identity between requests, not to prove it.
func (h *Handler) signIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	role := Role(req.Role)
	if !ValidRole(role) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	actor := Actor{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Role:              role,
		LicenseID:         req.LicenseID,
		PatientID:         req.PatientID,
		PreferredLanguage: req.PreferredLanguage,
	}

	token, _, err := h.mgr.Issue(actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(http.StatusCreated, signInResponse{Token: token, Actor: actor})
}

// signOut revokes the caller's token. Subsequent requests with the same
// token are rejected until it would have expired anyway.
func (h *Handler) signOut(c echo.Context) error {
	actor, ok := FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}

	h.mgr.RevokeActor(actor)

	return c.NoContent(http.StatusNoContent)
}
