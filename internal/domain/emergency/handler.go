package emergency

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/platform/auth"
)

// Handler exposes the override workflow to the emergency role.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(g *echo.Group) {
	grants := g.Group("/emergency/grants", auth.RequireRole(auth.RoleEmergency))
	grants.POST("", h.activate)
	grants.GET("", h.list)
	grants.GET("/:patientID", h.read)
	grants.DELETE("/:patientID", h.release)
}

type activateRequest struct {
	Code          string `json:"code"`
	Justification string `json:"justification"`
}

func (h *Handler) activate(c echo.Context) error {
	var req activateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	actor, _ := auth.FromContext(c.Request().Context())
	summary, err := h.svc.Activate(c.Request().Context(), actor.ID, actor.Name, req.Code, req.Justification)
	if err != nil {
		// A code that resolves to nothing is an invalid identity, not a fault.
		if errs.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "invalid identity")
		}
		return emergencyHTTPError(err)
	}
	return c.JSON(http.StatusCreated, summary)
}

func (h *Handler) read(c echo.Context) error {
	summary, err := h.svc.Read(c.Request().Context(), c.Param("patientID"))
	if err != nil {
		return emergencyHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) release(c echo.Context) error {
	if err := h.svc.Release(c.Param("patientID")); err != nil {
		return emergencyHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListGrants())
}

func emergencyHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errs.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errs.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errs.IsState(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
