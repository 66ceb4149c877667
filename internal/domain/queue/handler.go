package queue

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/platform/auth"
)

// Handler exposes the session queue over HTTP. Admin dispatches, doctors
// work their own queue.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/sessions", h.create, auth.RequireRole(auth.RoleAdmin))
	g.GET("/sessions", h.list, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	g.PUT("/sessions/:id/status", h.updateStatus, auth.RequireRole(auth.RoleDoctor))
}

type createSessionRequest struct {
	PatientID     string `json:"patient_id"`
	ClinicianName string `json:"clinician_name"`
}

func (h *Handler) create(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := h.svc.CreateSession(c.Request().Context(), req.PatientID, req.ClinicianName)
	if err != nil {
		return queueHTTPError(err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// list returns the caller's queue. A doctor always sees their own queue;
// admin may ask for any clinician's via ?clinician= or everything when the
// filter is absent.
func (h *Handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	actor, _ := auth.FromContext(ctx)

	clinician := c.QueryParam("clinician")
	if actor.Role == auth.RoleDoctor {
		clinician = actor.Name
	}

	status := Status(c.QueryParam("status"))
	if status != "" && !ValidStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown session status")
	}

	if clinician == "" {
		sessions, err := h.svc.ListSessions(ctx)
		if err != nil {
			return queueHTTPError(err)
		}
		return c.JSON(http.StatusOK, sessions)
	}

	sessions, err := h.svc.FindSessionsForClinician(ctx, clinician, status)
	if err != nil {
		return queueHTTPError(err)
	}
	return c.JSON(http.StatusOK, sessions)
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) updateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.UpdateSessionStatus(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		return queueHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func queueHTTPError(err error) error {
	switch {
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
