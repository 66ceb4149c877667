package simplify

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/domain/registry"
	"github.com/lifestack/lifestack/internal/platform/auth"
)

// PatientSource provides the record a prescription is read from; the
// registry service satisfies it.
type PatientSource interface {
	FindPatientByID(ctx context.Context, id string) (*registry.Patient, error)
}

// Handler exposes prescription simplification. The handler reads content
// out of the store and hands it to the boundary client; the store never
// calls the external service itself.
type Handler struct {
	client   *Client
	patients PatientSource
}

func NewHandler(client *Client, patients PatientSource) *Handler {
	return &Handler{client: client, patients: patients}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/simplify", h.simplify, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
}

type request struct {
	PatientID      string `json:"patient_id"`
	PrescriptionID string `json:"prescription_id"`
	TargetLanguage string `json:"target_language"`
}

type response struct {
	Simplified string `json:"simplified"`
}

func (h *Handler) simplify(c echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	actor, _ := auth.FromContext(ctx)
	if actor.Role == auth.RolePatient && actor.PatientID != req.PatientID {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only simplify their own prescriptions")
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = actor.PreferredLanguage
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = "English"
	}

	p, err := h.patients.FindPatientByID(ctx, req.PatientID)
	if err != nil {
		if errs.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	i := p.FindPrescription(req.PrescriptionID)
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	rx := p.Prescriptions[i]
	if rx.IsScribble {
		return echo.NewHTTPError(http.StatusBadRequest, "handwritten prescriptions cannot be simplified as text")
	}

	return c.JSON(http.StatusOK, response{
		Simplified: h.client.Simplify(ctx, rx.Content, req.TargetLanguage),
	})
}
