package registry

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/platform/auth"
	"github.com/lifestack/lifestack/pkg/pagination"
)

// ConsentOverride reports whether an active emergency grant currently
// bypasses the pharmacy-consent gate for a patient.
type ConsentOverride interface {
	HasActiveGrant(patientID string) bool
}

// Handler exposes the record store over HTTP with per-role route guards.
type Handler struct {
	svc      *Service
	override ConsentOverride
}

func NewHandler(svc *Service, override ConsentOverride) *Handler {
	return &Handler{svc: svc, override: override}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/patients", h.enroll, auth.RequireRole(auth.RoleAdmin))
	g.GET("/patients", h.list, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	g.GET("/patients/:id", h.get, auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	g.PUT("/patients/:id", h.update, auth.RequireRole(auth.RoleAdmin))
	g.POST("/patients/:id/consent", h.toggleConsent, auth.RequireRole(auth.RolePatient))
	g.POST("/patients/:id/prescriptions", h.prescribe, auth.RequireRole(auth.RoleDoctor))

	g.GET("/patients/:id/pharmacy", h.pharmacyView, auth.RequireRole(auth.RolePharmacist))
	g.POST("/patients/:id/prescriptions/:rx/dispense", h.dispense, auth.RequireRole(auth.RolePharmacist))
	g.POST("/patients/:id/access-requests", h.requestAccess, auth.RequireRole(auth.RolePharmacist))

	g.POST("/scan", h.scan, auth.RequireRole(auth.RoleDoctor, auth.RolePharmacist, auth.RoleEmergency))
}

func (h *Handler) enroll(c echo.Context) error {
	var draft Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.EnrollPatient(c.Request().Context(), draft)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) list(c echo.Context) error {
	patients, err := h.svc.SearchPatients(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return domainHTTPError(err)
	}

	params := pagination.FromContext(c)
	start, end := params.Slice(len(patients))
	return c.JSON(http.StatusOK, pagination.NewResponse(patients[start:end], len(patients), params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id := c.Param("id")

	actor, _ := auth.FromContext(c.Request().Context())
	if actor.Role == auth.RolePatient && actor.PatientID != id {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only read their own record")
	}

	p, err := h.svc.FindPatientByID(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// update is the whole-record replace. The body must carry the full
// next-state value; the path id wins over any id in the body.
func (h *Handler) update(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.ID = c.Param("id")

	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, &p)
}

func (h *Handler) toggleConsent(c echo.Context) error {
	id := c.Param("id")

	actor, _ := auth.FromContext(c.Request().Context())
	if actor.Role == auth.RolePatient && actor.PatientID != id {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only manage their own consent")
	}

	allowed, err := h.svc.TogglePharmacyConsent(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_pharmacy_access_allowed": allowed})
}

func (h *Handler) prescribe(c echo.Context) error {
	var rx Prescription
	if err := c.Bind(&rx); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if rx.UploadedBy == "" {
		rx.UploadedBy = actor.Name
	}
	if rx.AuthorLicense == "" {
		rx.AuthorLicense = actor.LicenseID
	}

	created, err := h.svc.AppendPrescription(c.Request().Context(), c.Param("id"), rx)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// pharmacyView is the pharmacist's read. Consent false is a hard block
// unless an emergency grant is active for the patient.
func (h *Handler) pharmacyView(c echo.Context) error {
	p, err := h.svc.FindPatientByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	if err := h.checkConsent(p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) dispense(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	p, err := h.svc.FindPatientByID(ctx, id)
	if err != nil {
		return domainHTTPError(err)
	}
	if err := h.checkConsent(p); err != nil {
		return err
	}

	if err := h.svc.DispensePrescription(ctx, id, c.Param("rx")); err != nil {
		return domainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// requestAccess is the consent-blocked pharmacist's "ask the patient"
// affordance. It acknowledges the request and does nothing else; there is
// no notify protocol behind it.
func (h *Handler) requestAccess(c echo.Context) error {
	if _, err := h.svc.FindPatientByID(c.Request().Context(), c.Param("id")); err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "pending"})
}

type scanRequest struct {
	Code string `json:"code"`
}

// scan resolves a scanned identity code to a patient. A miss is an invalid
// identity, reported as 404.
func (h *Handler) scan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	p, err := h.svc.ResolveScan(c.Request().Context(), req.Code)
	if err != nil {
		if errs.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "invalid identity")
		}
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) checkConsent(p *Patient) error {
	if p.IsPharmacyAccessAllowed {
		return nil
	}
	if h.override != nil && h.override.HasActiveGrant(p.ID) {
		return nil
	}
	return echo.NewHTTPError(http.StatusForbidden, "pharmacy access not allowed by patient")
}

// domainHTTPError maps the domain error taxonomy onto HTTP status codes.
func domainHTTPError(err error) error {
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
