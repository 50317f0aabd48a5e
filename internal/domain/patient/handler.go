package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pm/patient-service/internal/platform/auth"
	"github.com/pm/patient-service/internal/platform/billing"
	"github.com/pm/patient-service/internal/platform/events"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)

	// Update and delete are privileged operations.
	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.PUT("/patients/:id", h.UpdatePatient)
	adminGroup.DELETE("/patients/:id", h.DeletePatient)
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	responses := make([]*Response, 0, len(patients))
	for _, p := range patients {
		responses = append(responses, p.ToResponse())
	}
	return c.JSON(http.StatusOK, responses)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p.ToResponse())
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	exists, err := h.svc.ExistsByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p.ToResponse())
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	exists, err := h.svc.ExistsByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// httpError maps each failure kind of the orchestrator to a status code.
// Billing and publish failures report 502: the record store committed, a
// downstream collaborator did not, and the caller must treat the create as
// "uncertain" rather than cleanly failed.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrEmailExists):
		return echo.NewHTTPError(http.StatusConflict, ErrEmailExists.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrInvalidDateOfBirth), errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrStoreUnavailable.Error())
	case errors.Is(err, billing.ErrBillingRejected),
		errors.Is(err, billing.ErrBillingUnavailable),
		errors.Is(err, events.ErrPublishFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
