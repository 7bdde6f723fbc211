package dedup

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chartmerge/chartmerge/internal/platform/auth"
	"github.com/chartmerge/chartmerge/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:patient_id/dedup", h.DetectDuplicates)
	api.GET("/dedup/candidates", h.ListCandidates)
}

func (h *Handler) DetectDuplicates(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}

	found, err := h.svc.Detect(c.Request().Context(), accountID, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"candidates_found": found})
}

func (h *Handler) ListCandidates(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())
	resp, err := h.svc.ListCandidates(c.Request().Context(), accountID, pagination.FromContext(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
