package record

import (
	"errors"
	"net/http"
	"strconv"

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
	api.GET("/records", h.ListRecords)
	api.GET("/records/search", h.SearchRecords)
	api.GET("/records/:id", h.GetRecord)
	api.DELETE("/records/:id", h.DeleteRecord)
}

func (h *Handler) ListRecords(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	f := ListFilter{
		RecordType: c.QueryParam("record_type"),
		Search:     c.QueryParam("search"),
	}
	resp, err := h.svc.List(c.Request().Context(), accountID, f, pg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) SearchRecords(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.svc.Search(c.Request().Context(), accountID, c.QueryParam("q"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if items == nil {
		items = []*HealthRecord{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

func (h *Handler) GetRecord(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), accountID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), accountID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
