package epic

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chartmerge/chartmerge/internal/platform/auth"
)

type Handler struct {
	parser *Parser
}

func NewHandler(parser *Parser) *Handler {
	return &Handler{parser: parser}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/ingest/epic", h.IngestExport)
}

type ingestRequest struct {
	ExportDir    string `json:"export_dir"`
	PatientID    string `json:"patient_id"`
	SourceFileID string `json:"source_file_id"`
	BatchSize    int    `json:"batch_size"`
}

func (h *Handler) IngestExport(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ExportDir == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "export_dir is required")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}

	opts := Options{
		AccountID: auth.AccountIDFromContext(c.Request().Context()),
		PatientID: patientID,
		BatchSize: req.BatchSize,
	}
	if req.SourceFileID != "" {
		id, err := uuid.Parse(req.SourceFileID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid source_file_id")
		}
		opts.SourceFileID = &id
	}

	stats, err := h.parser.ParseExport(c.Request().Context(), req.ExportDir, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
