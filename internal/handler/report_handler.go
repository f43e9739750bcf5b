package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/export"
	"requirement-service/internal/service"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportHandler serves the /reports endpoints
type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Dashboard(c echo.Context) error {
	prometheus.RecordReportOperation("dashboard")
	dashboard, err := h.reports.Dashboard(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to build dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *ReportHandler) ProjectSummary(c echo.Context) error {
	prometheus.RecordReportOperation("project_summary")
	report, err := h.reports.ProjectSummary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to build project summary")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) ExportProjects(c echo.Context) error {
	prometheus.RecordReportOperation("export_projects")
	return h.export(c, "projects", "projects_report", h.reports.ExportProjects)
}

func (h *ReportHandler) ExportRequirements(c echo.Context) error {
	prometheus.RecordReportOperation("export_requirements")
	return h.export(c, "requirements", "requirements_report", h.reports.ExportRequirements)
}

type tableBuilder func(ctx context.Context, f service.ExportFilter) (*export.Table, error)

func (h *ReportHandler) export(c echo.Context, entity, prefix string, build tableBuilder) error {
	log := logger.FromContext(c)

	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return respondError(c, apperror.Validation("%v", err), "Invalid export format")
	}
	filter, err := exportFilter(c)
	if err != nil {
		return respondError(c, err, "Invalid export filter")
	}

	table, err := build(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err, "Failed to export "+entity)
	}
	data, err := h.reports.Render(table, format, entity)
	if err != nil {
		return respondError(c, err, "Failed to render "+entity+" export")
	}

	filename := export.Filename(prefix, format, time.Now().UTC())
	log.Info("Export generated",
		zap.String("entity", entity),
		zap.String("format", string(format)),
		zap.Int("rows", len(table.Rows)))

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

func exportFilter(c echo.Context) (service.ExportFilter, error) {
	f := service.ExportFilter{
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		Type:      c.QueryParam("type"),
		ProjectID: c.QueryParam("project_id"),
	}
	var err error
	if f.CreatedFrom, err = timeQuery(c, "start_date"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = timeQuery(c, "end_date"); err != nil {
		return f, err
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		return f, apperror.Validation("end_date must not be before start_date")
	}
	return f, nil
}
