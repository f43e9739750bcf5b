package handler

import (
	"net/http"

	"requirement-service/internal/middleware"
	"requirement-service/internal/service"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProjectHandler serves the /projects endpoints
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type logoRequest struct {
	LogoURL string `json:"logo_url"`
}

func (h *ProjectHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("list")

	params, err := listParams(c)
	if err != nil {
		return respondError(c, err, "Invalid pagination")
	}
	isActive, err := boolQuery(c, "is_active")
	if err != nil {
		return respondError(c, err, "Invalid filter")
	}

	page, err := h.projects.List(c.Request().Context(), params, service.ProjectFilter{
		Search:     c.QueryParam("search"),
		Status:     c.QueryParam("status"),
		Priority:   c.QueryParam("priority"),
		ClientName: c.QueryParam("client_name"),
		CreatedBy:  c.QueryParam("created_by"),
		IsActive:   isActive,
	})
	if err != nil {
		return respondError(c, err, "Failed to list projects")
	}

	log.Info("Projects retrieved successfully", zap.Int("count", len(page.Items)), zap.Int64("total", page.Total))
	return c.JSON(http.StatusOK, paginated("projects", page))
}

func (h *ProjectHandler) Get(c echo.Context) error {
	prometheus.RecordProjectOperation("get")
	project, err := h.projects.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get project")
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("create")

	var req service.ProjectInput
	if err := bindBody(c, &req); err != nil {
		return err
	}

	project, err := h.projects.Create(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, err, "Failed to create project")
	}

	log.Info("Project created successfully", zap.String("project_id", project.ID), zap.String("name", project.Name))
	return c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("update")
	id := c.Param("id")

	var req service.ProjectUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	project, err := h.projects.Update(c.Request().Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update project")
	}

	log.Info("Project updated successfully", zap.String("project_id", id))
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("delete")
	id := c.Param("id")

	if err := h.projects.Delete(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err, "Failed to delete project")
	}

	log.Info("Project deleted successfully", zap.String("project_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted successfully"})
}

func (h *ProjectHandler) Activate(c echo.Context) error {
	prometheus.RecordProjectOperation("activate")
	project, err := h.projects.Activate(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to activate project")
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Deactivate(c echo.Context) error {
	prometheus.RecordProjectOperation("deactivate")
	project, err := h.projects.Deactivate(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to deactivate project")
	}
	return c.JSON(http.StatusOK, project)
}

// Requirements lists the requirements of one project
func (h *ProjectHandler) Requirements(c echo.Context) error {
	prometheus.RecordProjectOperation("requirements")
	reqs, err := h.projects.Requirements(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to list project requirements")
	}
	return c.JSON(http.StatusOK, reqs)
}

// SetLogo stores a logo URL previously returned by the upload endpoint
func (h *ProjectHandler) SetLogo(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("set_logo")
	id := c.Param("id")

	var req logoRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	project, err := h.projects.SetLogo(c.Request().Context(), middleware.CurrentUser(c), id, req.LogoURL)
	if err != nil {
		return respondError(c, err, "Failed to set project logo")
	}

	log.Info("Project logo updated", zap.String("project_id", id), zap.String("logo_url", req.LogoURL))
	return c.JSON(http.StatusOK, project)
}
