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

// RequirementHandler serves the /requirements endpoints
type RequirementHandler struct {
	reqs *service.RequirementService
}

func NewRequirementHandler(reqs *service.RequirementService) *RequirementHandler {
	return &RequirementHandler{reqs: reqs}
}

func (h *RequirementHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRequirementOperation("list")

	params, err := listParams(c)
	if err != nil {
		return respondError(c, err, "Invalid pagination")
	}
	overdue, err := boolQuery(c, "is_overdue")
	if err != nil {
		return respondError(c, err, "Invalid filter")
	}

	page, err := h.reqs.List(c.Request().Context(), params, service.RequirementFilter{
		Search:     c.QueryParam("search"),
		ProjectID:  c.QueryParam("project_id"),
		Type:       c.QueryParam("type"),
		Priority:   c.QueryParam("priority"),
		Status:     c.QueryParam("status"),
		Complexity: c.QueryParam("complexity"),
		AssignedTo: c.QueryParam("assigned_to"),
		CreatedBy:  c.QueryParam("created_by"),
		IsOverdue:  overdue,
	})
	if err != nil {
		return respondError(c, err, "Failed to list requirements")
	}

	log.Info("Requirements retrieved successfully", zap.Int("count", len(page.Items)), zap.Int64("total", page.Total))
	return c.JSON(http.StatusOK, paginated("requirements", page))
}

func (h *RequirementHandler) Get(c echo.Context) error {
	prometheus.RecordRequirementOperation("get")
	req, err := h.reqs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get requirement")
	}
	return c.JSON(http.StatusOK, req)
}

func (h *RequirementHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRequirementOperation("create")

	var in service.RequirementInput
	if err := bindBody(c, &in); err != nil {
		return err
	}

	req, err := h.reqs.Create(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return respondError(c, err, "Failed to create requirement")
	}

	log.Info("Requirement created successfully",
		zap.String("requirement_id", req.ID),
		zap.String("project_id", req.ProjectID))
	return c.JSON(http.StatusCreated, req)
}

func (h *RequirementHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRequirementOperation("update")
	id := c.Param("id")

	var in service.RequirementUpdate
	if err := bindBody(c, &in); err != nil {
		return err
	}

	req, err := h.reqs.Update(c.Request().Context(), middleware.CurrentUser(c), id, in)
	if err != nil {
		return respondError(c, err, "Failed to update requirement")
	}

	log.Info("Requirement updated successfully", zap.String("requirement_id", id))
	return c.JSON(http.StatusOK, req)
}

func (h *RequirementHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRequirementOperation("delete")
	id := c.Param("id")

	if err := h.reqs.Delete(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err, "Failed to delete requirement")
	}

	log.Info("Requirement deleted successfully", zap.String("requirement_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "requirement deleted successfully"})
}

func (h *RequirementHandler) Assign(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRequirementOperation("assign")
	id, userID := c.Param("id"), c.Param("user_id")

	req, err := h.reqs.Assign(c.Request().Context(), id, userID)
	if err != nil {
		return respondError(c, err, "Failed to assign requirement")
	}

	log.Info("Requirement assigned", zap.String("requirement_id", id), zap.String("assigned_to", userID))
	return c.JSON(http.StatusOK, req)
}

func (h *RequirementHandler) Complete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRequirementOperation("complete")
	id := c.Param("id")

	req, err := h.reqs.Complete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to complete requirement")
	}

	log.Info("Requirement completed", zap.String("requirement_id", id))
	return c.JSON(http.StatusOK, req)
}
