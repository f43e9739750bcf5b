package handler

import (
	"net/http"

	"requirement-service/internal/service"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DynamicFieldHandler serves the /dynamic-fields endpoints
type DynamicFieldHandler struct {
	fields *service.DynamicFieldService
}

func NewDynamicFieldHandler(fields *service.DynamicFieldService) *DynamicFieldHandler {
	return &DynamicFieldHandler{fields: fields}
}

func (h *DynamicFieldHandler) List(c echo.Context) error {
	prometheus.RecordDynamicFieldOperation("list")

	isActive, err := boolQuery(c, "is_active")
	if err != nil {
		return respondError(c, err, "Invalid filter")
	}
	defs, err := h.fields.List(c.Request().Context(), service.DynamicFieldFilter{
		AppliesTo: c.QueryParam("applies_to"),
		IsActive:  isActive,
	})
	if err != nil {
		return respondError(c, err, "Failed to list dynamic fields")
	}
	return c.JSON(http.StatusOK, defs)
}

func (h *DynamicFieldHandler) Get(c echo.Context) error {
	prometheus.RecordDynamicFieldOperation("get")
	def, err := h.fields.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get dynamic field")
	}
	return c.JSON(http.StatusOK, def)
}

func (h *DynamicFieldHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDynamicFieldOperation("create")

	var req service.DynamicFieldInput
	if err := bindBody(c, &req); err != nil {
		return err
	}

	def, err := h.fields.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create dynamic field")
	}

	log.Info("Dynamic field created",
		zap.String("field_id", def.ID),
		zap.String("field_name", def.FieldName),
		zap.String("applies_to", def.AppliesTo))
	return c.JSON(http.StatusCreated, def)
}

func (h *DynamicFieldHandler) Update(c echo.Context) error {
	prometheus.RecordDynamicFieldOperation("update")

	var req service.DynamicFieldUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	def, err := h.fields.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return respondError(c, err, "Failed to update dynamic field")
	}
	return c.JSON(http.StatusOK, def)
}

func (h *DynamicFieldHandler) Delete(c echo.Context) error {
	prometheus.RecordDynamicFieldOperation("delete")
	if err := h.fields.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "Failed to delete dynamic field")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "dynamic field deleted successfully"})
}

func (h *DynamicFieldHandler) Activate(c echo.Context) error {
	prometheus.RecordDynamicFieldOperation("activate")
	def, err := h.fields.Activate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to activate dynamic field")
	}
	return c.JSON(http.StatusOK, def)
}

func (h *DynamicFieldHandler) Deactivate(c echo.Context) error {
	prometheus.RecordDynamicFieldOperation("deactivate")
	def, err := h.fields.Deactivate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to deactivate dynamic field")
	}
	return c.JSON(http.StatusOK, def)
}

// InitializeDefaults seeds the starter definitions on an empty store
func (h *DynamicFieldHandler) InitializeDefaults(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDynamicFieldOperation("initialize_defaults")

	defs, err := h.fields.InitializeDefaults(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to initialize dynamic fields")
	}

	log.Info("Default dynamic fields created", zap.Int("count", len(defs)))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "default dynamic fields created",
		"fields":  defs,
	})
}
