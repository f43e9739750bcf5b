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

// UserHandler serves the /users endpoints
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("list")

	params, err := listParams(c)
	if err != nil {
		return respondError(c, err, "Invalid pagination")
	}
	isActive, err := boolQuery(c, "is_active")
	if err != nil {
		return respondError(c, err, "Invalid filter")
	}

	page, err := h.users.List(c.Request().Context(), params, service.UserFilter{
		Search:   c.QueryParam("search"),
		Role:     c.QueryParam("role"),
		IsActive: isActive,
	})
	if err != nil {
		return respondError(c, err, "Failed to list users")
	}

	log.Info("Users retrieved successfully", zap.Int("count", len(page.Items)), zap.Int64("total", page.Total))
	return c.JSON(http.StatusOK, paginated("users", page))
}

func (h *UserHandler) Get(c echo.Context) error {
	prometheus.RecordUserOperation("get")
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("create")

	var req service.UserInput
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create user")
	}

	log.Info("User created successfully", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("update")
	id := c.Param("id")

	var req service.UserUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update user")
	}

	log.Info("User updated successfully", zap.String("user_id", id))
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("delete")
	id := c.Param("id")

	if err := h.users.Delete(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err, "Failed to delete user")
	}

	log.Info("User deleted successfully", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}

func (h *UserHandler) Activate(c echo.Context) error {
	prometheus.RecordUserOperation("activate")
	user, err := h.users.Activate(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to activate user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	prometheus.RecordUserOperation("deactivate")
	user, err := h.users.Deactivate(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to deactivate user")
	}
	return c.JSON(http.StatusOK, user)
}
