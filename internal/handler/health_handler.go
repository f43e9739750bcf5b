package handler

import (
	"net/http"

	"requirement-service/pkg/database"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "requirement-service"

// HealthHandler reports liveness, and database reachability with ?check=db
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	if c.QueryParam("check") != "db" {
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"service": serviceName,
		})
	}

	if err := database.Ping(h.db); err != nil {
		logger.FromContext(c).Error("Database health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "unhealthy",
			"service":  serviceName,
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "healthy",
		"service":  serviceName,
		"database": "ok",
	})
}

// Root is the API greeting
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Requirement tracking API",
		"docs":    "/api/v1",
	})
}

// MetricsHandler exposes the Prometheus registry
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
