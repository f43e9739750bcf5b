// Package handler holds the echo handlers of the HTTP API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/service"
	"requirement-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var bodyBinder = &echo.DefaultBinder{}

// bindBody decodes the request body only, so path params never leak into payloads
func bindBody(c echo.Context, v any) error {
	if err := bodyBinder.BindBody(c, v); err != nil {
		logger.FromContext(c).Warn("Invalid request body", zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid request body"})
	}
	return nil
}

// respondError writes the status and public message for err
func respondError(c echo.Context, err error, message string) error {
	log := logger.FromContext(c)
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		log.Error(message, zap.Error(err))
	} else {
		log.Warn(message, zap.String("kind", kind.String()), zap.Error(err))
	}
	return c.JSON(kind.HTTPStatus(), echo.Map{"error": apperror.PublicMessage(err)})
}

func listParams(c echo.Context) (service.ListParams, error) {
	var p service.ListParams
	var err error
	if p.Skip, err = intQuery(c, "skip"); err != nil {
		return p, err
	}
	if p.Limit, err = intQuery(c, "limit"); err != nil {
		return p, err
	}
	return p.Normalize(), nil
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("%s must be an integer", name)
	}
	return n, nil
}

func boolQuery(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be true or false", name)
	}
	return &b, nil
}

// timeQuery accepts RFC3339 timestamps or plain dates
func timeQuery(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.Validation("%s must be a date (YYYY-MM-DD) or RFC3339 timestamp", name)
}

func paginated[T any](key string, page *service.Page[T]) echo.Map {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return echo.Map{
		key: items,
		"pagination": echo.Map{
			"skip":  page.Skip,
			"limit": page.Limit,
			"total": page.Total,
		},
	}
}
