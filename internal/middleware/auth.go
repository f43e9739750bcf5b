package middleware

import (
	"context"
	"net/http"
	"strings"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
	"requirement-service/internal/policy"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userKey = "user"

// Authenticator resolves a bearer token to the acting user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// JWTAuthMiddleware rejects requests without a valid bearer token for an active user.
// Every failure is answered with the same 401 body.
func JWTAuthMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_token")
				return unauthorized(c)
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("malformed_header")
				return unauthorized(c)
			}

			user, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				if apperror.Is(err, apperror.KindInternal) {
					log.Error("Failed to authenticate request", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": apperror.PublicMessage(err)})
				}
				log.Warn("Invalid or expired token", zap.Error(err))
				return unauthorized(c)
			}

			c.Set(userKey, user)
			logger.WithLogger(c, log.With(zap.String("user_id", user.ID)))
			log.Debug("Bearer token validated", zap.String("user_id", user.ID), zap.String("username", user.Username))

			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
}

// CurrentUser returns the user stored by JWTAuthMiddleware, nil on public routes
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userKey).(*model.User)
	return user
}

// RequirePermission admits the current user only when the policy allows op
func RequirePermission(op policy.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if err := policy.Authorize(user, op); err != nil {
				prometheus.RecordPermissionDenied(string(op))
				required, _ := policy.Required(op)
				logger.FromContext(c).Warn("Permission denied",
					zap.String("operation", string(op)),
					zap.Strings("required_any", required))
				return c.JSON(http.StatusForbidden, echo.Map{"error": apperror.PublicMessage(err)})
			}
			return next(c)
		}
	}
}
