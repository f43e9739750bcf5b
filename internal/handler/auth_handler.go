package handler

import (
	"net/http"
	"strings"

	"requirement-service/internal/middleware"
	"requirement-service/internal/service"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves the /auth endpoints
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register creates an analyst account
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req service.RegisterInput
	if err := bindBody(c, &req); err != nil {
		return err
	}
	log.Info("Registration request", zap.String("username", req.Username), zap.String("email", req.Email))

	user, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		prometheus.RecordAuthError("registration_failed")
		return respondError(c, err, "Registration failed")
	}

	prometheus.RecordAuthOperation("register")
	log.Info("User registered successfully", zap.String("user_id", user.ID))
	return c.JSON(http.StatusCreated, user)
}

// Login accepts a JSON body or an OAuth2 password form
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req loginRequest
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	} else {
		req.Username = c.FormValue("username")
		req.Password = c.FormValue("password")
	}
	log.Info("Login attempt", zap.String("username", req.Username))

	token, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err, "Login failed")
	}

	prometheus.RecordAuthOperation("login")
	log.Info("User logged in successfully", zap.String("user_id", token.User.ID))
	return c.JSON(http.StatusOK, token)
}

// Logout is stateless; the client discards its token
func (h *AuthHandler) Logout(c echo.Context) error {
	prometheus.RecordAuthOperation("logout")
	logger.FromContext(c).Info("User logged out")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, h.auth.Me(middleware.CurrentUser(c)))
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	token, err := h.auth.RefreshToken(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err, "Token refresh failed")
	}
	prometheus.RecordAuthOperation("refresh")
	return c.JSON(http.StatusOK, token)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req changePasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), middleware.CurrentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err, "Password change failed")
	}

	prometheus.RecordAuthOperation("change_password")
	log.Info("Password changed")
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
}
