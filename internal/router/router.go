// Package router assembles the echo server: global middleware, services and the /api/v1 routes.
package router

import (
	"fmt"
	"path/filepath"

	"requirement-service/internal/handler"
	"requirement-service/internal/middleware"
	"requirement-service/internal/policy"
	"requirement-service/internal/service"
	"requirement-service/internal/storage"
	"requirement-service/pkg/config"
	"requirement-service/pkg/jwtutil"
	"requirement-service/pkg/logger"
	"requirement-service/pkg/password"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services is the set of domain services behind the API
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Projects      *service.ProjectService
	Requirements  *service.RequirementService
	DynamicFields *service.DynamicFieldService
	Reports       *service.ReportService
	Uploads       *service.UploadService
}

// NewServices builds every service from cfg. Logos live under <upload dir>/logos.
func NewServices(cfg *config.Config, db *gorm.DB) (*Services, error) {
	store, err := storage.NewLocalStore(filepath.Join(cfg.Upload.Dir, "logos"))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	users := service.NewUserService(db, password.NewHasher(cfg.Security.BcryptCost))
	return &Services{
		Auth:          service.NewAuthService(db, users, password.NewHasher(cfg.Security.BcryptCost), jwtutil.New(cfg.JWT)),
		Users:         users,
		Projects:      service.NewProjectService(db),
		Requirements:  service.NewRequirementService(db),
		DynamicFields: service.NewDynamicFieldService(db),
		Reports:       service.NewReportService(db),
		Uploads:       service.NewUploadService(store, cfg.Upload.MaxLogoSize),
	}, nil
}

// New returns an echo instance with all routes registered
func New(cfg *config.Config, db *gorm.DB, svc *Services, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes
	health := handler.NewHealthHandler(db)
	e.GET("/", handler.Root)
	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	api := e.Group("/api/v1")
	authn := middleware.JWTAuthMiddleware(svc.Auth)
	can := middleware.RequirePermission

	authH := handler.NewAuthHandler(svc.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout, authn)
	auth.GET("/me", authH.Me, authn)
	auth.POST("/refresh-token", authH.RefreshToken, authn)
	auth.POST("/change-password", authH.ChangePassword, authn)

	// Everything below requires a bearer token
	userH := handler.NewUserHandler(svc.Users)
	users := api.Group("/users", authn)
	users.GET("", userH.List, can(policy.UserList))
	users.POST("", userH.Create, can(policy.UserCreate))
	users.GET("/:id", userH.Get, can(policy.UserGet))
	users.PUT("/:id", userH.Update, can(policy.UserUpdate))
	users.DELETE("/:id", userH.Delete, can(policy.UserDelete))
	users.POST("/:id/activate", userH.Activate, can(policy.UserActivate))
	users.POST("/:id/deactivate", userH.Deactivate, can(policy.UserDeactivate))

	projectH := handler.NewProjectHandler(svc.Projects)
	projects := api.Group("/projects", authn)
	projects.GET("", projectH.List, can(policy.ProjectList))
	projects.POST("", projectH.Create, can(policy.ProjectCreate))
	projects.GET("/:id", projectH.Get, can(policy.ProjectGet))
	projects.PUT("/:id", projectH.Update, can(policy.ProjectUpdate))
	projects.DELETE("/:id", projectH.Delete, can(policy.ProjectDelete))
	projects.GET("/:id/requirements", projectH.Requirements, can(policy.ProjectRequirements))
	projects.POST("/:id/activate", projectH.Activate, can(policy.ProjectActivate))
	projects.POST("/:id/deactivate", projectH.Deactivate, can(policy.ProjectDeactivate))
	projects.PUT("/:id/logo", projectH.SetLogo, can(policy.ProjectUpdate))

	reqH := handler.NewRequirementHandler(svc.Requirements)
	reqs := api.Group("/requirements", authn)
	reqs.GET("", reqH.List, can(policy.RequirementList))
	reqs.POST("", reqH.Create, can(policy.RequirementCreate))
	reqs.GET("/:id", reqH.Get, can(policy.RequirementGet))
	reqs.PUT("/:id", reqH.Update, can(policy.RequirementUpdate))
	reqs.DELETE("/:id", reqH.Delete, can(policy.RequirementDelete))
	reqs.POST("/:id/assign/:user_id", reqH.Assign, can(policy.RequirementAssign))
	reqs.POST("/:id/complete", reqH.Complete, can(policy.RequirementComplete))

	fieldH := handler.NewDynamicFieldHandler(svc.DynamicFields)
	fields := api.Group("/dynamic-fields", authn)
	fields.GET("", fieldH.List, can(policy.DynamicFieldList))
	fields.POST("", fieldH.Create, can(policy.DynamicFieldCreate))
	fields.POST("/initialize-defaults", fieldH.InitializeDefaults, can(policy.DynamicFieldInitialize))
	fields.GET("/:id", fieldH.Get, can(policy.DynamicFieldGet))
	fields.PUT("/:id", fieldH.Update, can(policy.DynamicFieldUpdate))
	fields.DELETE("/:id", fieldH.Delete, can(policy.DynamicFieldDelete))
	fields.POST("/:id/activate", fieldH.Activate, can(policy.DynamicFieldActivate))
	fields.POST("/:id/deactivate", fieldH.Deactivate, can(policy.DynamicFieldDeactivate))

	reportH := handler.NewReportHandler(svc.Reports)
	reports := api.Group("/reports", authn)
	reports.GET("/dashboard", reportH.Dashboard, can(policy.ReportDashboard))
	reports.GET("/project/:id/summary", reportH.ProjectSummary, can(policy.ReportProjectSummary))
	reports.GET("/projects/export", reportH.ExportProjects, can(policy.ReportExport))
	reports.GET("/requirements/export", reportH.ExportRequirements, can(policy.ReportExport))

	uploadH := handler.NewUploadHandler(svc.Uploads)
	uploads := api.Group("/upload", authn)
	uploads.POST("/logo", uploadH.UploadLogo, can(policy.UploadLogoWrite))
	uploads.GET("/logo", uploadH.ListLogos, can(policy.UploadLogoRead))
	uploads.GET("/logo/:filename", uploadH.GetLogo, can(policy.UploadLogoRead))
	uploads.DELETE("/logo/:filename", uploadH.DeleteLogo, can(policy.UploadLogoWrite))

	return e
}
