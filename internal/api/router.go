// Package api wires the HTTP surface: routes, middleware, and the mapping
// from domain errors to HTTP responses.
package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/api/handler"
	"github.com/atlasconseil/opsboard/internal/api/middleware"
	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
	"github.com/atlasconseil/opsboard/internal/core/service"
	"github.com/atlasconseil/opsboard/internal/infrastructure/config"
	"github.com/atlasconseil/opsboard/internal/infrastructure/db/sqlite"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *sql.DB, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("opsboard"))

	// --- Dependencies ---
	authRepo := sqlite.NewAuthRepository(db)
	refRepo := sqlite.NewReferentialRepository(db)
	tsRepo := sqlite.NewTimesheetRepository(db)
	viewRepo := sqlite.NewViewRepository(db)
	dedup := sqlite.NewBatchDedup(db)
	seeder := sqlite.NewSeeder(db, cfg.DemoAdminPassword, cfg.DemoUserPassword, cfg.BcryptCost)

	authService := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.BcryptCost, log)
	refService := service.NewReferentialService(refRepo, seeder, log)
	tsService := service.NewTimesheetService(tsRepo, refRepo, authRepo, dedup, cfg.DayHours, log)
	viewService := service.NewViewService(viewRepo, refRepo, service.ViewConfig{
		DayHours:           cfg.DayHours,
		DefaultGranularity: ports.Granularity(cfg.DefaultView),
	}, log)
	kpiService := service.NewKPIService(viewRepo, refRepo, cfg.DayHours, log)

	authHandler := handler.NewAuthHandler(authService)
	refHandler := handler.NewReferentialHandler(refService)
	tsHandler := handler.NewTimesheetHandler(tsService, cfg.CSVEncoding)
	viewHandler := handler.NewViewHandler(viewService)
	kpiHandler := handler.NewKPIHandler(kpiService)

	auth := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	anyRole := middleware.RBAC(domain.RoleAdmin, domain.RoleBoard, domain.RoleLead, domain.RoleConsultant)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)

	// --- User administration (admin only) ---
	users := e.Group("/users", auth, adminOnly)
	users.POST("", authHandler.CreateUser)
	users.GET("", authHandler.ListUsers)
	users.DELETE("/:id", authHandler.DeactivateUser)

	// --- Referential ---
	clients := e.Group("/clients", auth)
	clients.GET("", refHandler.ListClients, middleware.RBAC(domain.RoleAdmin, domain.RoleBoard))
	clients.POST("", refHandler.CreateClient, adminOnly)

	missions := e.Group("/missions", auth)
	missions.GET("", refHandler.ListMissions, anyRole)
	missions.POST("", refHandler.CreateMission, adminOnly)
	missions.PUT("/:id", refHandler.UpdateMission, adminOnly)
	missions.PUT("/:id/lead", refHandler.SetLead, adminOnly)
	missions.POST("/:id/assignments", refHandler.Assign, adminOnly)

	// --- CRA ---
	cra := e.Group("/cra", auth, anyRole)
	cra.POST("/entries", tsHandler.LogTime)
	cra.GET("/entries", tsHandler.ListEntries)
	cra.DELETE("/entries/:id", tsHandler.DeleteEntry)
	cra.POST("/import", tsHandler.ImportCSV)
	cra.GET("/export", tsHandler.ExportCSV)
	cra.PUT("/capacity", tsHandler.SetCapacityOverride, middleware.RBAC(domain.RoleAdmin, domain.RoleLead))

	// --- Views and KPI surface ---
	e.GET("/views/:kind", viewHandler.BuildView, auth, anyRole)

	kpi := e.Group("/kpi", auth, anyRole)
	kpi.POST("/run", kpiHandler.Run)
	kpi.GET("/catalog", kpiHandler.Catalog)

	// --- Admin ---
	e.POST("/admin/reset-demo", refHandler.ResetDemo, auth, adminOnly)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – is the database up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
