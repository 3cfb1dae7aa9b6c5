package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/application/usecase"
	"github.com/jhoicas/obra-dashboard/pkg/jwt"
)

// Grupos de roles por tipo de operación.
var (
	RolesLectura     = []string{jwt.RoleAdmin, jwt.RoleResidente, jwt.RoleCapataz, jwt.RoleLector}
	RolesEscritura   = []string{jwt.RoleAdmin, jwt.RoleResidente, jwt.RoleCapataz}
	RolesSupervision = []string{jwt.RoleAdmin, jwt.RoleResidente}
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReportUC    *usecase.ReportUseCase
	DashboardUC *appanalytics.DashboardUseCase
	AnalyticsUC *usecase.AnalyticsUseCase
	AIUC        *usecase.AIUseCase
	JWTSecret   string
	ExportsDir  string // vacío = los PDF se sirven desde S3
	ExportsPath string // ruta pública de ExportsDir, por defecto /exports
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.ExportsDir != "" {
		path := deps.ExportsPath
		if path == "" {
			path = "/exports"
		}
		app.Static(path, deps.ExportsDir)
	}

	// Todas las rutas de /api requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	read := RequireRole(RolesLectura...)

	reports := api.Group("/reportes")
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/", read, reportHandler.List)
	reports.Post("/", RequireRole(RolesEscritura...), reportHandler.Create)
	reports.Get("/:id", read, reportHandler.Get)
	supervise := RequireRole(RolesSupervision...)
	reports.Delete("/:id", supervise, reportHandler.Delete)
	reports.Post("/:id/regenerar", supervise, reportHandler.Regenerate)
	reports.Post("/:id/rectificar", supervise, reportHandler.Rectify)
	reports.Post("/:id/almacen", supervise, reportHandler.ExportFacts)

	dashboard := api.Group("/dashboard", read)
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/resumen", dashboardHandler.GetSummary)
	dashboard.Get("/ranking-trabajadores", dashboardHandler.GetWorkerRanking)

	analitica := api.Group("/analitica", read)
	analitica.Get("/top-trabajadores", NewAnalyticsHandler(deps.AnalyticsUC).GetTopWorkers)

	ia := api.Group("/ia", read)
	ia.Post("/resumen", NewAIHandler(deps.AIUC).Narrative)
}
