package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/application/dto"
)

// DashboardHandler maneja los endpoints del dashboard de producción.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve totales, actividades, trabajadores y costo por categoría del periodo.
// GET /api/dashboard/resumen?vista=mensual&fecha=2025-01-15
//
// vista=personalizado exige desde y hasta. Sin vista se usa el mes de fecha (por defecto hoy).
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	var q dto.DashboardQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	if ok, err := validateStruct(c, &q); !ok {
		return err
	}
	summary, err := h.uc.GetSummary(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetWorkerRanking ranking de trabajadores del periodo.
// GET /api/dashboard/ranking-trabajadores?criterio=productividad&limite=10
func (h *DashboardHandler) GetWorkerRanking(c *fiber.Ctx) error {
	var q dto.WorkerRankingQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	if ok, err := validateStruct(c, &q); !ok {
		return err
	}
	out, err := h.uc.GetWorkerRanking(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
