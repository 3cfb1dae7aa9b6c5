package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/application/usecase"
)

// AnalyticsHandler endpoints que leen el almacén de hechos.
type AnalyticsHandler struct {
	uc *usecase.AnalyticsUseCase
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(uc *usecase.AnalyticsUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

// GetTopWorkers godoc
// @Summary      Top de trabajadores por productividad (almacén de hechos)
// @Tags         analitica
// @Security     Bearer
// @Produce      json
// @Param        desde   query  string  false  "Inicio (YYYY-MM-DD). Default: primer día del mes."
// @Param        hasta   query  string  false  "Fin inclusive (YYYY-MM-DD). Default: hoy."
// @Param        limite  query  int     false  "default 10, máx. 200"
// @Success      200  {object}  dto.TopWorkersDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/analitica/top-trabajadores [get]
func (h *AnalyticsHandler) GetTopWorkers(c *fiber.Ctx) error {
	var req dto.TopWorkersRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos",
		})
	}
	if ok, err := validateStruct(c, &req); !ok {
		return err
	}
	out, err := h.uc.TopWorkers(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
