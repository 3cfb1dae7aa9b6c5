package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/application/usecase"
)

// AIHandler maneja el resumen narrativo asistido por IA.
type AIHandler struct {
	uc *usecase.AIUseCase
}

// NewAIHandler construye el handler.
func NewAIHandler(uc *usecase.AIUseCase) *AIHandler {
	return &AIHandler{uc: uc}
}

// Narrative godoc
// @Summary      Resumen narrativo del periodo
// @Description  Arma el resumen del dashboard y pide al modelo un texto según tipo
//               (general, productividad, costos). Timeout interno de 10 s.
// @Tags         ia
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.NarrativeRequest  true  "vista, fecha, desde, hasta, tipo"
// @Success      200   {object}  dto.NarrativeDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Failure      504   {object}  dto.ErrorResponse
// @Router       /api/ia/resumen [post]
func (h *AIHandler) Narrative(c *fiber.Ctx) error {
	var req dto.NarrativeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Message: "cuerpo de la petición inválido",
		})
	}
	if ok, err := validateStruct(c, &req); !ok {
		return err
	}

	result, err := h.uc.GenerateNarrative(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
