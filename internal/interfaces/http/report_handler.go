package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/application/usecase"
)

// ReportHandler endpoints del parte diario.
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar parte diario
// @Description  Guarda el reporte en estado PENDING y dispara la agregación en segundo plano.
// @Tags         reportes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReportRequest  true  "Actividades y mano de obra del día"
// @Success      202   {object}  dto.ReportCreatedDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reportes [post]
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReportRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if ok, err := validateStruct(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// List godoc
// @Summary      Listar reportes (índice Reportes_Links)
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "default 20, máx. 100"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.ReportLinkListDTO
// @Router       /api/reportes [get]
func (h *ReportHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	page.DefaultPage()
	if ok, err := validateStruct(c, &page); !ok {
		return err
	}
	out, err := h.uc.ListLinks(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener reporte con actividades y mano de obra
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del reporte"
// @Success      200  {object}  dto.ReportDetailDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reportes/{id} [get]
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar reporte
// @Description  Revierte su aporte a los resúmenes, borra su índice y sus filas del almacén.
// @Tags         reportes
// @Security     Bearer
// @Param        id   path  string  true  "ID del reporte"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reportes/{id} [delete]
func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Regenerate godoc
// @Summary      Reprocesar reporte
// @Description  Ejecuta el pipeline de forma síncrona. force=true recupera un reporte trabado en PROCESSING.
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del reporte"
// @Param        force  query  bool    false  "forzar desde PROCESSING"
// @Success      200  {object}  dto.ProcessResultDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reportes/{id}/regenerar [post]
func (h *ReportHandler) Regenerate(c *fiber.Ctx) error {
	out, err := h.uc.Reprocess(c.UserContext(), c.Params("id"), c.QueryBool("force"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Rectify godoc
// @Summary      Rectificar reporte procesado
// @Description  Revierte el aporte anterior, aplica la edición y vuelve a agregar (reagregar=false solo edita).
// @Tags         reportes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del reporte"
// @Param        body  body  dto.RectifyRequest  true  "Cambios"
// @Success      200  {object}  entity.Report
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reportes/{id}/rectificar [post]
func (h *ReportHandler) Rectify(c *fiber.Ctx) error {
	var in dto.RectifyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if ok, err := validateStruct(c, &in); !ok {
		return err
	}
	out, err := h.uc.Rectify(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ExportFacts godoc
// @Summary      Reintentar exportación al almacén de hechos
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del reporte"
// @Success      200  {object}  dto.WarehouseExportDTO
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reportes/{id}/almacen [post]
func (h *ReportHandler) ExportFacts(c *fiber.Ctx) error {
	out, err := h.uc.ExportFacts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
