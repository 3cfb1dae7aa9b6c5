package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
)

// ── Alta de reportes ──────────────────────────────────────────────────────────

// CreateReportRequest cuerpo de POST /api/reportes.
// Las horas de cada trabajador son posicionales: HorasPorActividad[i] corresponde
// a Actividades[i] en el orden enviado.
// Los máximos suman aggregation.MaxReportRows: el aporte cabe en un solo lote.
type CreateReportRequest struct {
	Fecha       string          `json:"fecha" validate:"required,datetime=2006-01-02"`
	Bloque      string          `json:"bloque" validate:"required,max=120"`
	Actividades []ActivityInput `json:"actividades" validate:"required,min=1,max=200,dive"`
	ManoObra    []LaborInput    `json:"mano_obra" validate:"max=294,dive"`
}

// ActivityInput partida ejecutada.
type ActivityInput struct {
	Proceso           string          `json:"proceso" validate:"required,max=200"`
	Unidad            string          `json:"unidad" validate:"required,max=20"`
	Ubicacion         string          `json:"ubicacion" validate:"max=200"`
	MetradoProgramado decimal.Decimal `json:"metrado_programado" validate:"gte=0"`
	MetradoEjecutado  decimal.Decimal `json:"metrado_ejecutado" validate:"gte=0"`
	PrecioUnitario    decimal.Decimal `json:"precio_unitario" validate:"gte=0"`
	Causas            string          `json:"causas"`
	Comentarios       string          `json:"comentarios"`
}

// LaborInput trabajador del parte.
type LaborInput struct {
	Nombre            string            `json:"nombre" validate:"required,max=200"`
	DNI               string            `json:"dni" validate:"omitempty,alphanum,max=20"`
	Categoria         string            `json:"categoria" validate:"required,max=40"`
	HorasPorActividad []decimal.Decimal `json:"horas" validate:"dive,gte=0"`
	Observaciones     string            `json:"observaciones"`
}

// ReportCreatedDTO respuesta 202 del alta: el procesamiento continúa en segundo plano.
type ReportCreatedDTO struct {
	ID     string `json:"id"`
	Estado string `json:"estado"`
}

// ── Consulta ──────────────────────────────────────────────────────────────────

// ReportDetailDTO documento del reporte con sus subcolecciones.
type ReportDetailDTO struct {
	Report      *entity.Report      `json:"reporte"`
	Actividades []entity.Activity   `json:"actividades"`
	ManoObra    []entity.LaborEntry `json:"mano_obra"`
}

// ReportLinkListDTO página del índice Reportes_Links.
type ReportLinkListDTO struct {
	Items []entity.ReportLink `json:"items"`
	Page  PageResponse        `json:"page"`
}

// ProcessResultDTO resultado de una ejecución síncrona del pipeline.
type ProcessResultDTO struct {
	ID      string `json:"id"`
	Estado  string `json:"estado"`
	Omitido bool   `json:"omitido"`
}

// WarehouseExportDTO resultado de POST /api/reportes/:id/almacen.
type WarehouseExportDTO struct {
	ID        string `json:"id"`
	Insertado bool   `json:"insertado"` // false si ya existían filas (guardia de duplicados)
}

// ── Rectificación ─────────────────────────────────────────────────────────────

// RectifyRequest cuerpo de POST /api/reportes/:id/rectificar.
// Reagregar ausente equivale a true.
type RectifyRequest struct {
	Actividades []ActivityEditInput `json:"actividades" validate:"dive"`
	ManoObra    []LaborEditInput    `json:"mano_obra" validate:"dive"`
	Nota        string              `json:"nota" validate:"max=500"`
	Reagregar   *bool               `json:"reagregar"`
}

// ActivityEditInput nuevo metrado ejecutado.
type ActivityEditInput struct {
	ID               string          `json:"id" validate:"required"`
	MetradoEjecutado decimal.Decimal `json:"metrado_ejecutado" validate:"gte=0"`
}

// LaborEditInput nuevo arreglo de horas.
type LaborEditInput struct {
	ID    string            `json:"id" validate:"required"`
	Horas []decimal.Decimal `json:"horas" validate:"required,dive,gte=0"`
}

// ShouldReaggregate resuelve el valor por defecto de Reagregar.
func (r *RectifyRequest) ShouldReaggregate() bool {
	return r.Reagregar == nil || *r.Reagregar
}
