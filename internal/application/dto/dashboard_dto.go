package dto

import "github.com/shopspring/decimal"

// DashboardQuery parámetros comunes de las vistas del dashboard.
//
//	vista=diario|semanal|mensual → fecha (por defecto hoy) elige el periodo
//	vista=personalizado          → desde/hasta obligatorios (máx. 366 días)
type DashboardQuery struct {
	Vista string `query:"vista" json:"vista" validate:"omitempty,oneof=diario semanal mensual personalizado"`
	Fecha string `query:"fecha" json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Desde string `query:"desde" json:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta string `query:"hasta" json:"hasta" validate:"omitempty,datetime=2006-01-02"`
}

// PeriodDTO rango efectivamente consultado.
type PeriodDTO struct {
	Vista    string `json:"vista"`
	Desde    string `json:"desde"`
	Hasta    string `json:"hasta"`
	Clave    string `json:"clave,omitempty"` // clave del periodo (2025-W03, 2025-01); vacía en personalizado
	Etiqueta string `json:"etiqueta"`        // ej: "Enero 2025"
}

// GeneralTotalsDTO totales del periodo (Dashboard_Resumenes).
type GeneralTotalsDTO struct {
	CostoTotal        decimal.Decimal `json:"costo_total"`
	ValorTotal        decimal.Decimal `json:"valor_total"`
	Ganancia          decimal.Decimal `json:"ganancia"`
	HorasTotales      decimal.Decimal `json:"horas_totales"`
	TotalReportes     int             `json:"total_reportes"`
	TotalTrabajadores int             `json:"total_trabajadores"`
	CostoHora         decimal.Decimal `json:"costo_hora"`
}

// ActivitySummaryDTO fila de actividad reconciliada.
type ActivitySummaryDTO struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	Unidad        string          `json:"unidad"`
	Metrado       decimal.Decimal `json:"metrado"`
	Horas         decimal.Decimal `json:"horas"`
	CostoMO       decimal.Decimal `json:"costo_mo"`
	Valor         decimal.Decimal `json:"valor"`
	Ganancia      decimal.Decimal `json:"ganancia"`
	Productividad decimal.Decimal `json:"productividad"` // metrado por hora
	CostoUnitario decimal.Decimal `json:"costo_unitario"` // costo de mano de obra por unidad
}

// WorkerSummaryDTO fila de trabajador reconciliada.
type WorkerSummaryDTO struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	DNI           string          `json:"dni,omitempty"`
	Categoria     string          `json:"categoria"`
	Horas         decimal.Decimal `json:"horas"`
	Costo         decimal.Decimal `json:"costo"`
	Metrado       decimal.Decimal `json:"metrado"`
	Valor         decimal.Decimal `json:"valor"`
	Reportes      int             `json:"reportes"`
	Productividad decimal.Decimal `json:"productividad"`
	CostoHora     decimal.Decimal `json:"costo_hora"`
}

// CategoryCostDTO horas y costo de mano de obra por categoría.
type CategoryCostDTO struct {
	Categoria string          `json:"categoria"`
	Horas     decimal.Decimal `json:"horas"`
	Costo     decimal.Decimal `json:"costo"`
}

// DashboardSummaryDTO respuesta de GET /api/dashboard/resumen.
type DashboardSummaryDTO struct {
	Periodo           PeriodDTO            `json:"periodo"`
	Fuente            string               `json:"fuente"` // diario | semanal | mensual (bucket leído)
	Totales           GeneralTotalsDTO     `json:"totales"`
	Actividades       []ActivitySummaryDTO `json:"actividades"`
	Trabajadores      []WorkerSummaryDTO   `json:"trabajadores"`
	CostoPorCategoria []CategoryCostDTO    `json:"costo_por_categoria"`
}

// WorkerRankingQuery parámetros de GET /api/dashboard/ranking-trabajadores.
type WorkerRankingQuery struct {
	Vista    string `query:"vista" validate:"omitempty,oneof=diario semanal mensual personalizado"`
	Fecha    string `query:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Desde    string `query:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta    string `query:"hasta" validate:"omitempty,datetime=2006-01-02"`
	Criterio string `query:"criterio" validate:"omitempty,oneof=productividad horas costo"`
	Limite   int    `query:"limite" validate:"omitempty,min=1,max=100"`
}

// Range parámetros de periodo del ranking.
func (q WorkerRankingQuery) Range() DashboardQuery {
	return DashboardQuery{Vista: q.Vista, Fecha: q.Fecha, Desde: q.Desde, Hasta: q.Hasta}
}

// RankedWorkerDTO posición de un trabajador en el ranking.
type RankedWorkerDTO struct {
	Rank int `json:"rank"`
	WorkerSummaryDTO
}

// WorkerRankingDTO respuesta del ranking.
type WorkerRankingDTO struct {
	Periodo      PeriodDTO         `json:"periodo"`
	Criterio     string            `json:"criterio"`
	Trabajadores []RankedWorkerDTO `json:"trabajadores"`
}
