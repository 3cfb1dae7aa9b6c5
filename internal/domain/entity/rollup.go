package entity

import "time"

// Colecciones del almacén documental.
const (
	CollectionReports         = "Reports"
	SubcollectionActivities   = "activities"
	SubcollectionLabor        = "mano_obra"
	CollectionDashboard       = "Dashboard_Resumenes"
	CollectionActivitySummary = "Actividades_Resumen"
	CollectionWorkerSummary   = "Trabajadores_Resumen"
	CollectionReportLinks     = "Reportes_Links"
)

// RollupCollections colecciones que solo modifica el escritor de agregados.
func RollupCollections() []string {
	return []string{CollectionDashboard, CollectionActivitySummary, CollectionWorkerSummary, CollectionReportLinks}
}

// ActivitiesPath ruta compuesta de la subcolección de actividades de un reporte.
func ActivitiesPath(reportID string) string {
	return CollectionReports + "/" + reportID + "/" + SubcollectionActivities
}

// LaborPath ruta compuesta de la subcolección de mano de obra de un reporte.
func LaborPath(reportID string) string {
	return CollectionReports + "/" + reportID + "/" + SubcollectionLabor
}

// Granularidades de los buckets de periodo.
const (
	GranularityDaily   = "diario"
	GranularityWeekly  = "semanal"
	GranularityMonthly = "mensual"
)

// Granularities orden canónico de escritura.
func Granularities() []string {
	return []string{GranularityDaily, GranularityWeekly, GranularityMonthly}
}

// Buckets dentro de los resúmenes de actividad y trabajador.
const (
	BucketAccumulated = "acumulado"
	BucketPeriods     = "periodos"
)

// GeneralSummaryID id del documento Dashboard_Resumenes para una granularidad y periodo.
func GeneralSummaryID(granularity, periodKey string) string {
	return granularity + "_" + periodKey
}

// ReportLink índice liviano de reportes (Reportes_Links/{reportId}).
type ReportLink struct {
	ReportID     string    `json:"report_id"`
	CreadoPor    string    `json:"creado_por"`
	Fecha        string    `json:"fecha"`
	Bloque       string    `json:"bloque"`
	CostoTotal   float64   `json:"costo_total"`
	ValorTotal   float64   `json:"valor_total"`
	HorasTotales float64   `json:"horas_totales"`
	Ganancia     float64   `json:"ganancia"`
	ExportURL    string    `json:"export_url,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
