package entity

import "time"

// Estados del ciclo de vida de un reporte diario.
const (
	ReportStatusPending            = "PENDING"
	ReportStatusProcessing         = "PROCESSING"
	ReportStatusCompleted          = "COMPLETED"
	ReportStatusPartialError       = "PARTIAL_ERROR"
	ReportStatusCriticalError      = "CRITICAL_ERROR"
	ReportStatusRectifying         = "RECTIFYING"
	ReportStatusRectified          = "RECTIFIED"
	ReportStatusRectificationError = "RECTIFICATION_ERROR"
)

// Fases persistidas de una rectificación en curso.
const (
	RectificationPhaseReversed = "REVERSED"
	RectificationPhaseEdited   = "EDITED"
)

// Nombres de campos del documento Reports usados en escrituras parciales.
const (
	FieldEstado            = "estado"
	FieldErrorMensaje      = "errorMensaje"
	FieldExportID          = "exportId"
	FieldExportURL         = "exportUrl"
	FieldPasosExportOK     = "pasos.exportOK"
	FieldPasosExportError  = "pasos.exportError"
	FieldPasosDashboardOK  = "pasos.dashboardOK"
	FieldPasosDashboardErr = "pasos.dashboardError"
	FieldPasosAlmacenError = "pasos.almacenError"
	FieldAlmacenIngestado  = "almacenIngestado"
	FieldRectFase          = "rectificacionFase"
	FieldRectNota          = "rectificacionNota"
	FieldRectificadoEn     = "rectificadoEn"
	FieldUpdatedAt         = "updatedAt"
	FieldCreatedAt         = "createdAt"
)

// ReportSteps registra el resultado de cada paso del pipeline de ingesta.
type ReportSteps struct {
	ExportOK       bool   `json:"export_ok"`
	ExportError    string `json:"export_error,omitempty"`
	DashboardOK    bool   `json:"dashboard_ok"`
	DashboardError string `json:"dashboard_error,omitempty"`
	AlmacenError   string `json:"almacen_error,omitempty"`
}

// Report parte diario de producción (documento raíz de Reports).
// Las actividades y la mano de obra viven en subcolecciones.
type Report struct {
	ID                string      `json:"id"`
	Fecha             string      `json:"fecha"` // YYYY-MM-DD
	CreadoPor         string      `json:"creado_por"`
	Bloque            string      `json:"bloque"`
	Estado            string      `json:"estado"`
	ExportID          string      `json:"export_id,omitempty"`
	ExportURL         string      `json:"export_url,omitempty"`
	Pasos             ReportSteps `json:"pasos"`
	AlmacenIngestado  bool        `json:"almacen_ingestado"`
	ErrorMensaje      string      `json:"error_mensaje,omitempty"`
	RectificacionFase string      `json:"rectificacion_fase,omitempty"`
	RectificacionNota string      `json:"rectificacion_nota,omitempty"`
	RectificadoEn     *time.Time  `json:"rectificado_en,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// CanStartProcessing indica si el estado admite una (re)ejecución del pipeline.
func (r *Report) CanStartProcessing() bool {
	return IsProcessable(r.Estado)
}

// IsProcessable estados desde los que el trigger puede pasar a PROCESSING.
func IsProcessable(estado string) bool {
	switch estado {
	case "", ReportStatusPending, ReportStatusPartialError, ReportStatusCriticalError:
		return true
	}
	return false
}

// ProcessableStates lista explícita para el compare-and-set del trigger.
func ProcessableStates() []string {
	return []string{"", ReportStatusPending, ReportStatusPartialError, ReportStatusCriticalError}
}

// RectifiableStates estados desde los que una rectificación puede tomar el
// reporte. PROCESSING y RECTIFYING quedan fuera: hay otro proceso en curso.
// Un RECTIFYING abandonado se retoma con ClaimStaleRectification.
func RectifiableStates() []string {
	return []string{
		ReportStatusCompleted, ReportStatusPartialError, ReportStatusCriticalError,
		ReportStatusRectified, ReportStatusRectificationError,
	}
}
