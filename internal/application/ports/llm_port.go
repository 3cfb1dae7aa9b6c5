package ports

import "context"

// Tipos de análisis soportados por el resumen narrativo.
const (
	AnalysisGeneral       = "general"
	AnalysisProductividad = "productividad"
	AnalysisCostos        = "costos"
)

// TextGenerator define el puerto de salida hacia el proveedor de IA (Gemini, Anthropic, mock).
// El núcleo no depende de su salida para la corrección de los agregados, solo para mostrarla.
type TextGenerator interface {
	// GenerateAnalysis recibe un resumen textual de datos y el tipo de análisis
	// y devuelve texto libre. El contexto debe llevar un timeout.
	GenerateAnalysis(ctx context.Context, digest string, analysisType string) (string, error)
}
