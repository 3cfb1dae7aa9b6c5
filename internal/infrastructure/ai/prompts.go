package ai

import (
	"strings"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
)

const basePrompt = `Eres un ingeniero residente de obra que redacta informes breves para la gerencia.
Recibirás un resumen numérico del dashboard de producción (costos en soles, horas hombre, metrados).
Responde en español, en texto plano (sin markdown ni viñetas con asteriscos), en 3 a 5 oraciones.
No inventes cifras: usa solo las del resumen. Si un dato falta, no lo menciones.`

var focusPrompts = map[string]string{
	ports.AnalysisGeneral:       "Enfoque: estado general del periodo, ganancia y actividades de mayor valor.",
	ports.AnalysisProductividad: "Enfoque: productividad (metrado por hora) de actividades y trabajadores; señala los más y menos productivos.",
	ports.AnalysisCostos:        "Enfoque: costo de mano de obra por categoría y costo por hora; señala dónde se concentra el gasto.",
}

// SystemPrompt prompt del sistema para un tipo de análisis; los tipos
// desconocidos usan el enfoque general.
func SystemPrompt(analysisType string) string {
	focus, ok := focusPrompts[analysisType]
	if !ok {
		focus = focusPrompts[ports.AnalysisGeneral]
	}
	return basePrompt + "\n" + focus
}

// cleanText quita cercas de código y asteriscos de énfasis que algunos modelos
// añaden aunque se pida texto plano.
func cleanText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.Index(text, "\n"); nl != -1 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	text = strings.ReplaceAll(text, "**", "")
	return strings.TrimSpace(text)
}
