// Package production contiene los servicios de dominio del parte diario:
// tarifas por categoría, consolidación de horas y costos, claves de periodo
// y la proyección a filas de hechos para el almacén analítico.
package production

import (
	"strings"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Tarifa horaria por categoría de mano de obra (fija, no configurable).
var categoryRates = map[string]decimal.Decimal{
	entity.CategoryOperario: decimal.RequireFromString("23.00"),
	entity.CategoryOficial:  decimal.RequireFromString("18.20"),
	entity.CategoryPeon:     decimal.RequireFromString("16.40"),
}

// NormalizeCategory lleva la categoría a su forma canónica (mayúsculas, sin tildes).
func NormalizeCategory(categoria string) string {
	return strings.ToUpper(foldAccents(strings.TrimSpace(categoria)))
}

// CategoryRate devuelve la tarifa horaria de la categoría.
// Una categoría desconocida resuelve a cero; nunca se inventa una tarifa.
func CategoryRate(categoria string) decimal.Decimal {
	if rate, ok := categoryRates[NormalizeCategory(categoria)]; ok {
		return rate
	}
	return decimal.Zero
}

// CategoryBucket sufijo de campo usado en los resúmenes por categoría
// (horasOperario, costoPeon, horasOtros...).
func CategoryBucket(categoria string) string {
	switch NormalizeCategory(categoria) {
	case entity.CategoryOperario:
		return "Operario"
	case entity.CategoryOficial:
		return "Oficial"
	case entity.CategoryPeon:
		return "Peon"
	default:
		return "Otros"
	}
}
