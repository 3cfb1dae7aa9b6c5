package entity

import "github.com/shopspring/decimal"

// Categorías de mano de obra con tarifa conocida.
const (
	CategoryOperario = "OPERARIO"
	CategoryOficial  = "OFICIAL"
	CategoryPeon     = "PEON"
)

// LaborEntry trabajador del parte (subcolección Reports/{id}/mano_obra).
//
// Horas es posicional: Horas[i] son las horas dedicadas a la actividad con
// índice i (orden ascendente de Orden). Se conserva en disco por compatibilidad.
type LaborEntry struct {
	ID            string            `json:"id"`
	Orden         int               `json:"orden"`
	Nombre        string            `json:"nombre"`
	DNI           string            `json:"dni,omitempty"`
	Categoria     string            `json:"categoria"`
	Horas         []decimal.Decimal `json:"horas"`
	TotalHoras    decimal.Decimal   `json:"total_horas"`
	Costo         decimal.Decimal   `json:"costo"`
	Observaciones string            `json:"observaciones,omitempty"`
}

// SumHours devuelve la suma del arreglo de horas.
func (l *LaborEntry) SumHours() decimal.Decimal {
	total := decimal.Zero
	for _, h := range l.Horas {
		total = total.Add(h)
	}
	return total
}
