package entity

import "github.com/shopspring/decimal"

// Activity partida ejecutada en el día (subcolección Reports/{id}/activities).
type Activity struct {
	ID                string          `json:"id"`
	Orden             int             `json:"orden"`
	Proceso           string          `json:"proceso"`
	Unidad            string          `json:"unidad"`
	Ubicacion         string          `json:"ubicacion,omitempty"`
	MetradoProgramado decimal.Decimal `json:"metrado_programado"`
	MetradoEjecutado  decimal.Decimal `json:"metrado_ejecutado"`
	PrecioUnitario    decimal.Decimal `json:"precio_unitario"`
	Valor             decimal.Decimal `json:"valor"` // MetradoEjecutado × PrecioUnitario
	Causas            string          `json:"causas,omitempty"`
	Comentarios       string          `json:"comentarios,omitempty"`
}

// RecalculateValue actualiza Valor a partir del metrado ejecutado y el precio unitario.
func (a *Activity) RecalculateValue() {
	a.Valor = a.MetradoEjecutado.Mul(a.PrecioUnitario)
}
