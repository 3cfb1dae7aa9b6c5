package dto

import "github.com/shopspring/decimal"

// TopWorkersRequest parámetros de GET /api/analitica/top-trabajadores.
type TopWorkersRequest struct {
	Desde  string `query:"desde" validate:"omitempty,datetime=2006-01-02"` // por defecto primer día del mes actual
	Hasta  string `query:"hasta" validate:"omitempty,datetime=2006-01-02"` // por defecto hoy
	Limite int    `query:"limite" validate:"omitempty,min=1,max=200"`      // default 10
}

// TopWorkerDTO fila del ranking leída de la tabla de hechos.
type TopWorkerDTO struct {
	Rank          int             `json:"rank"`
	TrabajadorID  string          `json:"trabajador_id"`
	Trabajador    string          `json:"trabajador"`
	Categoria     string          `json:"categoria"`
	Horas         decimal.Decimal `json:"horas"`
	Costo         decimal.Decimal `json:"costo"`
	Metrado       decimal.Decimal `json:"metrado"`
	Productividad decimal.Decimal `json:"productividad"`
}

// TopWorkersDTO respuesta completa.
type TopWorkersDTO struct {
	Desde        string         `json:"desde"`
	Hasta        string         `json:"hasta"`
	Trabajadores []TopWorkerDTO `json:"trabajadores"`
}
