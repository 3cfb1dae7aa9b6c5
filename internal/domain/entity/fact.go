package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FactRow fila de la tabla de hechos del almacén analítico:
// una por cada terna reporte-actividad-trabajador con horas > 0.
type FactRow struct {
	ReportID         string
	Fecha            time.Time
	Bloque           string
	ActividadID      string
	Actividad        string
	Unidad           string
	TrabajadorID     string
	Trabajador       string
	Categoria        string
	Horas            decimal.Decimal
	Costo            decimal.Decimal
	MetradoAtribuido decimal.Decimal
	ValorAtribuido   decimal.Decimal
	Ganancia         decimal.Decimal
	Productividad    decimal.Decimal // metrado atribuido por hora
}

// DailySummaryRow fila de resumen diario (una por reporte).
type DailySummaryRow struct {
	ReportID          string
	Fecha             time.Time
	Bloque            string
	CreadoPor         string
	CostoTotal        decimal.Decimal
	ValorTotal        decimal.Decimal
	HorasTotales      decimal.Decimal
	Ganancia          decimal.Decimal
	TotalActividades  int
	TotalTrabajadores int
}

// WorkerRanking fila de ranking de trabajadores leída desde el almacén.
type WorkerRanking struct {
	TrabajadorID  string
	Trabajador    string
	Categoria     string
	Horas         decimal.Decimal
	Costo         decimal.Decimal
	Metrado       decimal.Decimal
	Productividad decimal.Decimal
}
