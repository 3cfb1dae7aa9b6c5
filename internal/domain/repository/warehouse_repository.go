package repository

import (
	"context"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
)

// WarehouseRepository almacén analítico de hechos (Postgres, Snowflake o Databricks).
// La idempotencia de inserción es responsabilidad del llamador (HasReport).
type WarehouseRepository interface {
	HasReport(ctx context.Context, reportID string) (bool, error)
	// InsertReport inserta las filas de hechos y el resumen diario del reporte.
	InsertReport(ctx context.Context, facts []entity.FactRow, summary entity.DailySummaryRow) error
	DeleteReport(ctx context.Context, reportID string) error
	TopWorkers(ctx context.Context, from, to time.Time, limit int) ([]entity.WorkerRanking, error)
}
