package aggregation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

// FactExporter exporta los hechos crudos de un reporte al almacén analítico.
// La inserción es idempotente por id de reporte: si ya existen filas, no hace nada.
type FactExporter struct {
	reports   repository.ReportRepository
	warehouse repository.WarehouseRepository
	log       *logger.Logger
}

// NewFactExporter construye el exportador.
func NewFactExporter(reports repository.ReportRepository, warehouse repository.WarehouseRepository, log *logger.Logger) *FactExporter {
	return &FactExporter{reports: reports, warehouse: warehouse, log: log}
}

// Export inserta filas de hechos y resumen diario. Devuelve false si el
// reporte ya estaba en el almacén. En ambos casos deja almacenIngestado en true.
func (e *FactExporter) Export(ctx context.Context, report *entity.Report, activities []entity.Activity, labor []entity.LaborEntry) (bool, error) {
	exists, err := e.warehouse.HasReport(ctx, report.ID)
	if err != nil {
		return false, fmt.Errorf("almacén: verificar %s: %w", report.ID, err)
	}
	if exists {
		e.log.Info().Str("report_id", report.ID).Msg("almacén: reporte ya ingestado, se omite")
		return false, e.markIngested(ctx, report.ID)
	}

	facts, summary, err := production.BuildFactRows(report, activities, labor)
	if err != nil {
		return false, fmt.Errorf("almacén: filas de %s: %w", report.ID, err)
	}
	if err := e.warehouse.InsertReport(ctx, facts, summary); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			e.log.Info().Str("report_id", report.ID).Msg("almacén: otro proceso insertó el reporte")
			return false, e.markIngested(ctx, report.ID)
		}
		return false, fmt.Errorf("almacén: insertar %s: %w", report.ID, err)
	}
	e.log.Info().Str("report_id", report.ID).Int("filas", len(facts)).Msg("almacén: hechos insertados")
	return true, e.markIngested(ctx, report.ID)
}

// ExportByID carga el reporte con sus subcolecciones y lo exporta.
func (e *FactExporter) ExportByID(ctx context.Context, reportID string) (bool, error) {
	report, err := e.reports.GetByID(ctx, reportID)
	if err != nil {
		return false, err
	}
	acts, err := e.reports.ListActivities(ctx, reportID)
	if err != nil {
		return false, err
	}
	labor, err := e.reports.ListLabor(ctx, reportID)
	if err != nil {
		return false, err
	}
	return e.Export(ctx, report, acts, labor)
}

// Remove elimina las filas del reporte en el almacén.
func (e *FactExporter) Remove(ctx context.Context, reportID string) error {
	return e.warehouse.DeleteReport(ctx, reportID)
}

func (e *FactExporter) markIngested(ctx context.Context, reportID string) error {
	err := e.reports.UpdateFields(ctx, reportID, map[string]any{
		entity.FieldAlmacenIngestado:  true,
		entity.FieldPasosAlmacenError: "",
	})
	if err != nil {
		return fmt.Errorf("almacén: marcar %s como ingestado: %w", reportID, err)
	}
	return nil
}
