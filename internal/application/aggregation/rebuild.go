package aggregation

import (
	"context"
	"fmt"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

// RebuildSummary resultado de una reconstrucción completa.
type RebuildSummary struct {
	DocumentosEliminados int
	ReportesAplicados    int
	ReportesOmitidos     int
	Fallidos             []string
}

// RebuildUseCase borra todos los agregados y vuelve a aplicar cada reporte
// que tenía su aporte en el dashboard.
type RebuildUseCase struct {
	reports repository.ReportRepository
	writer  *Writer
	log     *logger.Logger
}

// NewRebuildUseCase construye el caso de uso.
func NewRebuildUseCase(reports repository.ReportRepository, writer *Writer, log *logger.Logger) *RebuildUseCase {
	return &RebuildUseCase{reports: reports, writer: writer, log: log}
}

// RebuildAll reconstruye los agregados desde los reportes crudos.
// Un reporte que no consolida queda en PARTIAL_ERROR con pasos.dashboardOK en false.
func (uc *RebuildUseCase) RebuildAll(ctx context.Context) (*RebuildSummary, error) {
	deleted, err := uc.writer.Reset(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := uc.reports.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RebuildSummary{DocumentosEliminados: deleted}
	for _, r := range reports {
		if !r.Pasos.DashboardOK {
			summary.ReportesOmitidos++
			continue
		}
		if err := uc.reapply(ctx, r); err != nil {
			uc.log.Error().Err(err).Str("report_id", r.ID).Msg("reconstrucción: reporte no aplicado")
			summary.Fallidos = append(summary.Fallidos, r.ID)
			if uerr := uc.reports.UpdateFields(ctx, r.ID, map[string]any{
				entity.FieldEstado:            entity.ReportStatusPartialError,
				entity.FieldPasosDashboardOK:  false,
				entity.FieldPasosDashboardErr: err.Error(),
			}); uerr != nil {
				uc.log.Error().Err(uerr).Str("report_id", r.ID).Msg("reconstrucción: no se pudo marcar PARTIAL_ERROR")
			}
			continue
		}
		summary.ReportesAplicados++
	}
	uc.log.Info().
		Int("eliminados", summary.DocumentosEliminados).
		Int("aplicados", summary.ReportesAplicados).
		Int("fallidos", len(summary.Fallidos)).
		Msg("reconstrucción: completada")
	return summary, nil
}

func (uc *RebuildUseCase) reapply(ctx context.Context, r *entity.Report) error {
	acts, err := uc.reports.ListActivities(ctx, r.ID)
	if err != nil {
		return err
	}
	labor, err := uc.reports.ListLabor(ctx, r.ID)
	if err != nil {
		return err
	}
	c, err := production.Consolidate(acts, labor)
	if err != nil {
		return fmt.Errorf("consolidar: %w", err)
	}
	keys, err := production.DerivePeriodKeys(r.Fecha)
	if err != nil {
		return err
	}
	return uc.writer.Apply(ctx, c, keys, MetaFromReport(r), FactorApply)
}
