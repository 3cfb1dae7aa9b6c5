package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/obra-dashboard/internal/application/aggregation"
	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

// ReportProcessor dispara el pipeline de ingesta de un reporte.
type ReportProcessor interface {
	ProcessAsync(reportID string)
	Process(ctx context.Context, reportID string) (*aggregation.ProcessResult, error)
}

// ExportRemover borra el documento exportado de un reporte.
type ExportRemover interface {
	Remove(ctx context.Context, fecha, reportID string) error
}

// ReportUseCase casos de uso del parte diario: alta, consulta, borrado,
// reprocesamiento, rectificación y exportación al almacén.
type ReportUseCase struct {
	reports   repository.ReportRepository
	processor ReportProcessor
	writer    *aggregation.Writer
	rectifier *aggregation.RectificationUseCase
	facts     *aggregation.FactExporter // nil = almacén deshabilitado
	files     ExportRemover             // nil = no se borran los PDF
	log       *logger.Logger
}

// NewReportUseCase construye el caso de uso. facts puede ser nil.
func NewReportUseCase(
	reports repository.ReportRepository,
	processor ReportProcessor,
	writer *aggregation.Writer,
	rectifier *aggregation.RectificationUseCase,
	facts *aggregation.FactExporter,
	log *logger.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		reports:   reports,
		processor: processor,
		writer:    writer,
		rectifier: rectifier,
		facts:     facts,
		log:       log,
	}
}

// WithExportRemover habilita el borrado del PDF al eliminar un reporte.
func (uc *ReportUseCase) WithExportRemover(r ExportRemover) *ReportUseCase {
	uc.files = r
	return uc
}

// Create valida y guarda el reporte con sus subcolecciones en estado PENDING y
// dispara el procesamiento en segundo plano. La respuesta no espera la agregación.
func (uc *ReportUseCase) Create(ctx context.Context, creadoPor string, in dto.CreateReportRequest) (*dto.ReportCreatedDTO, error) {
	if _, err := production.DerivePeriodKeys(in.Fecha); err != nil {
		return nil, err
	}

	activities := make([]entity.Activity, 0, len(in.Actividades))
	for i, a := range in.Actividades {
		act := entity.Activity{
			ID:                uuid.New().String(),
			Orden:             i + 1,
			Proceso:           strings.TrimSpace(a.Proceso),
			Unidad:            strings.TrimSpace(a.Unidad),
			Ubicacion:         a.Ubicacion,
			MetradoProgramado: a.MetradoProgramado,
			MetradoEjecutado:  a.MetradoEjecutado,
			PrecioUnitario:    a.PrecioUnitario,
			Causas:            a.Causas,
			Comentarios:       a.Comentarios,
		}
		act.RecalculateValue()
		activities = append(activities, act)
	}

	labor := make([]entity.LaborEntry, 0, len(in.ManoObra))
	for i, l := range in.ManoObra {
		entry := entity.LaborEntry{
			ID:            uuid.New().String(),
			Orden:         i + 1,
			Nombre:        strings.TrimSpace(l.Nombre),
			DNI:           strings.TrimSpace(l.DNI),
			Categoria:     production.NormalizeCategory(l.Categoria),
			Horas:         l.HorasPorActividad,
			Observaciones: l.Observaciones,
		}
		entry.TotalHoras = entry.SumHours()
		entry.Costo = entry.TotalHoras.Mul(production.CategoryRate(entry.Categoria))
		labor = append(labor, entry)
	}

	if n := len(activities) + len(labor); n > aggregation.MaxReportRows {
		return nil, fmt.Errorf("%w: %d actividades y trabajadores (máximo %d por reporte)",
			domain.ErrBatchTooLarge, n, aggregation.MaxReportRows)
	}

	// Consolidación de prueba: rechaza arreglos desalineados o valores negativos
	// antes de escribir nada.
	if _, err := production.Consolidate(activities, labor); err != nil {
		return nil, err
	}

	report := &entity.Report{
		ID:        uuid.New().String(),
		Fecha:     in.Fecha,
		CreadoPor: creadoPor,
		Bloque:    strings.TrimSpace(in.Bloque),
		Estado:    entity.ReportStatusPending,
	}
	if err := uc.reports.Create(ctx, report, activities, labor); err != nil {
		return nil, err
	}
	uc.log.Info().Str("report_id", report.ID).Str("fecha", report.Fecha).
		Int("actividades", len(activities)).Int("trabajadores", len(labor)).Msg("reportes: creado")

	uc.processor.ProcessAsync(report.ID)
	return &dto.ReportCreatedDTO{ID: report.ID, Estado: report.Estado}, nil
}

// Get devuelve el reporte con sus subcolecciones.
func (uc *ReportUseCase) Get(ctx context.Context, id string) (*dto.ReportDetailDTO, error) {
	report, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	acts, err := uc.reports.ListActivities(ctx, id)
	if err != nil {
		return nil, err
	}
	labor, err := uc.reports.ListLabor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ReportDetailDTO{Report: report, Actividades: acts, ManoObra: labor}, nil
}

// ListLinks pagina el índice de reportes.
func (uc *ReportUseCase) ListLinks(ctx context.Context, page dto.PageRequest) (*dto.ReportLinkListDTO, error) {
	page.DefaultPage()
	links, err := uc.reports.ListLinks(ctx)
	if err != nil {
		return nil, err
	}
	start, end := page.Window(len(links))
	return &dto.ReportLinkListDTO{
		Items: links[start:end],
		Page:  dto.NewPageResponse(page, len(links)),
	}, nil
}

// Delete revierte el aporte del reporte (si estaba agregado), elimina su
// entrada del índice y sus filas del almacén, y por último el reporte.
func (uc *ReportUseCase) Delete(ctx context.Context, id string) error {
	report, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report.Estado == entity.ReportStatusProcessing || report.Estado == entity.ReportStatusRectifying {
		return fmt.Errorf("%w: el reporte %s está en %s", domain.ErrConflict, id, report.Estado)
	}
	log := uc.log.With().Str("report_id", id).Logger()

	if report.Pasos.DashboardOK {
		acts, err := uc.reports.ListActivities(ctx, id)
		if err != nil {
			return err
		}
		labor, err := uc.reports.ListLabor(ctx, id)
		if err != nil {
			return err
		}
		c, err := production.Consolidate(acts, labor)
		if err != nil {
			return fmt.Errorf("reportes: consolidar %s para revertir: %w", id, err)
		}
		keys, err := production.DerivePeriodKeys(report.Fecha)
		if err != nil {
			return err
		}
		// La marca dashboardOK=false viaja en el mismo lote: un reintento tras
		// un fallo posterior no vuelve a revertir.
		extra := []repository.Mutation{
			aggregation.ReportMarker(id, map[string]any{entity.FieldPasosDashboardOK: false}),
		}
		if !c.IsEmpty() {
			extra = append(extra, aggregation.LinkDeletion(id))
		}
		if err := uc.writer.Apply(ctx, c, keys, aggregation.MetaFromReport(report), aggregation.FactorReverse, extra...); err != nil {
			return err
		}
		log.Info().Msg("reportes: aporte revertido")
	} else if err := uc.writer.DeleteLink(ctx, id); err != nil {
		return err
	}

	if uc.facts != nil && report.AlmacenIngestado {
		if err := uc.facts.Remove(ctx, id); err != nil {
			return fmt.Errorf("reportes: borrar hechos de %s: %w", id, err)
		}
	}
	if uc.files != nil && report.ExportURL != "" {
		if err := uc.files.Remove(ctx, report.Fecha, id); err != nil {
			log.Warn().Err(err).Msg("reportes: no se pudo borrar el PDF exportado")
		}
	}
	if err := uc.reports.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Msg("reportes: eliminado")
	return nil
}

// Reprocess ejecuta el pipeline de forma síncrona. Con force, un reporte que
// quedó en PROCESSING (proceso caído) vuelve a PENDING antes de reintentar.
func (uc *ReportUseCase) Reprocess(ctx context.Context, id string, force bool) (*dto.ProcessResultDTO, error) {
	if force {
		if _, err := uc.reports.TransitionStatus(ctx, id,
			[]string{entity.ReportStatusProcessing}, entity.ReportStatusPending, nil); err != nil {
			return nil, err
		}
	}
	res, err := uc.processor.Process(ctx, id)
	if err != nil {
		return nil, err
	}
	estado := res.Estado
	if res.Skipped {
		report, err := uc.reports.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		estado = report.Estado
	}
	return &dto.ProcessResultDTO{ID: id, Estado: estado, Omitido: res.Skipped}, nil
}

// Rectify traduce la petición HTTP al flujo de rectificación.
func (uc *ReportUseCase) Rectify(ctx context.Context, id string, req dto.RectifyRequest) (*entity.Report, error) {
	if len(req.Actividades) == 0 && len(req.ManoObra) == 0 {
		return nil, fmt.Errorf("%w: la rectificación no contiene cambios", domain.ErrInvalidInput)
	}
	in := aggregation.RectifyInput{
		ReportID:  id,
		Nota:      req.Nota,
		Reagregar: req.ShouldReaggregate(),
	}
	for _, a := range req.Actividades {
		in.Actividades = append(in.Actividades, aggregation.ActivityEdit{ID: a.ID, MetradoEjecutado: a.MetradoEjecutado})
	}
	for _, l := range req.ManoObra {
		in.ManoObra = append(in.ManoObra, aggregation.LaborEdit{ID: l.ID, Horas: l.Horas})
	}
	return uc.rectifier.Rectify(ctx, in)
}

// ExportFacts reintenta la exportación al almacén (idempotente por reporte).
func (uc *ReportUseCase) ExportFacts(ctx context.Context, id string) (*dto.WarehouseExportDTO, error) {
	if uc.facts == nil {
		return nil, fmt.Errorf("%w: almacén analítico deshabilitado", domain.ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	inserted, err := uc.facts.ExportByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		uc.log.Warn().Err(err).Str("report_id", id).Msg("reportes: exportación al almacén fallida")
		if uerr := uc.reports.UpdateFields(context.WithoutCancel(ctx), id,
			map[string]any{entity.FieldPasosAlmacenError: err.Error()}); uerr != nil {
			uc.log.Error().Err(uerr).Str("report_id", id).Msg("reportes: no se pudo registrar el error del almacén")
		}
		return nil, err
	}
	return &dto.WarehouseExportDTO{ID: id, Insertado: inserted}, nil
}
