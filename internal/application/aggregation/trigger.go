package aggregation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

const (
	defaultProcessTimeout = 60 * time.Second
	persistTimeout        = 10 * time.Second
)

// ProcessResult resultado de una invocación del trigger.
type ProcessResult struct {
	Estado  string
	Skipped bool // el estado actual no admitía reprocesar
}

// IngestionTrigger orquesta el pipeline de un reporte recién creado:
//
//	PENDING → PROCESSING → {exportación ‖ agregación} → almacén → COMPLETED | PARTIAL_ERROR
//
// Cualquier fallo inesperado (incluido un panic) termina en CRITICAL_ERROR.
// El estado final siempre se intenta persistir.
type IngestionTrigger struct {
	reports  repository.ReportRepository
	writer   *Writer
	exporter ports.ReportExporter
	facts    *FactExporter       // nil = almacén analítico deshabilitado
	notifier ports.AlertNotifier // nil = sin avisos
	log      *logger.Logger
	timeout  time.Duration
}

// NewIngestionTrigger construye el trigger. facts y notifier pueden ser nil.
func NewIngestionTrigger(
	reports repository.ReportRepository,
	writer *Writer,
	exporter ports.ReportExporter,
	facts *FactExporter,
	notifier ports.AlertNotifier,
	log *logger.Logger,
) *IngestionTrigger {
	return &IngestionTrigger{
		reports:  reports,
		writer:   writer,
		exporter: exporter,
		facts:    facts,
		notifier: notifier,
		log:      log,
		timeout:  defaultProcessTimeout,
	}
}

// WithTimeout ajusta el timeout de ProcessAsync.
func (t *IngestionTrigger) WithTimeout(d time.Duration) *IngestionTrigger {
	if d > 0 {
		t.timeout = d
	}
	return t
}

// ProcessAsync dispara el pipeline en una goroutine independiente con su propio
// contexto, desacoplado del ciclo HTTP que creó el reporte.
func (t *IngestionTrigger) ProcessAsync(reportID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if _, err := t.Process(ctx, reportID); err != nil {
			t.log.Error().Err(err).Str("report_id", reportID).Msg("ingesta: procesamiento fallido")
		}
	}()
}

type stepResult struct {
	ok      bool
	skipped bool
	export  *ports.ExportResult
	err     error
}

// Process ejecuta el pipeline de forma síncrona.
func (t *IngestionTrigger) Process(ctx context.Context, reportID string) (result *ProcessResult, err error) {
	log := t.log.With().Str("report_id", reportID).Logger()

	// ═══════════════════════════════════════════════════════════════════════════
	// 0. Compare-and-set a PROCESSING (sin reentrada desde COMPLETED/PROCESSING)
	// ═══════════════════════════════════════════════════════════════════════════
	started, err := t.reports.TransitionStatus(ctx, reportID, entity.ProcessableStates(), entity.ReportStatusProcessing,
		map[string]any{entity.FieldErrorMensaje: ""})
	if err != nil {
		return nil, fmt.Errorf("ingesta: iniciar %s: %w", reportID, err)
	}
	if !started {
		log.Info().Msg("ingesta: estado actual no admite procesamiento, se omite")
		return &ProcessResult{Skipped: true}, nil
	}

	// markCritical persiste CRITICAL_ERROR con el mensaje; nunca falla hacia arriba.
	markCritical := func(step, msg string) *ProcessResult {
		log.Error().Str("step", step).Str("estado", entity.ReportStatusCriticalError).Msg(msg)
		t.persist(ctx, reportID, map[string]any{
			entity.FieldEstado:       entity.ReportStatusCriticalError,
			entity.FieldErrorMensaje: msg,
		})
		t.alert(ctx, reportID, "", entity.ReportStatusCriticalError, msg)
		return &ProcessResult{Estado: entity.ReportStatusCriticalError}
	}

	defer func() {
		if r := recover(); r != nil {
			result = markCritical("panic", fmt.Sprintf("panic: %v", r))
			err = fmt.Errorf("ingesta: panic procesando %s: %v", reportID, r)
		}
	}()

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Snapshot y consolidación en memoria
	// ═══════════════════════════════════════════════════════════════════════════
	report, err := t.reports.GetByID(ctx, reportID)
	if err != nil {
		return markCritical("fetch-report", err.Error()), nil
	}
	activities, err := t.reports.ListActivities(ctx, reportID)
	if err != nil {
		return markCritical("fetch-activities", err.Error()), nil
	}
	labor, err := t.reports.ListLabor(ctx, reportID)
	if err != nil {
		return markCritical("fetch-labor", err.Error()), nil
	}
	contribution, err := production.Consolidate(activities, labor)
	if err != nil {
		return markCritical("consolidate", err.Error()), nil
	}
	keys, err := production.DerivePeriodKeys(report.Fecha)
	if err != nil {
		return markCritical("period-keys", err.Error()), nil
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Exportación y agregación en paralelo
	// ═══════════════════════════════════════════════════════════════════════════
	exportCh := make(chan stepResult, 1)
	aggCh := make(chan stepResult, 1)

	go func() {
		defer recoverStep(exportCh)
		if report.Pasos.ExportOK {
			exportCh <- stepResult{ok: true, skipped: true}
			return
		}
		res, err := t.exporter.Export(ctx, ports.ExportInput{
			Report: report, Activities: activities, Labor: labor, Contribution: contribution,
		})
		exportCh <- stepResult{ok: err == nil, export: res, err: err}
	}()
	go func() {
		defer recoverStep(aggCh)
		if report.Pasos.DashboardOK {
			aggCh <- stepResult{ok: true, skipped: true}
			return
		}
		marker := ReportMarker(reportID, map[string]any{
			entity.FieldPasosDashboardOK:  true,
			entity.FieldPasosDashboardErr: "",
		})
		err := t.writer.Apply(ctx, contribution, keys, MetaFromReport(report), FactorApply, marker)
		aggCh <- stepResult{ok: err == nil, err: err}
	}()

	exp := <-exportCh
	agg := <-aggCh

	fields := map[string]any{}
	var failures []string
	if exp.ok {
		fields[entity.FieldPasosExportOK] = true
		fields[entity.FieldPasosExportError] = ""
		if exp.export != nil {
			fields[entity.FieldExportID] = exp.export.ID
			fields[entity.FieldExportURL] = exp.export.URL
		}
	} else {
		fields[entity.FieldPasosExportError] = exp.err.Error()
		failures = append(failures, "exportación: "+exp.err.Error())
		log.Warn().Err(exp.err).Str("step", "export").Msg("ingesta: exportación fallida")
	}
	if !agg.ok {
		fields[entity.FieldPasosDashboardErr] = agg.err.Error()
		failures = append(failures, "dashboard: "+agg.err.Error())
		log.Warn().Err(agg.err).Str("step", "dashboard").Msg("ingesta: agregación fallida")
	}
	if exp.ok && exp.export != nil && (agg.ok || report.Pasos.DashboardOK) {
		if err := t.writer.SetLinkExport(ctx, reportID, exp.export.URL); err != nil {
			log.Warn().Err(err).Msg("ingesta: no se pudo actualizar la URL del índice")
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Almacén analítico (flag releído: otra invocación pudo ingestarlo)
	// ═══════════════════════════════════════════════════════════════════════════
	if t.facts != nil {
		if err := t.ingestFacts(ctx, report, activities, labor); err != nil {
			fields[entity.FieldPasosAlmacenError] = err.Error()
			log.Warn().Err(err).Str("step", "almacen").Msg("ingesta: exportación al almacén fallida")
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Estado final
	// ═══════════════════════════════════════════════════════════════════════════
	estado := entity.ReportStatusCompleted
	if len(failures) > 0 {
		estado = entity.ReportStatusPartialError
	}
	fields[entity.FieldEstado] = estado
	fields[entity.FieldErrorMensaje] = strings.Join(failures, "; ")
	t.persist(ctx, reportID, fields)

	if estado != entity.ReportStatusCompleted {
		t.alert(ctx, reportID, report.Fecha, estado, strings.Join(failures, "; "))
	}
	log.Info().Str("estado", estado).Bool("export_ok", exp.ok).Bool("dashboard_ok", agg.ok).Msg("ingesta: reporte procesado")
	return &ProcessResult{Estado: estado}, nil
}

func (t *IngestionTrigger) ingestFacts(ctx context.Context, report *entity.Report, activities []entity.Activity, labor []entity.LaborEntry) error {
	fresh, err := t.reports.GetByID(ctx, report.ID)
	if err != nil {
		return err
	}
	if fresh.AlmacenIngestado {
		return nil
	}
	_, err = t.facts.Export(ctx, report, activities, labor)
	return err
}

// persist escribe campos del reporte con un contexto propio para que el estado
// terminal se guarde aunque el del pipeline haya expirado.
func (t *IngestionTrigger) persist(ctx context.Context, reportID string, fields map[string]any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := t.reports.UpdateFields(pctx, reportID, fields); err != nil {
		t.log.Error().Err(err).Str("report_id", reportID).Interface("estado", fields[entity.FieldEstado]).
			Msg("ingesta: no se pudo persistir el estado")
	}
}

func (t *IngestionTrigger) alert(ctx context.Context, reportID, fecha, estado, msg string) {
	if t.notifier == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := t.notifier.Notify(actx, ports.Alert{ReportID: reportID, Fecha: fecha, Estado: estado, Mensaje: msg}); err != nil {
		t.log.Warn().Err(err).Str("report_id", reportID).Msg("ingesta: aviso no enviado")
	}
}

// recoverStep convierte un panic de un paso paralelo en un error del paso.
func recoverStep(ch chan<- stepResult) {
	if r := recover(); r != nil {
		ch <- stepResult{err: fmt.Errorf("panic: %v", r)}
	}
}

// ReportMarker mutación de campos del reporte que viaja en el lote de agregados.
func ReportMarker(reportID string, fields map[string]any) repository.Mutation {
	return repository.Mutation{
		Collection:       entity.CollectionReports,
		DocID:            reportID,
		Set:              fields,
		ServerTimestamps: []string{entity.FieldUpdatedAt},
	}
}
