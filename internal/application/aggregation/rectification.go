package aggregation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

// ActivityEdit nuevo metrado ejecutado de una actividad.
type ActivityEdit struct {
	ID               string
	MetradoEjecutado decimal.Decimal
}

// LaborEdit nuevo arreglo de horas de un trabajador.
type LaborEdit struct {
	ID    string
	Horas []decimal.Decimal
}

// RectifyInput edición parcial de un reporte ya procesado.
type RectifyInput struct {
	ReportID    string
	Actividades []ActivityEdit
	ManoObra    []LaborEdit
	Nota        string
	Reagregar   bool
}

const (
	defaultRectifyTimeout = 2 * time.Minute
	// rectificationLease antigüedad sin escrituras a partir de la cual un
	// RECTIFYING se da por abandonado. Mayor que defaultRectifyTimeout.
	rectificationLease = 5 * time.Minute
)

// RectificationUseCase corrige un reporte con el patrón revertir → editar → reaplicar.
//
// El reporte se toma con un compare-and-set a RECTIFYING antes de escribir nada;
// una segunda rectificación o el trigger de ingesta encuentran el estado ocupado.
// Cada mitad queda marcada en el reporte (rectificacionFase REVERSED / EDITED),
// de modo que una nueva invocación tras un fallo continúa desde la última fase
// persistida sin revertir dos veces.
type RectificationUseCase struct {
	reports  repository.ReportRepository
	writer   *Writer
	facts    *FactExporter
	notifier ports.AlertNotifier
	log      *logger.Logger
	now      func() time.Time
	timeout  time.Duration
}

// NewRectificationUseCase construye el caso de uso. facts y notifier pueden ser nil.
func NewRectificationUseCase(
	reports repository.ReportRepository,
	writer *Writer,
	facts *FactExporter,
	notifier ports.AlertNotifier,
	log *logger.Logger,
) *RectificationUseCase {
	return &RectificationUseCase{
		reports:  reports,
		writer:   writer,
		facts:    facts,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		timeout:  defaultRectifyTimeout,
	}
}

// rectSnapshot estado leído del reporte con la edición ya validada.
type rectSnapshot struct {
	report      *entity.Report
	activities  []entity.Activity
	labor       []entity.LaborEntry
	editedActs  []entity.Activity
	editedLabor []entity.LaborEntry
	keys        production.PeriodKeys
}

// resuming true si una ejecución anterior dejó persistida una fase intermedia.
func (s *rectSnapshot) resuming() bool {
	f := s.report.RectificacionFase
	return f == entity.RectificationPhaseReversed || f == entity.RectificationPhaseEdited
}

// Rectify ejecuta la rectificación. Los errores de validación y de estado se
// devuelven antes de cualquier escritura; los demás dejan el reporte en
// RECTIFICATION_ERROR.
func (uc *RectificationUseCase) Rectify(ctx context.Context, in RectifyInput) (*entity.Report, error) {
	snap, err := uc.load(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := checkEditable(snap, in); err != nil {
		return nil, err
	}
	if err := uc.claim(ctx, snap.report); err != nil {
		return nil, err
	}

	log := uc.log.With().Str("report_id", in.ReportID).Logger()
	fecha := snap.report.Fecha
	fail := func(step string, cause error) (*entity.Report, error) {
		msg := fmt.Sprintf("%s: %v", step, cause)
		log.Error().Err(cause).Str("step", step).Msg("rectificación: fallo")
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := uc.reports.UpdateFields(pctx, in.ReportID, map[string]any{
			entity.FieldEstado:        entity.ReportStatusRectificationError,
			entity.FieldErrorMensaje:  msg,
			entity.FieldRectificadoEn: uc.now(),
		}); err != nil {
			log.Error().Err(err).Msg("rectificación: no se pudo persistir RECTIFICATION_ERROR")
		}
		if uc.notifier != nil {
			if err := uc.notifier.Notify(pctx, ports.Alert{
				ReportID: in.ReportID, Fecha: fecha, Estado: entity.ReportStatusRectificationError, Mensaje: msg,
			}); err != nil {
				log.Warn().Err(err).Msg("rectificación: aviso no enviado")
			}
		}
		return nil, fmt.Errorf("rectificación %s: %w", in.ReportID, cause)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	// Con el reporte tomado nadie más lo modifica: lo leído ahora es definitivo.
	snap, err = uc.load(ctx, in)
	if err != nil {
		return fail("releer", err)
	}
	if err := checkEditable(snap, in); err != nil {
		return fail("validar", err)
	}
	resuming := snap.resuming()
	reaggregate := in.Reagregar || resuming
	meta := MetaFromReport(snap.report)

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Revertir el aporte original (solo si estaba aplicado y no se revirtió ya)
	// ═══════════════════════════════════════════════════════════════════════════
	switch {
	case resuming:
		log.Info().Str("fase", snap.report.RectificacionFase).Msg("rectificación: se retoma sin revertir")
	case snap.report.Pasos.DashboardOK:
		original, err := production.Consolidate(snap.activities, snap.labor)
		if err != nil {
			return fail("consolidar-original", err)
		}
		marker := ReportMarker(in.ReportID, map[string]any{
			entity.FieldEstado:           entity.ReportStatusRectifying,
			entity.FieldRectFase:         entity.RectificationPhaseReversed,
			entity.FieldPasosDashboardOK: false,
			entity.FieldErrorMensaje:     "",
		})
		if err := uc.writer.Apply(ctx, original, snap.keys, meta, FactorReverse, marker); err != nil {
			return fail("revertir", err)
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Edición parcial (segundo lote)
	// ═══════════════════════════════════════════════════════════════════════════
	editFields := map[string]any{entity.FieldRectFase: entity.RectificationPhaseEdited}
	if !reaggregate {
		editFields = uc.rectifiedFields(in.Nota)
	}
	if err := uc.reports.ApplyEdit(ctx, in.ReportID, snap.editedActs, snap.editedLabor, editFields); err != nil {
		return fail("editar", err)
	}

	if reaggregate {
		// ═══════════════════════════════════════════════════════════════════════
		// 3. Releer el snapshot nuevo y reaplicar
		// ═══════════════════════════════════════════════════════════════════════
		freshActs, err := uc.reports.ListActivities(ctx, in.ReportID)
		if err != nil {
			return fail("releer-actividades", err)
		}
		freshLabor, err := uc.reports.ListLabor(ctx, in.ReportID)
		if err != nil {
			return fail("releer-mano-obra", err)
		}
		updated, err := production.Consolidate(freshActs, freshLabor)
		if err != nil {
			return fail("consolidar-nuevo", err)
		}
		fields := uc.rectifiedFields(in.Nota)
		fields[entity.FieldPasosDashboardOK] = true
		fields[entity.FieldPasosDashboardErr] = ""
		if err := uc.writer.Apply(ctx, updated, snap.keys, meta, FactorApply, ReportMarker(in.ReportID, fields)); err != nil {
			return fail("reaplicar", err)
		}
		uc.refreshWarehouse(ctx, in.ReportID)
	}

	log.Info().Bool("reagregado", reaggregate).Msg("rectificación: completada")
	return uc.reports.GetByID(ctx, in.ReportID)
}

// load lee el reporte con sus subcolecciones y valida la edición contra ellas.
// El snapshot resultante debe consolidar.
func (uc *RectificationUseCase) load(ctx context.Context, in RectifyInput) (*rectSnapshot, error) {
	report, err := uc.reports.GetByID(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}
	if report.Estado != entity.ReportStatusRectifying && !slices.Contains(entity.RectifiableStates(), report.Estado) {
		return nil, fmt.Errorf("%w: el reporte está en estado %s", domain.ErrConflict, report.Estado)
	}
	activities, err := uc.reports.ListActivities(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}
	labor, err := uc.reports.ListLabor(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}
	keys, err := production.DerivePeriodKeys(report.Fecha)
	if err != nil {
		return nil, err
	}
	editedActs, editedLabor, err := applyEdit(activities, labor, in)
	if err != nil {
		return nil, err
	}
	if _, err := production.Consolidate(mergeActivities(activities, editedActs), mergeLabor(labor, editedLabor)); err != nil {
		return nil, err
	}
	return &rectSnapshot{
		report:      report,
		activities:  activities,
		labor:       labor,
		editedActs:  editedActs,
		editedLabor: editedLabor,
		keys:        keys,
	}, nil
}

// checkEditable rechaza editar sin reagregar un reporte cuyo aporte está en
// los agregados: una reversión posterior restaría el snapshot editado en vez
// del aplicado.
func checkEditable(s *rectSnapshot, in RectifyInput) error {
	if !in.Reagregar && !s.resuming() && s.report.Pasos.DashboardOK {
		return fmt.Errorf("%w: el aporte del reporte %s está agregado; la edición requiere reagregar",
			domain.ErrConflict, s.report.ID)
	}
	return nil
}

// claim pasa el reporte a RECTIFYING con compare-and-set. Un RECTIFYING solo
// se retoma si nadie lo escribió durante rectificationLease, y el reclamo va
// condicionado a la misma fase que se leyó.
func (uc *RectificationUseCase) claim(ctx context.Context, report *entity.Report) error {
	if report.Estado == entity.ReportStatusRectifying {
		ok, err := uc.reports.ClaimStaleRectification(ctx, report.ID, report.RectificacionFase,
			uc.now().Add(-rectificationLease))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: el reporte %s tiene una rectificación en curso", domain.ErrConflict, report.ID)
		}
		uc.log.Warn().Str("report_id", report.ID).Str("fase", report.RectificacionFase).
			Msg("rectificación: se retoma un RECTIFYING abandonado")
		return nil
	}
	ok, err := uc.reports.TransitionStatus(ctx, report.ID, entity.RectifiableStates(), entity.ReportStatusRectifying,
		map[string]any{entity.FieldErrorMensaje: ""})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: el reporte %s cambió de estado (%s)", domain.ErrConflict, report.ID, report.Estado)
	}
	return nil
}

func (uc *RectificationUseCase) rectifiedFields(nota string) map[string]any {
	return map[string]any{
		entity.FieldEstado:        entity.ReportStatusRectified,
		entity.FieldRectFase:      "",
		entity.FieldRectNota:      nota,
		entity.FieldRectificadoEn: uc.now(),
		entity.FieldErrorMensaje:  "",
	}
}

// refreshWarehouse reemplaza las filas del almacén por las del snapshot nuevo.
// Un fallo no invalida la rectificación; queda en pasos.almacenError.
func (uc *RectificationUseCase) refreshWarehouse(ctx context.Context, reportID string) {
	if uc.facts == nil {
		return
	}
	err := uc.facts.Remove(ctx, reportID)
	if err == nil {
		_, err = uc.facts.ExportByID(ctx, reportID)
	}
	if err == nil {
		return
	}
	log := uc.log.With().Str("report_id", reportID).Logger()
	log.Warn().Err(err).Msg("rectificación: almacén no actualizado")
	if uerr := uc.reports.UpdateFields(ctx, reportID, map[string]any{
		entity.FieldAlmacenIngestado:  false,
		entity.FieldPasosAlmacenError: err.Error(),
	}); uerr != nil {
		log.Error().Err(uerr).Msg("rectificación: no se pudo registrar el error del almacén")
	}
}

// applyEdit valida la edición y devuelve solo las filas modificadas, con
// valor, horas totales y costo recalculados.
func applyEdit(activities []entity.Activity, labor []entity.LaborEntry, in RectifyInput) ([]entity.Activity, []entity.LaborEntry, error) {
	actsByID := make(map[string]entity.Activity, len(activities))
	for _, a := range activities {
		actsByID[a.ID] = a
	}
	laborByID := make(map[string]entity.LaborEntry, len(labor))
	for _, l := range labor {
		laborByID[l.ID] = l
	}

	editedActs := make([]entity.Activity, 0, len(in.Actividades))
	for _, e := range in.Actividades {
		a, ok := actsByID[e.ID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: actividad %q no pertenece al reporte", domain.ErrInvalidInput, e.ID)
		}
		if e.MetradoEjecutado.IsNegative() {
			return nil, nil, fmt.Errorf("%w: metrado negativo en actividad %q", domain.ErrInvalidInput, e.ID)
		}
		a.MetradoEjecutado = e.MetradoEjecutado
		a.RecalculateValue()
		editedActs = append(editedActs, a)
	}

	editedLabor := make([]entity.LaborEntry, 0, len(in.ManoObra))
	for i, e := range in.ManoObra {
		l, ok := laborByID[e.ID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: trabajador %q no pertenece al reporte", domain.ErrInvalidInput, e.ID)
		}
		if len(e.Horas) != len(activities) {
			return nil, nil, fmt.Errorf("%w: edición #%d (%s) tiene %d horas para %d actividades",
				domain.ErrHoursMismatch, i, e.ID, len(e.Horas), len(activities))
		}
		for _, h := range e.Horas {
			if h.IsNegative() {
				return nil, nil, fmt.Errorf("%w: horas negativas para %q", domain.ErrInvalidInput, e.ID)
			}
		}
		l.Horas = e.Horas
		l.TotalHoras = l.SumHours()
		l.Costo = l.TotalHoras.Mul(production.CategoryRate(l.Categoria))
		editedLabor = append(editedLabor, l)
	}
	return editedActs, editedLabor, nil
}

func mergeActivities(base, edited []entity.Activity) []entity.Activity {
	out := slices.Clone(base)
	for _, e := range edited {
		for i := range out {
			if out[i].ID == e.ID {
				out[i] = e
			}
		}
	}
	return out
}

func mergeLabor(base, edited []entity.LaborEntry) []entity.LaborEntry {
	out := slices.Clone(base)
	for _, e := range edited {
		for i := range out {
			if out[i].ID == e.ID {
				out[i] = e
			}
		}
	}
	return out
}
