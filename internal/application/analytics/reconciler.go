package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
)

// Campos aditivos de cada tipo de agregado.
var (
	activityFields = []string{
		"metrado", "horas", "costoMO", "valor",
		"horasOperario", "horasOficial", "horasPeon", "horasOtros",
		"costoOperario", "costoOficial", "costoPeon", "costoOtros",
	}
	workerFields  = []string{"horas", "costo", "metrado", "valor", "reportes"}
	generalFields = []string{"costoTotal", "valorTotal", "ganancia", "horasTotales", "totalReportes", "totalTrabajadores"}
)

// CategoryAmounts horas o costos por categoría de mano de obra.
type CategoryAmounts struct {
	Operario float64
	Oficial  float64
	Peon     float64
	Otros    float64
}

// ActivityRow actividad reconciliada para un rango.
type ActivityRow struct {
	ID             string
	Nombre         string
	Unidad         string
	Metrado        float64
	Horas          float64
	CostoMO        float64
	Valor          float64
	HorasCategoria CategoryAmounts
	CostoCategoria CategoryAmounts
}

// Productividad metrado por hora; 0 sin horas.
func (a ActivityRow) Productividad() float64 { return ratio(a.Metrado, a.Horas) }

// WorkerRow trabajador reconciliado para un rango.
type WorkerRow struct {
	ID        string
	Nombre    string
	DNI       string
	Categoria string
	Horas     float64
	Costo     float64
	Metrado   float64
	Valor     float64
	Reportes  float64
}

// Productividad metrado atribuido por hora.
func (w WorkerRow) Productividad() float64 { return ratio(w.Metrado, w.Horas) }

// CostoHora costo medio por hora.
func (w WorkerRow) CostoHora() float64 { return ratio(w.Costo, w.Horas) }

// GeneralTotals totales de Dashboard_Resumenes para un rango.
type GeneralTotals struct {
	CostoTotal        float64
	ValorTotal        float64
	Ganancia          float64
	HorasTotales      float64
	TotalReportes     float64
	TotalTrabajadores float64
}

// Reconciler lee los agregados y los reduce a un rango de fechas.
//
// Regla de lectura: solo se suman buckets diarios dentro del rango. El bucket
// semanal o mensual exacto se usa únicamente si no existe ningún bucket diario
// en el rango en toda la colección y la vista es semanal o mensual. El
// acumulado nunca se usa como respaldo. Las filas con todo en cero se descartan.
type Reconciler struct {
	store repository.DocumentStore
}

// NewReconciler construye el reconciliador.
func NewReconciler(store repository.DocumentStore) *Reconciler {
	return &Reconciler{store: store}
}

type summed struct {
	id   string
	doc  map[string]any
	sums map[string]float64
}

// Activities devuelve las actividades del rango y el bucket usado (diario, semanal o mensual).
func (rc *Reconciler) Activities(ctx context.Context, rng Range) ([]ActivityRow, string, error) {
	rows, fuente, err := rc.collect(ctx, entity.CollectionActivitySummary, rng, activityFields)
	if err != nil {
		return nil, "", err
	}
	out := make([]ActivityRow, 0, len(rows))
	for _, r := range rows {
		s := r.sums
		out = append(out, ActivityRow{
			ID:             r.id,
			Nombre:         text(r.doc, "nombre"),
			Unidad:         text(r.doc, "unidad"),
			Metrado:        s["metrado"],
			Horas:          s["horas"],
			CostoMO:        s["costoMO"],
			Valor:          s["valor"],
			HorasCategoria: CategoryAmounts{s["horasOperario"], s["horasOficial"], s["horasPeon"], s["horasOtros"]},
			CostoCategoria: CategoryAmounts{s["costoOperario"], s["costoOficial"], s["costoPeon"], s["costoOtros"]},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Valor != out[j].Valor {
			return out[i].Valor > out[j].Valor
		}
		return out[i].ID < out[j].ID
	})
	return out, fuente, nil
}

// Workers devuelve los trabajadores del rango ordenados por horas.
func (rc *Reconciler) Workers(ctx context.Context, rng Range) ([]WorkerRow, string, error) {
	rows, fuente, err := rc.collect(ctx, entity.CollectionWorkerSummary, rng, workerFields)
	if err != nil {
		return nil, "", err
	}
	out := make([]WorkerRow, 0, len(rows))
	for _, r := range rows {
		s := r.sums
		out = append(out, WorkerRow{
			ID:        r.id,
			Nombre:    text(r.doc, "nombre"),
			DNI:       text(r.doc, "dni"),
			Categoria: text(r.doc, "categoria"),
			Horas:     s["horas"],
			Costo:     s["costo"],
			Metrado:   s["metrado"],
			Valor:     s["valor"],
			Reportes:  s["reportes"],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Horas != out[j].Horas {
			return out[i].Horas > out[j].Horas
		}
		return out[i].ID < out[j].ID
	})
	return out, fuente, nil
}

// General suma los resúmenes generales diarios del rango.
func (rc *Reconciler) General(ctx context.Context, rng Range) (*GeneralTotals, string, error) {
	docs, err := rc.store.List(ctx, entity.CollectionDashboard)
	if err != nil {
		return nil, "", fmt.Errorf("reconciliador: listar %s: %w", entity.CollectionDashboard, err)
	}

	sums := map[string]float64{}
	daily := 0
	prefix := entity.GranularityDaily + "_"
	for _, d := range docs {
		day, ok := strings.CutPrefix(d.ID, prefix)
		if !ok || !rng.Contains(day) {
			continue
		}
		daily++
		addFields(sums, NormalizeDocument(d.Data), generalFields)
	}

	fuente := entity.GranularityDaily
	if gran := rng.FallbackGranularity(); daily == 0 && gran != "" {
		fuente = gran
		id := entity.GeneralSummaryID(gran, rng.Clave)
		for _, d := range docs {
			if d.ID == id {
				addFields(sums, NormalizeDocument(d.Data), generalFields)
			}
		}
	}

	return &GeneralTotals{
		CostoTotal:        sums["costoTotal"],
		ValorTotal:        sums["valorTotal"],
		Ganancia:          sums["ganancia"],
		HorasTotales:      sums["horasTotales"],
		TotalReportes:     sums["totalReportes"],
		TotalTrabajadores: sums["totalTrabajadores"],
	}, fuente, nil
}

// collect normaliza cada documento y suma sus buckets diarios del rango.
// El respaldo semanal/mensual se decide con el conteo global de buckets diarios.
func (rc *Reconciler) collect(ctx context.Context, coll string, rng Range, fields []string) ([]summed, string, error) {
	docs, err := rc.store.List(ctx, coll)
	if err != nil {
		return nil, "", fmt.Errorf("reconciliador: listar %s: %w", coll, err)
	}

	rows := make([]summed, len(docs))
	daily := 0
	for i, d := range docs {
		n := NormalizeDocument(d.Data)
		sums := map[string]float64{}
		for day, bucket := range child(n, entity.BucketPeriods, entity.GranularityDaily) {
			b, ok := bucket.(map[string]any)
			if !ok || !rng.Contains(day) {
				continue
			}
			daily++
			addFields(sums, b, fields)
		}
		rows[i] = summed{id: d.ID, doc: n, sums: sums}
	}

	fuente := entity.GranularityDaily
	if gran := rng.FallbackGranularity(); daily == 0 && gran != "" {
		fuente = gran
		for i := range rows {
			sums := map[string]float64{}
			if b := child(rows[i].doc, entity.BucketPeriods, gran, rng.Clave); b != nil {
				addFields(sums, b, fields)
			}
			rows[i].sums = sums
		}
	}

	out := rows[:0]
	for _, r := range rows {
		if !allZero(r.sums) {
			out = append(out, r)
		}
	}
	return out, fuente, nil
}

func addFields(dst map[string]float64, bucket map[string]any, fields []string) {
	for _, f := range fields {
		if v, ok := number(bucket[f]); ok {
			dst[f] += v
		}
	}
}

// allZero tolera el residuo de punto flotante que dejan aplicar y revertir.
func allZero(sums map[string]float64) bool {
	for _, v := range sums {
		if math.Abs(v) > 1e-9 {
			return false
		}
	}
	return true
}

func ratio(num, den float64) float64 {
	if math.Abs(den) < 1e-9 {
		return 0
	}
	return num / den
}
