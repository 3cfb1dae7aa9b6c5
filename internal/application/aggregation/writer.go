// Package aggregation mantiene los agregados incrementales del dashboard:
// el escritor de lotes con factor ±1, el trigger de ingesta, la rectificación,
// la reconstrucción completa y la exportación de hechos al almacén analítico.
package aggregation

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
)

// Factores de aplicación.
const (
	FactorApply   = 1
	FactorReverse = -1
)

// ReportMeta datos del reporte que se desnormalizan en Reportes_Links.
type ReportMeta struct {
	ReportID  string
	Fecha     string
	CreadoPor string
	Bloque    string
	ExportURL string
}

// MetaFromReport extrae los metadatos del reporte.
func MetaFromReport(r *entity.Report) ReportMeta {
	return ReportMeta{ReportID: r.ID, Fecha: r.Fecha, CreadoPor: r.CreadoPor, Bloque: r.Bloque, ExportURL: r.ExportURL}
}

// batchOverhead escrituras del lote de agregados que no dependen del tamaño
// del reporte: tres resúmenes generales, el índice y hasta dos marcas del reporte.
const batchOverhead = 6

// MaxReportRows máximo de actividades más trabajadores de un reporte para que
// su aporte quepa en un solo lote atómico.
const MaxReportRows = repository.MaxBatchWrites - batchOverhead

// Writer único escritor de las colecciones de agregados.
type Writer struct {
	store repository.DocumentStore
}

// NewWriter construye el escritor.
func NewWriter(store repository.DocumentStore) *Writer {
	return &Writer{store: store}
}

// Apply aplica (factor +1) o revierte (factor -1) el aporte de un reporte en
// un único lote atómico. extra viaja en el mismo lote (marcas de estado del
// reporte), de modo que marca y agregados se confirman juntos o no se confirman.
func (w *Writer) Apply(
	ctx context.Context,
	c *production.Contribution,
	keys production.PeriodKeys,
	meta ReportMeta,
	factor int,
	extra ...repository.Mutation,
) error {
	if factor != FactorApply && factor != FactorReverse {
		return fmt.Errorf("%w: factor %d (debe ser +1 o -1)", domain.ErrInvalidInput, factor)
	}
	if c == nil {
		c = production.EmptyContribution()
	}
	muts := append(BuildMutations(c, keys, meta, factor), extra...)
	if err := w.store.Commit(ctx, muts); err != nil {
		return fmt.Errorf("agregados: lote de %d escrituras (factor %+d): %w", len(muts), factor, err)
	}
	return nil
}

// SetLinkExport actualiza la URL exportada en el índice de reportes.
func (w *Writer) SetLinkExport(ctx context.Context, reportID, exportURL string) error {
	return w.store.Commit(ctx, []repository.Mutation{{
		Collection:       entity.CollectionReportLinks,
		DocID:            reportID,
		Set:              map[string]any{"exportUrl": exportURL},
		ServerTimestamps: []string{"updatedAt"},
	}})
}

// LinkDeletion mutación que elimina la entrada del índice de reportes.
func LinkDeletion(reportID string) repository.Mutation {
	return repository.Mutation{Collection: entity.CollectionReportLinks, DocID: reportID, Delete: true}
}

// DeleteLink elimina la entrada del índice sin tocar los agregados.
func (w *Writer) DeleteLink(ctx context.Context, reportID string) error {
	return w.store.Commit(ctx, []repository.Mutation{LinkDeletion(reportID)})
}

// Reset elimina todos los documentos de las colecciones de agregados, en lotes.
func (w *Writer) Reset(ctx context.Context) (int, error) {
	var muts []repository.Mutation
	for _, coll := range entity.RollupCollections() {
		docs, err := w.store.List(ctx, coll)
		if err != nil {
			return 0, fmt.Errorf("agregados: listar %s: %w", coll, err)
		}
		for _, d := range docs {
			muts = append(muts, repository.Mutation{Collection: coll, DocID: d.ID, Delete: true})
		}
	}
	const chunk = 500
	for start := 0; start < len(muts); start += chunk {
		end := min(start+chunk, len(muts))
		if err := w.store.Commit(ctx, muts[start:end]); err != nil {
			return start, fmt.Errorf("agregados: reset: %w", err)
		}
	}
	return len(muts), nil
}

// BuildMutations arma el lote de un aporte:
//  1. tres resúmenes generales (diario, semanal, mensual)
//  2. un resumen por actividad (acumulado + tres buckets de periodo)
//  3. un resumen por trabajador (mismo esquema)
//  4. el índice del reporte: upsert al aplicar, borrado al revertir un aporte vacío
func BuildMutations(c *production.Contribution, keys production.PeriodKeys, meta ReportMeta, factor int) []repository.Mutation {
	f := float64(factor)
	muts := make([]repository.Mutation, 0, 4+len(c.Actividades)+len(c.Trabajadores))

	// ── 1. Resúmenes generales ────────────────────────────────────────────────
	for _, gran := range entity.Granularities() {
		key := keys.For(gran)
		muts = append(muts, repository.Mutation{
			Collection: entity.CollectionDashboard,
			DocID:      entity.GeneralSummaryID(gran, key),
			Set:        map[string]any{"granularidad": gran, "periodo": key},
			Increments: map[string]float64{
				"costoTotal":        f * c.CostoTotal.InexactFloat64(),
				"valorTotal":        f * c.ValorTotal.InexactFloat64(),
				"ganancia":          f * c.Ganancia().InexactFloat64(),
				"horasTotales":      f * c.HorasTotales.InexactFloat64(),
				"totalReportes":     f,
				"totalTrabajadores": f * float64(len(c.Trabajadores)),
			},
			ServerTimestamps: []string{"ultimaActualizacion"},
		})
	}

	// ── 2. Resúmenes por actividad ────────────────────────────────────────────
	for _, k := range sortedKeys(c.Actividades) {
		a := c.Actividades[k]
		incs := map[string]float64{}
		for _, prefix := range bucketPrefixes(keys) {
			addActivityFields(incs, prefix, a, f)
		}
		muts = append(muts, repository.Mutation{
			Collection:       entity.CollectionActivitySummary,
			DocID:            k,
			Set:              map[string]any{"nombre": a.Nombre, "unidad": a.Unidad},
			Increments:       incs,
			ServerTimestamps: []string{"ultimaActualizacion"},
		})
	}

	// ── 3. Resúmenes por trabajador ───────────────────────────────────────────
	for _, k := range sortedKeys(c.Trabajadores) {
		t := c.Trabajadores[k]
		incs := map[string]float64{}
		for _, prefix := range bucketPrefixes(keys) {
			addWorkerFields(incs, prefix, t, f)
		}
		muts = append(muts, repository.Mutation{
			Collection:       entity.CollectionWorkerSummary,
			DocID:            k,
			Set:              map[string]any{"nombre": t.Nombre, "dni": t.DNI, "categoria": t.Categoria},
			Increments:       incs,
			ServerTimestamps: []string{"ultimaActualizacion"},
		})
	}

	// ── 4. Índice de reportes ─────────────────────────────────────────────────
	switch {
	case factor == FactorApply:
		muts = append(muts, repository.Mutation{
			Collection: entity.CollectionReportLinks,
			DocID:      meta.ReportID,
			Set: map[string]any{
				"reportId":     meta.ReportID,
				"creadoPor":    meta.CreadoPor,
				"fecha":        meta.Fecha,
				"bloque":       meta.Bloque,
				"costoTotal":   round2(c.CostoTotal),
				"valorTotal":   round2(c.ValorTotal),
				"horasTotales": round2(c.HorasTotales),
				"ganancia":     round2(c.Ganancia()),
				"exportUrl":    meta.ExportURL,
			},
			ServerTimestamps: []string{"updatedAt"},
		})
	case c.IsEmpty():
		muts = append(muts, LinkDeletion(meta.ReportID))
	}
	return muts
}

// bucketPrefixes rutas del acumulado y de los tres buckets de periodo.
func bucketPrefixes(keys production.PeriodKeys) []string {
	prefixes := []string{entity.BucketAccumulated + "."}
	for _, gran := range entity.Granularities() {
		prefixes = append(prefixes, entity.BucketPeriods+"."+gran+"."+keys.For(gran)+".")
	}
	return prefixes
}

func addActivityFields(incs map[string]float64, prefix string, a *production.ActivityTotals, f float64) {
	put := func(field string, v decimal.Decimal) { incs[prefix+field] = f * v.InexactFloat64() }
	put("metrado", a.Metrado)
	put("horas", a.Horas)
	put("costoMO", a.CostoMO)
	put("valor", a.Valor)
	put("horasOperario", a.HorasPorCategoria.Operario)
	put("horasOficial", a.HorasPorCategoria.Oficial)
	put("horasPeon", a.HorasPorCategoria.Peon)
	put("horasOtros", a.HorasPorCategoria.Otros)
	put("costoOperario", a.CostoPorCategoria.Operario)
	put("costoOficial", a.CostoPorCategoria.Oficial)
	put("costoPeon", a.CostoPorCategoria.Peon)
	put("costoOtros", a.CostoPorCategoria.Otros)
}

func addWorkerFields(incs map[string]float64, prefix string, t *production.WorkerTotals, f float64) {
	put := func(field string, v decimal.Decimal) { incs[prefix+field] = f * v.InexactFloat64() }
	put("horas", t.Horas)
	put("costo", t.Costo)
	put("metrado", t.MetradoAtribuido)
	put("valor", t.ValorAtribuido)
	incs[prefix+"reportes"] = f
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
