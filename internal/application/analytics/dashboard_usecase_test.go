package analytics_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/aggregation"
	"github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// applyReport consolida y aplica un parte con el escritor real.
func applyReport(t *testing.T, w *aggregation.Writer, id, fecha string, metrado string, labor ...entity.LaborEntry) {
	t.Helper()
	acts := []entity.Activity{
		{ID: id + "-a1", Orden: 1, Proceso: "EXCAVACION", Unidad: "m3", MetradoEjecutado: dec(metrado), PrecioUnitario: dec("5")},
		{ID: id + "-a2", Orden: 2, Proceso: "ENCOFRADO", Unidad: "m2", MetradoEjecutado: dec("0"), PrecioUnitario: dec("8")},
	}
	c, err := production.Consolidate(acts, labor)
	require.NoError(t, err)
	keys, err := production.DerivePeriodKeys(fecha)
	require.NoError(t, err)
	meta := aggregation.ReportMeta{ReportID: id, Fecha: fecha, CreadoPor: "u1", Bloque: "Torre A"}
	require.NoError(t, w.Apply(context.Background(), c, keys, meta, aggregation.FactorApply))
}

func worker(nombre, dni, categoria string, h ...string) entity.LaborEntry {
	hs := make([]decimal.Decimal, len(h))
	for i, v := range h {
		hs[i] = dec(v)
	}
	return entity.LaborEntry{ID: dni, Nombre: nombre, DNI: dni, Categoria: categoria, Horas: hs}
}

func TestDashboardUseCase_GetSummarySemanaExcluyeOtrasSemanas(t *testing.T) {
	store := memory.New()
	w := aggregation.NewWriter(store)
	applyReport(t, w, "r1", "2025-01-15", "10", worker("Juan Pérez", "45678912", "OPERARIO", "4", "0"))
	applyReport(t, w, "r2", "2025-01-22", "6", worker("Juan Pérez", "45678912", "OPERARIO", "2", "0"))

	uc := analytics.NewDashboardUseCase(analytics.NewReconciler(store))
	out, err := uc.GetSummary(context.Background(), dto.DashboardQuery{Vista: "semanal", Fecha: "2025-01-15"})
	require.NoError(t, err)

	assert.Equal(t, "2025-W03", out.Periodo.Clave)
	assert.Equal(t, "Semana 03 de 2025", out.Periodo.Etiqueta)
	assert.Equal(t, "diario", out.Fuente)
	assert.Equal(t, "92", out.Totales.CostoTotal.String())
	assert.Equal(t, "50", out.Totales.ValorTotal.String())
	assert.Equal(t, "-42", out.Totales.Ganancia.String())
	assert.Equal(t, 1, out.Totales.TotalReportes)
	assert.Equal(t, "23", out.Totales.CostoHora.String())

	require.Len(t, out.Actividades, 1, "ENCOFRADO sin horas ni valor se descarta")
	assert.Equal(t, "excavacion", out.Actividades[0].ID)
	assert.Equal(t, "2.5", out.Actividades[0].Productividad.String())

	require.Len(t, out.Trabajadores, 1)
	assert.Equal(t, "4", out.Trabajadores[0].Horas.String())
	assert.Equal(t, 1, out.Trabajadores[0].Reportes)
	assert.Equal(t, "Operario", out.CostoPorCategoria[0].Categoria)
	assert.Equal(t, "92", out.CostoPorCategoria[0].Costo.String())

	month, err := uc.GetSummary(context.Background(), dto.DashboardQuery{Vista: "mensual", Fecha: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "Enero 2025", month.Periodo.Etiqueta)
	assert.Equal(t, "138", month.Totales.CostoTotal.String())
	assert.Equal(t, 2, month.Totales.TotalReportes)
}

func TestDashboardUseCase_GetWorkerRanking(t *testing.T) {
	store := memory.New()
	w := aggregation.NewWriter(store)
	applyReport(t, w, "r1", "2025-01-15", "12",
		worker("Ana", "111", "OFICIAL", "6", "0"),
		worker("Luis", "222", "PEON", "2", "4"),
		worker("Eva", "333", "OPERARIO", "0", "0"),
	)
	uc := analytics.NewDashboardUseCase(analytics.NewReconciler(store))
	ctx := context.Background()

	prod, err := uc.GetWorkerRanking(ctx, dto.WorkerRankingQuery{Vista: "diario", Fecha: "2025-01-15"})
	require.NoError(t, err)
	assert.Equal(t, "productividad", prod.Criterio)
	require.Len(t, prod.Trabajadores, 2)
	// Ana: 9 / 6 = 1.5 ; Luis: 3 / 6 = 0.5 (ENCOFRADO tiene metrado 0).
	assert.Equal(t, "111", prod.Trabajadores[0].ID)
	assert.Equal(t, 1, prod.Trabajadores[0].Rank)
	assert.Equal(t, "1.5", prod.Trabajadores[0].Productividad.String())
	assert.Equal(t, "0.5", prod.Trabajadores[1].Productividad.String())

	cost, err := uc.GetWorkerRanking(ctx, dto.WorkerRankingQuery{Vista: "diario", Fecha: "2025-01-15", Criterio: "costo", Limite: 1})
	require.NoError(t, err)
	require.Len(t, cost.Trabajadores, 1)
	// Ana: 6 × 18.20 = 109.2 ; Luis: 6 × 16.40 = 98.4
	assert.Equal(t, "111", cost.Trabajadores[0].ID)
	assert.Equal(t, "109.2", cost.Trabajadores[0].Costo.String())
}

func TestDigestIncluyeTotalesYFilas(t *testing.T) {
	s := &dto.DashboardSummaryDTO{
		Periodo:     dto.PeriodDTO{Etiqueta: "Enero 2025", Desde: "2025-01-01", Hasta: "2025-01-31"},
		Totales:     dto.GeneralTotalsDTO{CostoTotal: dec("92"), TotalReportes: 1},
		Actividades: []dto.ActivitySummaryDTO{{Nombre: "EXCAVACION", Unidad: "m3", Metrado: dec("10")}},
	}
	got := analytics.Digest(s)
	assert.Contains(t, got, "Enero 2025")
	assert.Contains(t, got, "costo=92")
	assert.Contains(t, got, "EXCAVACION [m3]: metrado=10")
}
