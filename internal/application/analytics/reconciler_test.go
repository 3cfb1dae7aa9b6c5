package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/memory"
)

var today = time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC)

func mustRange(t *testing.T, vista, fecha, desde, hasta string) analytics.Range {
	t.Helper()
	r, err := analytics.ResolveRange(vista, fecha, desde, hasta, today)
	require.NoError(t, err)
	return r
}

// seedActivities carga una actividad anidada y otra aplanada con dos días de enero.
func seedActivities(store *memory.Store) {
	store.Seed(entity.CollectionActivitySummary, "EXCAVACION", map[string]any{
		"nombre": "EXCAVACION",
		"unidad": "m3",
		"acumulado": map[string]any{
			"metrado": 999.0, "horas": 999.0, "costoMO": 999.0, "valor": 999.0,
		},
		"periodos": map[string]any{
			"diario": map[string]any{
				"2025-01-15": map[string]any{"metrado": 10.0, "horas": 8.0, "costoMO": 184.0, "valor": 50.0, "horasOperario": 8.0, "costoOperario": 184.0},
				"2025-02-01": map[string]any{"metrado": 3.0, "horas": 2.0, "costoMO": 46.0, "valor": 15.0},
			},
			"mensual": map[string]any{
				"2025-01": map[string]any{"metrado": 10.0, "horas": 8.0, "costoMO": 184.0, "valor": 50.0},
			},
		},
	})
	store.Seed(entity.CollectionActivitySummary, "ENCOFRADO", map[string]any{
		"nombre":                                "ENCOFRADO",
		"unidad":                                "m2",
		"periodos.diario.2025-01-16.metrado":    4.0,
		"periodos.diario.2025-01-16.horas":      2.0,
		"periodos.diario.2025-01-16.costoMO":    32.8,
		"periodos.diario.2025-01-16.valor":      32.0,
		"periodos.diario.2025-01-16.horasPeon":  2.0,
		"periodos.diario.2025-01-16.costoPeon":  32.8,
		"periodos.diario.2025-01-31.metrado":    0.0,
		"acumulado.metrado":                     4.0,
		"ultimaActualizacion":                   today,
		"periodos.mensual.2025-01.metrado":      4.0,
		"periodos.semanal.2025-W03.metrado":     4.0,
		"periodos.diario.2024-12-31.valor":      7.0,
		"periodos.diario.2025-01-15.comentario": "no numérico",
	})
}

func TestReconciler_SoloSumaBucketsDiariosDelRango(t *testing.T) {
	store := memory.New()
	seedActivities(store)
	rc := analytics.NewReconciler(store)

	rows, fuente, err := rc.Activities(context.Background(), mustRange(t, "mensual", "2025-01-10", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "diario", fuente)
	require.Len(t, rows, 2)

	// Ordenadas por valor descendente.
	assert.Equal(t, "EXCAVACION", rows[0].ID)
	assert.InDelta(t, 10, rows[0].Metrado, 1e-9, "excluye 2025-02-01 y nunca usa el acumulado")
	assert.InDelta(t, 50, rows[0].Valor, 1e-9)
	assert.InDelta(t, 8, rows[0].HorasCategoria.Operario, 1e-9)
	assert.InDelta(t, 1.25, rows[0].Productividad(), 1e-9)

	assert.Equal(t, "ENCOFRADO", rows[1].ID)
	assert.Equal(t, "m2", rows[1].Unidad)
	assert.InDelta(t, 32, rows[1].Valor, 1e-9, "2024-12-31 queda fuera")
	assert.InDelta(t, 32.8, rows[1].CostoCategoria.Peon, 1e-9)
}

func TestReconciler_RangoPersonalizadoExcluyeBordes(t *testing.T) {
	store := memory.New()
	seedActivities(store)
	rc := analytics.NewReconciler(store)

	rows, _, err := rc.Activities(context.Background(), mustRange(t, "personalizado", "", "2025-01-16", "2025-01-31"))
	require.NoError(t, err)
	require.Len(t, rows, 1, "EXCAVACION no tiene días en el rango y se descarta")
	assert.Equal(t, "ENCOFRADO", rows[0].ID)
	assert.InDelta(t, 4, rows[0].Metrado, 1e-9)
}

func TestReconciler_ClavesAplanadasYAnidadasSeSuman(t *testing.T) {
	store := memory.New()
	store.Seed(entity.CollectionWorkerSummary, "12345678", map[string]any{
		"nombre":    "Juan",
		"categoria": "OPERARIO",
		"periodos": map[string]any{
			"diario": map[string]any{"2025-01-15": map[string]any{"horas": 4.0, "costo": 92.0, "metrado": 5.0, "reportes": 1.0}},
		},
		"periodos.diario.2025-01-15.horas":    4.0,
		"periodos.diario.2025-01-15.costo":    92.0,
		"periodos.diario.2025-01-15.metrado":  5.0,
		"periodos.diario.2025-01-15.reportes": 1.0,
	})
	rc := analytics.NewReconciler(store)

	rows, _, err := rc.Workers(context.Background(), mustRange(t, "diario", "2025-01-15", "", ""))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 8, rows[0].Horas, 1e-9)
	assert.InDelta(t, 184, rows[0].Costo, 1e-9)
	assert.InDelta(t, 1.25, rows[0].Productividad(), 1e-9)
	assert.InDelta(t, 23, rows[0].CostoHora(), 1e-9)
}

func TestReconciler_RespaldoSemanalSoloSinDiariosEnToda(t *testing.T) {
	store := memory.New()
	store.Seed(entity.CollectionActivitySummary, "VACIADO", map[string]any{
		"nombre": "VACIADO",
		"periodos": map[string]any{
			"semanal": map[string]any{"2025-W03": map[string]any{"metrado": 6.0, "horas": 3.0, "valor": 60.0}},
		},
		"acumulado": map[string]any{"metrado": 100.0},
	})
	rc := analytics.NewReconciler(store)
	ctx := context.Background()

	rows, fuente, err := rc.Activities(ctx, mustRange(t, "semanal", "2025-01-15", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "semanal", fuente)
	require.Len(t, rows, 1)
	assert.InDelta(t, 6, rows[0].Metrado, 1e-9)

	// En cuanto existe un día cualquiera en el rango, el respaldo desaparece.
	store.Seed(entity.CollectionActivitySummary, "OTRA", map[string]any{
		"periodos.diario.2025-01-14.metrado": 1.0,
	})
	rows, fuente, err = rc.Activities(ctx, mustRange(t, "semanal", "2025-01-15", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "diario", fuente)
	require.Len(t, rows, 1)
	assert.Equal(t, "OTRA", rows[0].ID)
}

func TestReconciler_NuncaUsaElAcumulado(t *testing.T) {
	store := memory.New()
	store.Seed(entity.CollectionActivitySummary, "VACIADO", map[string]any{
		"acumulado": map[string]any{"metrado": 100.0, "valor": 500.0},
	})
	rc := analytics.NewReconciler(store)
	ctx := context.Background()

	for _, vista := range []string{"diario", "semanal", "mensual"} {
		rows, _, err := rc.Activities(ctx, mustRange(t, vista, "2025-01-15", "", ""))
		require.NoError(t, err)
		assert.Empty(t, rows, vista)
	}
	rows, fuente, err := rc.Activities(ctx, mustRange(t, "personalizado", "", "2025-01-01", "2025-01-31"))
	require.NoError(t, err)
	assert.Equal(t, "diario", fuente, "el rango personalizado no tiene respaldo")
	assert.Empty(t, rows)
}

func TestReconciler_GeneralSumaDiasYRespaldoMensual(t *testing.T) {
	store := memory.New()
	store.Seed(entity.CollectionDashboard, "diario_2025-01-15", map[string]any{"costoTotal": 100.0, "valorTotal": 150.0, "totalReportes": 1.0})
	store.Seed(entity.CollectionDashboard, "diario_2025-01-16", map[string]any{"costoTotal": 50.0, "valorTotal": 40.0, "totalReportes": 1.0})
	store.Seed(entity.CollectionDashboard, "diario_2025-02-01", map[string]any{"costoTotal": 999.0})
	store.Seed(entity.CollectionDashboard, "mensual_2025-01", map[string]any{"costoTotal": 777.0})
	store.Seed(entity.CollectionDashboard, "mensual_2024-12", map[string]any{"costoTotal": 10.0, "totalReportes": 2.0})
	rc := analytics.NewReconciler(store)
	ctx := context.Background()

	g, fuente, err := rc.General(ctx, mustRange(t, "mensual", "2025-01-01", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "diario", fuente)
	assert.InDelta(t, 150, g.CostoTotal, 1e-9)
	assert.InDelta(t, 190, g.ValorTotal, 1e-9)
	assert.InDelta(t, 2, g.TotalReportes, 1e-9)

	g, fuente, err = rc.General(ctx, mustRange(t, "mensual", "2024-12-05", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "mensual", fuente)
	assert.InDelta(t, 10, g.CostoTotal, 1e-9)
	assert.InDelta(t, 2, g.TotalReportes, 1e-9)
}

func TestReconciler_DescartaFilasEnCero(t *testing.T) {
	store := memory.New()
	store.Seed(entity.CollectionWorkerSummary, "pedro", map[string]any{
		"periodos.diario.2025-01-15.horas":    4.0,
		"periodos.diario.2025-01-15.reportes": 1.0,
	})
	store.Seed(entity.CollectionWorkerSummary, "pedro-revertido", map[string]any{
		"periodos.diario.2025-01-15.horas":    0.1 + 0.2 - 0.3,
		"periodos.diario.2025-01-15.reportes": 0.0,
	})
	rc := analytics.NewReconciler(store)

	rows, _, err := rc.Workers(context.Background(), mustRange(t, "diario", "2025-01-15", "", ""))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pedro", rows[0].ID)
}
