package aggregation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/aggregation"
	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

type triggerEnv struct {
	store     *failingStore
	reports   *docstore.ReportRepository
	exporter  *mockExporter
	notifier  *mockNotifier
	warehouse *fakeWarehouse
	trigger   *aggregation.IngestionTrigger
}

func newTriggerEnv() *triggerEnv {
	store := newFailingStore()
	reports := docstore.NewReportRepository(store)
	writer := aggregation.NewWriter(store)
	exporter := &mockExporter{}
	notifier := &mockNotifier{}
	warehouse := newFakeWarehouse()
	facts := aggregation.NewFactExporter(reports, warehouse, logger.Nop())
	return &triggerEnv{
		store:     store,
		reports:   reports,
		exporter:  exporter,
		notifier:  notifier,
		warehouse: warehouse,
		trigger:   aggregation.NewIngestionTrigger(reports, writer, exporter, facts, notifier, logger.Nop()),
	}
}

func exportOK(id string) *ports.ExportResult {
	return &ports.ExportResult{ID: "pdf-" + id, URL: "https://files.local/" + id + ".pdf"}
}

func TestIngestionTrigger_CompletaAmbosPasos(t *testing.T) {
	env := newTriggerEnv()
	ctx := context.Background()
	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, env.reports, report, acts, labor)
	env.exporter.On("Export", "r1").Return(exportOK("r1"), nil).Once()

	res, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado)
	assert.False(t, res.Skipped)

	got, err := env.reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, got.Estado)
	assert.True(t, got.Pasos.ExportOK)
	assert.True(t, got.Pasos.DashboardOK)
	assert.True(t, got.AlmacenIngestado)
	assert.Equal(t, "pdf-r1", got.ExportID)
	assert.Empty(t, got.ErrorMensaje)

	snap := snapshot(t, env.store)
	assert.InDelta(t, 174, snap["Dashboard_Resumenes/diario_2025-01-15.costoTotal"], 1e-9)
	assert.Len(t, env.warehouse.facts["r1"], 3, "Juan en EXCAVACION, Luis en ambas")

	env.exporter.AssertExpectations(t)
	env.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestIngestionTrigger_NoReprocesaCompletado(t *testing.T) {
	env := newTriggerEnv()
	ctx := context.Background()
	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, env.reports, report, acts, labor)
	env.exporter.On("Export", "r1").Return(exportOK("r1"), nil).Once()

	_, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	before := snapshot(t, env.store)

	res, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	requireSameRollups(t, before, snapshot(t, env.store))
	assert.Equal(t, 1, env.warehouse.inserts)
	env.exporter.AssertNumberOfCalls(t, "Export", 1)
}

func TestIngestionTrigger_ExportacionFallidaEsParcialYReintentaSoloLoPendiente(t *testing.T) {
	env := newTriggerEnv()
	ctx := context.Background()
	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, env.reports, report, acts, labor)
	env.exporter.On("Export", "r1").Return(nil, errors.New("plantilla no encontrada")).Once()
	env.notifier.On("Notify", "r1", entity.ReportStatusPartialError).Return(nil).Once()

	res, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusPartialError, res.Estado)

	got, err := env.reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Contains(t, got.ErrorMensaje, "plantilla no encontrada")
	assert.True(t, got.Pasos.DashboardOK)
	assert.False(t, got.Pasos.ExportOK)
	applied := snapshot(t, env.store)

	// Segundo intento: la agregación ya está hecha y no se repite.
	env.exporter.On("Export", "r1").Return(exportOK("r1"), nil).Once()
	res, err = env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado)

	after := snapshot(t, env.store)
	assert.InDelta(t, 1, after["Dashboard_Resumenes/diario_2025-01-15.totalReportes"], 1e-9)
	assert.InDelta(t, applied["Actividades_Resumen/excavacion.acumulado.metrado"], after["Actividades_Resumen/excavacion.acumulado.metrado"], 1e-9)
	assert.Equal(t, 1, env.warehouse.inserts, "la guardia del almacén evita duplicados")
	env.exporter.AssertExpectations(t)
	env.notifier.AssertExpectations(t)
}

func TestIngestionTrigger_AgregacionFallidaEsParcial(t *testing.T) {
	env := newTriggerEnv()
	ctx := context.Background()
	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, env.reports, report, acts, labor)
	env.store.failWhen(failOnce(entity.CollectionDashboard))
	env.exporter.On("Export", "r1").Return(exportOK("r1"), nil)
	env.notifier.On("Notify", "r1", entity.ReportStatusPartialError).Return(nil)

	res, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusPartialError, res.Estado)

	got, err := env.reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.Pasos.DashboardOK, "la marca viaja en el lote fallido")
	assert.NotEmpty(t, got.Pasos.DashboardError)
	assert.True(t, got.Pasos.ExportOK)
	assert.Empty(t, snapshot(t, env.store))

	res, err = env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado)
	env.exporter.AssertNumberOfCalls(t, "Export", 1)
	assert.InDelta(t, 174, snapshot(t, env.store)["Dashboard_Resumenes/diario_2025-01-15.costoTotal"], 1e-9)
}

func TestIngestionTrigger_HorasDesalineadasEsCritico(t *testing.T) {
	env := newTriggerEnv()
	ctx := context.Background()
	report, acts, labor := fixture("r1", "2025-01-15")
	labor[1].Horas = hrs("1", "2", "3")
	seedReport(t, env.reports, report, acts, labor)
	env.notifier.On("Notify", "r1", entity.ReportStatusCriticalError).Return(nil).Once()

	res, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCriticalError, res.Estado)

	got, err := env.reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCriticalError, got.Estado)
	assert.Contains(t, got.ErrorMensaje, "r1-l2")
	assert.Empty(t, snapshot(t, env.store))
	env.exporter.AssertNotCalled(t, "Export", mock.Anything)
	env.notifier.AssertExpectations(t)
}

func TestIngestionTrigger_FalloDelAlmacenNoCambiaElEstado(t *testing.T) {
	env := newTriggerEnv()
	ctx := context.Background()
	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, env.reports, report, acts, labor)
	env.exporter.On("Export", "r1").Return(exportOK("r1"), nil)
	env.warehouse.hasError = errors.New("resource exhausted")

	res, err := env.trigger.Process(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado)

	got, err := env.reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.AlmacenIngestado)
	assert.Contains(t, got.Pasos.AlmacenError, "resource exhausted")
}
