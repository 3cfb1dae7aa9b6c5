package aggregation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/aggregation"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

func TestFactExporter_GuardiaEvitaDuplicados(t *testing.T) {
	store := newFailingStore()
	reports := docstore.NewReportRepository(store)
	warehouse := newFakeWarehouse()
	exporter := aggregation.NewFactExporter(reports, warehouse, logger.Nop())
	ctx := context.Background()

	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, reports, report, acts, labor)

	inserted, err := exporter.ExportByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = exporter.ExportByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, warehouse.inserts)

	got, err := reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, got.AlmacenIngestado)

	rows := warehouse.facts["r1"]
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, "r1", r.ReportID)
		assert.True(t, r.Horas.IsPositive())
	}
}

func TestFactExporter_ReingestaTrasRemove(t *testing.T) {
	store := newFailingStore()
	reports := docstore.NewReportRepository(store)
	warehouse := newFakeWarehouse()
	exporter := aggregation.NewFactExporter(reports, warehouse, logger.Nop())
	ctx := context.Background()

	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, reports, report, acts, labor)
	_, err := exporter.ExportByID(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, exporter.Remove(ctx, "r1"))
	inserted, err := exporter.ExportByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 2, warehouse.inserts)
}

func TestFactExporter_ErrorDeVerificacionNoInserta(t *testing.T) {
	store := newFailingStore()
	reports := docstore.NewReportRepository(store)
	warehouse := newFakeWarehouse()
	warehouse.hasError = errors.New("conexión rechazada")
	exporter := aggregation.NewFactExporter(reports, warehouse, logger.Nop())
	ctx := context.Background()

	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, reports, report, acts, labor)

	_, err := exporter.ExportByID(ctx, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexión rechazada")
	assert.Zero(t, warehouse.inserts)

	got, err := reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.AlmacenIngestado)
}

func TestFactExporter_ReporteInexistente(t *testing.T) {
	store := newFailingStore()
	exporter := aggregation.NewFactExporter(docstore.NewReportRepository(store), newFakeWarehouse(), logger.Nop())

	_, err := exporter.ExportByID(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFactExporter_InsercionConcurrenteCuentaComoIngestado(t *testing.T) {
	store := newFailingStore()
	reports := docstore.NewReportRepository(store)
	warehouse := newFakeWarehouse()
	warehouse.insertErr = fmt.Errorf("almacén: insertar r1: %w", domain.ErrDuplicate)
	exporter := aggregation.NewFactExporter(reports, warehouse, logger.Nop())
	ctx := context.Background()

	report, acts, labor := fixture("r1", "2025-01-15")
	seedReport(t, reports, report, acts, labor)

	inserted, err := exporter.ExportByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, got.AlmacenIngestado)
}
