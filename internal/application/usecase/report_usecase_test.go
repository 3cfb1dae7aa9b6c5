package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/aggregation"
	"github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/application/usecase"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/memory"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

type stubExporter struct{}

func (stubExporter) Export(_ context.Context, in ports.ExportInput) (*ports.ExportResult, error) {
	return &ports.ExportResult{ID: "pdf-" + in.Report.ID, URL: "https://files.local/" + in.Report.ID + ".pdf"}, nil
}

// recordingProcessor registra los disparos asíncronos y procesa de forma síncrona bajo demanda.
type recordingProcessor struct {
	*aggregation.IngestionTrigger
	async []string
}

func (p *recordingProcessor) ProcessAsync(id string) { p.async = append(p.async, id) }

type harness struct {
	store     *memory.Store
	reports   *docstore.ReportRepository
	processor *recordingProcessor
	uc        *usecase.ReportUseCase
}

func newHarness() *harness {
	store := memory.New()
	reports := docstore.NewReportRepository(store)
	writer := aggregation.NewWriter(store)
	log := logger.Nop()
	trigger := aggregation.NewIngestionTrigger(reports, writer, stubExporter{}, nil, nil, log)
	processor := &recordingProcessor{IngestionTrigger: trigger}
	rectifier := aggregation.NewRectificationUseCase(reports, writer, nil, nil, log)
	return &harness{
		store:     store,
		reports:   reports,
		processor: processor,
		uc:        usecase.NewReportUseCase(reports, processor, writer, rectifier, nil, log),
	}
}

func n(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createRequest(fecha string, horas ...string) dto.CreateReportRequest {
	hs := make([]decimal.Decimal, len(horas))
	for i, h := range horas {
		hs[i] = n(h)
	}
	return dto.CreateReportRequest{
		Fecha:  fecha,
		Bloque: "Torre A",
		Actividades: []dto.ActivityInput{
			{Proceso: "EXCAVACION", Unidad: "m3", MetradoEjecutado: n("10"), PrecioUnitario: n("5")},
			{Proceso: "ENCOFRADO", Unidad: "m2", MetradoEjecutado: n("0"), PrecioUnitario: n("8")},
		},
		ManoObra: []dto.LaborInput{
			{Nombre: "Juan Pérez", DNI: "45678912", Categoria: "operario", HorasPorActividad: hs},
		},
	}
}

func TestReportUseCase_CreateGuardaPendienteYDisparaProceso(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	out, err := h.uc.Create(ctx, "residente-1", createRequest("2025-01-15", "4", "0"))
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusPending, out.Estado)
	assert.Equal(t, []string{out.ID}, h.processor.async)

	detail, err := h.uc.Get(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, "residente-1", detail.Report.CreadoPor)
	require.Len(t, detail.Actividades, 2)
	assert.Equal(t, 1, detail.Actividades[0].Orden)
	assert.Equal(t, "50", detail.Actividades[0].Valor.String())
	require.Len(t, detail.ManoObra, 1)
	assert.Equal(t, "OPERARIO", detail.ManoObra[0].Categoria)
	assert.Equal(t, "4", detail.ManoObra[0].TotalHoras.String())
	assert.Equal(t, "92", detail.ManoObra[0].Costo.String())
}

func TestReportUseCase_CreateRechazaHorasDesalineadasSinEscribir(t *testing.T) {
	h := newHarness()

	_, err := h.uc.Create(context.Background(), "u1", createRequest("2025-01-15", "4", "0", "1"))
	assert.ErrorIs(t, err, domain.ErrHoursMismatch)
	assert.Zero(t, h.store.Commits())
	assert.Empty(t, h.processor.async)

	_, err = h.uc.Create(context.Background(), "u1", createRequest("15-01-2025", "4", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportUseCase_CreateRechazaReporteQueNoCabeEnUnLote(t *testing.T) {
	h := newHarness()
	req := createRequest("2025-01-15", "4", "0")
	for len(req.Actividades)+len(req.ManoObra) <= aggregation.MaxReportRows {
		req.ManoObra = append(req.ManoObra, dto.LaborInput{
			Nombre: "Peón", Categoria: "peon", HorasPorActividad: []decimal.Decimal{n("1"), n("0")},
		})
	}

	_, err := h.uc.Create(context.Background(), "u1", req)
	assert.ErrorIs(t, err, domain.ErrBatchTooLarge)
	assert.Zero(t, h.store.Commits())

	req.ManoObra = req.ManoObra[:len(req.ManoObra)-1]
	created, err := h.uc.Create(context.Background(), "u1", req)
	require.NoError(t, err)
	res, err := h.uc.Reprocess(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado, "el aporte del máximo permitido cabe en un lote")
}

func TestReportUseCase_RectificarSinReagregarYEliminarDejaAgregadosEnCero(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	created, err := h.uc.Create(ctx, "u1", createRequest("2025-01-15", "4", "0"))
	require.NoError(t, err)
	_, err = h.uc.Reprocess(ctx, created.ID, false)
	require.NoError(t, err)
	detail, err := h.uc.Get(ctx, created.ID)
	require.NoError(t, err)

	sinReagregar := false
	_, err = h.uc.Rectify(ctx, created.ID, dto.RectifyRequest{
		Actividades: []dto.ActivityEditInput{{ID: detail.Actividades[0].ID, MetradoEjecutado: n("20")}},
		Reagregar:   &sinReagregar,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, h.uc.Delete(ctx, created.ID))
	for _, id := range []string{"diario_2025-01-15", "semanal_2025-W03", "mensual_2025-01"} {
		general, err := h.store.Get(ctx, entity.CollectionDashboard, id)
		require.NoError(t, err, id)
		for _, campo := range []string{"costoTotal", "valorTotal", "horasTotales", "totalReportes"} {
			assert.InDeltaf(t, 0, general[campo], 1e-9, "%s.%s", id, campo)
		}
	}
}

func TestReportUseCase_ReprocesarYEliminarDejaAgregadosEnCero(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.uc.Create(ctx, "u1", createRequest("2025-01-15", "4", "0"))
	require.NoError(t, err)

	res, err := h.uc.Reprocess(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado)
	assert.False(t, res.Omitido)

	again, err := h.uc.Reprocess(ctx, created.ID, false)
	require.NoError(t, err)
	assert.True(t, again.Omitido, "COMPLETED no se vuelve a procesar")
	assert.Equal(t, entity.ReportStatusCompleted, again.Estado)

	links, err := h.uc.ListLinks(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, links.Items, 1)
	assert.InDelta(t, 92, links.Items[0].CostoTotal, 1e-9)
	assert.Equal(t, "https://files.local/"+created.ID+".pdf", links.Items[0].ExportURL)

	require.NoError(t, h.uc.Delete(ctx, created.ID))

	_, err = h.reports.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	links, err = h.uc.ListLinks(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, links.Items)

	general, err := h.store.Get(ctx, entity.CollectionDashboard, "diario_2025-01-15")
	require.NoError(t, err, "el resumen queda como residuo en cero")
	assert.InDelta(t, 0, general["costoTotal"], 1e-9)
	assert.InDelta(t, 0, general["totalReportes"], 1e-9)

	rng, err := analytics.ResolveRange("mensual", "2025-01-15", "", "", time.Now())
	require.NoError(t, err)
	rows, _, err := analytics.NewReconciler(h.store).Activities(ctx, rng)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReportUseCase_ListLinksPagina(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	for _, fecha := range []string{"2025-01-13", "2025-01-14", "2025-01-15"} {
		created, err := h.uc.Create(ctx, "u1", createRequest(fecha, "1", "1"))
		require.NoError(t, err)
		_, err = h.uc.Reprocess(ctx, created.ID, false)
		require.NoError(t, err)
	}

	page, err := h.uc.ListLinks(ctx, dto.PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page.Total)
	assert.False(t, page.Page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2025-01-14", page.Items[0].Fecha, "más recientes primero")
	assert.Equal(t, "2025-01-13", page.Items[1].Fecha)
}

func TestReportUseCase_DeleteEnProcesoEsConflicto(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	created, err := h.uc.Create(ctx, "u1", createRequest("2025-01-15", "4", "0"))
	require.NoError(t, err)
	require.NoError(t, h.reports.UpdateFields(ctx, created.ID, map[string]any{entity.FieldEstado: entity.ReportStatusProcessing}))

	assert.ErrorIs(t, h.uc.Delete(ctx, created.ID), domain.ErrConflict)
	require.NoError(t, h.reports.UpdateFields(ctx, created.ID, map[string]any{entity.FieldEstado: entity.ReportStatusRectifying}))
	assert.ErrorIs(t, h.uc.Delete(ctx, created.ID), domain.ErrConflict, "tampoco durante una rectificación")
	require.NoError(t, h.reports.UpdateFields(ctx, created.ID, map[string]any{entity.FieldEstado: entity.ReportStatusProcessing}))

	res, err := h.uc.Reprocess(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, res.Estado, "force rescata un PROCESSING colgado")
}

func TestReportUseCase_ExportFactsSinAlmacen(t *testing.T) {
	h := newHarness()
	_, err := h.uc.ExportFacts(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

type recordingRemover struct{ removed []string }

func (r *recordingRemover) Remove(_ context.Context, fecha, id string) error {
	r.removed = append(r.removed, fecha+"/"+id)
	return nil
}

func TestReportUseCase_DeleteBorraElPDFExportado(t *testing.T) {
	h := newHarness()
	remover := &recordingRemover{}
	h.uc.WithExportRemover(remover)
	ctx := context.Background()

	created, err := h.uc.Create(ctx, "u1", createRequest("2025-01-15", "4", "0"))
	require.NoError(t, err)
	_, err = h.uc.Reprocess(ctx, created.ID, false)
	require.NoError(t, err)

	require.NoError(t, h.uc.Delete(ctx, created.ID))
	assert.Equal(t, []string{"2025-01-15/" + created.ID}, remover.removed)
}
