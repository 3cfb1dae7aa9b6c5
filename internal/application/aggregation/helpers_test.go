package aggregation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func hrs(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = d(v)
	}
	return out
}

// fixture parte base: EXCAVACION 10 m3 × 5, ENCOFRADO 0 m2 × 8; un operario [4, 0]
// y un peón [2, 3].
func fixture(id, fecha string) (*entity.Report, []entity.Activity, []entity.LaborEntry) {
	report := &entity.Report{ID: id, Fecha: fecha, CreadoPor: "residente-1", Bloque: "Torre A", Estado: entity.ReportStatusPending}
	acts := []entity.Activity{
		{ID: id + "-a1", Orden: 1, Proceso: "EXCAVACION", Unidad: "m3", MetradoEjecutado: d("10"), PrecioUnitario: d("5"), Valor: d("50")},
		{ID: id + "-a2", Orden: 2, Proceso: "ENCOFRADO", Unidad: "m2", MetradoEjecutado: d("0"), PrecioUnitario: d("8")},
	}
	labor := []entity.LaborEntry{
		{ID: id + "-l1", Orden: 1, Nombre: "Juan Pérez", DNI: "45678912", Categoria: "OPERARIO", Horas: hrs("4", "0")},
		{ID: id + "-l2", Orden: 2, Nombre: "Luis Rojas", Categoria: "PEON", Horas: hrs("2", "3")},
	}
	return report, acts, labor
}

func seedReport(t *testing.T, repo repository.ReportRepository, report *entity.Report, acts []entity.Activity, labor []entity.LaborEntry) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), report, acts, labor))
}

func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// failingStore envuelve el almacén en memoria y permite fallar lotes concretos.
type failingStore struct {
	*memory.Store
	mu   sync.Mutex
	fail func(muts []repository.Mutation) error
}

func newFailingStore() *failingStore { return &failingStore{Store: memory.New()} }

func (s *failingStore) failWhen(fn func(muts []repository.Mutation) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

func (s *failingStore) Commit(ctx context.Context, muts []repository.Mutation) error {
	s.mu.Lock()
	fn := s.fail
	s.mu.Unlock()
	if fn != nil {
		if err := fn(muts); err != nil {
			return err
		}
	}
	return s.Store.Commit(ctx, muts)
}

// touches indica si el lote escribe en la colección indicada.
func touches(muts []repository.Mutation, collection string) bool {
	for _, m := range muts {
		if m.Collection == collection {
			return true
		}
	}
	return false
}

// failOnce falla solo el primer lote que escribe en collection.
func failOnce(collection string) func([]repository.Mutation) error {
	var once sync.Once
	return func(muts []repository.Mutation) error {
		var err error
		if touches(muts, collection) {
			once.Do(func() { err = fmt.Errorf("almacén documental no disponible") })
		}
		return err
	}
}

// snapshot aplana las hojas numéricas de las colecciones de agregados.
func snapshot(t *testing.T, store repository.DocumentStore) map[string]float64 {
	t.Helper()
	out := map[string]float64{}
	for _, coll := range entity.RollupCollections() {
		docs, err := store.List(context.Background(), coll)
		require.NoError(t, err)
		for _, doc := range docs {
			flatten(out, coll+"/"+doc.ID, doc.Data)
		}
	}
	return out
}

func flatten(out map[string]float64, prefix string, doc map[string]any) {
	for k, v := range doc {
		if m, ok := v.(map[string]any); ok {
			flatten(out, prefix+"."+k, m)
			continue
		}
		if f, ok := docstore.ToFloat(v); ok {
			out[prefix+"."+k] = f
		}
	}
}

// requireSameRollups compara dos snapshots; una hoja ausente vale cero.
func requireSameRollups(t *testing.T, want, got map[string]float64) {
	t.Helper()
	keys := map[string]struct{}{}
	for k := range want {
		keys[k] = struct{}{}
	}
	for k := range got {
		keys[k] = struct{}{}
	}
	for k := range keys {
		require.InDeltaf(t, want[k], got[k], 1e-6, "hoja %s", k)
	}
}

type mockExporter struct{ mock.Mock }

func (m *mockExporter) Export(_ context.Context, in ports.ExportInput) (*ports.ExportResult, error) {
	args := m.Called(in.Report.ID)
	res, _ := args.Get(0).(*ports.ExportResult)
	return res, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(_ context.Context, a ports.Alert) error {
	return m.Called(a.ReportID, a.Estado).Error(0)
}

// fakeWarehouse almacén analítico en memoria.
type fakeWarehouse struct {
	mu        sync.Mutex
	facts     map[string][]entity.FactRow
	inserts   int
	hasError  error
	insertErr error
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{facts: map[string][]entity.FactRow{}}
}

func (w *fakeWarehouse) HasReport(_ context.Context, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hasError != nil {
		return false, w.hasError
	}
	_, ok := w.facts[id]
	return ok, nil
}

func (w *fakeWarehouse) InsertReport(_ context.Context, facts []entity.FactRow, summary entity.DailySummaryRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.insertErr != nil {
		return w.insertErr
	}
	w.inserts++
	w.facts[summary.ReportID] = facts
	return nil
}

func (w *fakeWarehouse) DeleteReport(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.facts, id)
	return nil
}

func (w *fakeWarehouse) TopWorkers(context.Context, time.Time, time.Time, int) ([]entity.WorkerRanking, error) {
	return nil, nil
}
