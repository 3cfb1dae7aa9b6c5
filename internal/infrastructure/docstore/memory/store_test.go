package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_IncrementosCreanObjetosAnidados(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	m := repository.Mutation{
		Collection: "Actividades_Resumen",
		DocID:      "excavacion",
		Set:        map[string]any{"nombre": "EXCAVACION"},
		Increments: map[string]float64{
			"acumulado.horas":                   4,
			"periodos.diario.2025-01-15.horas":  4,
			"periodos.semanal.2025-W03.metrado": 10,
		},
	}
	require.NoError(t, s.Commit(ctx, []repository.Mutation{m}))
	require.NoError(t, s.Commit(ctx, []repository.Mutation{m}))

	doc, err := s.Get(ctx, "Actividades_Resumen", "excavacion")
	require.NoError(t, err)
	assert.Equal(t, "EXCAVACION", doc["nombre"])
	acumulado := doc["acumulado"].(map[string]any)
	assert.Equal(t, 8.0, acumulado["horas"])
	diario := doc["periodos"].(map[string]any)["diario"].(map[string]any)["2025-01-15"].(map[string]any)
	assert.Equal(t, 8.0, diario["horas"])
}

func TestStore_LoteFallidoNoEscribeNada(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Seed("Dashboard_Resumenes", "diario_2025-01-15", map[string]any{"costoTotal": 10.0})

	s.FailNextCommit(errors.New("unavailable"))
	err := s.Commit(ctx, []repository.Mutation{
		{Collection: "Dashboard_Resumenes", DocID: "diario_2025-01-15", Increments: map[string]float64{"costoTotal": 5}},
		{Collection: "Reportes_Links", DocID: "r1", Set: map[string]any{"reportId": "r1"}},
	})
	require.Error(t, err)

	doc, err := s.Get(ctx, "Dashboard_Resumenes", "diario_2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 10.0, doc["costoTotal"])
	_, err = s.Get(ctx, "Reportes_Links", "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ErrorEnMedioDelLoteEsAtomico(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Seed("Trabajadores_Resumen", "w1", map[string]any{"acumulado": "texto"})

	err := s.Commit(ctx, []repository.Mutation{
		{Collection: "Dashboard_Resumenes", DocID: "mensual_2025-01", Increments: map[string]float64{"totalReportes": 1}},
		{Collection: "Trabajadores_Resumen", DocID: "w1", Increments: map[string]float64{"acumulado.horas": 1}},
	})
	require.Error(t, err)

	_, err = s.Get(ctx, "Dashboard_Resumenes", "mensual_2025-01")
	assert.ErrorIs(t, err, domain.ErrNotFound, "la primera mutación no debe quedar visible")
}

func TestStore_SeedConservaCamposAplanados(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Seed("Actividades_Resumen", "encofrado", map[string]any{"periodos.diario.2025-01-15.horas": 3.0})

	require.NoError(t, s.Commit(ctx, []repository.Mutation{{
		Collection: "Actividades_Resumen",
		DocID:      "encofrado",
		Increments: map[string]float64{"periodos.diario.2025-01-15.horas": 2},
	}}))

	doc, err := s.Get(ctx, "Actividades_Resumen", "encofrado")
	require.NoError(t, err)
	assert.Equal(t, 3.0, doc["periodos.diario.2025-01-15.horas"], "el campo literal con puntos no se toca")
	assert.Contains(t, doc, "periodos")
}

func TestStore_TransactYTimestamps(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	fixed := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })
	s.Seed("Reports", "r1", map[string]any{"estado": "PENDING"})

	err := s.Transact(ctx, "Reports", "r1", func(cur repository.Document) ([]repository.Mutation, error) {
		require.Equal(t, "PENDING", cur["estado"])
		return []repository.Mutation{{
			Collection:       "Reports",
			DocID:            "r1",
			Set:              map[string]any{"estado": "PROCESSING"},
			ServerTimestamps: []string{"updatedAt"},
		}}, nil
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "Reports", "r1")
	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", doc["estado"])
	assert.Equal(t, fixed, doc["updatedAt"])
}

func TestStore_DeleteYListado(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Seed("Reportes_Links", "b", map[string]any{"reportId": "b"})
	s.Seed("Reportes_Links", "a", map[string]any{"reportId": "a"})

	docs, err := s.List(ctx, "Reportes_Links")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)

	require.NoError(t, s.Commit(ctx, []repository.Mutation{{Collection: "Reportes_Links", DocID: "a", Delete: true}}))
	docs, err = s.List(ctx, "Reportes_Links")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_LoteDemasiadoGrande(t *testing.T) {
	s := memory.New()
	muts := make([]repository.Mutation, 501)
	for i := range muts {
		muts[i] = repository.Mutation{Collection: "x", DocID: "d", Increments: map[string]float64{"n": 1}}
	}
	err := s.Commit(context.Background(), muts)
	assert.ErrorIs(t, err, domain.ErrBatchTooLarge)
}
