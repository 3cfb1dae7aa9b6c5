package firestore

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/stretchr/testify/assert"
)

func TestToFirestoreData_ExpandeRutasConCentinelas(t *testing.T) {
	data := toFirestoreData(repository.Mutation{
		Set:              map[string]any{"nombre": "EXCAVACION", "pasos.dashboardOK": true},
		Increments:       map[string]float64{"periodos.diario.2025-01-15.horas": -4},
		ServerTimestamps: []string{"ultimaActualizacion"},
	})

	assert.Equal(t, "EXCAVACION", data["nombre"])
	assert.Equal(t, map[string]any{"dashboardOK": true}, data["pasos"])
	assert.Equal(t, firestore.ServerTimestamp, data["ultimaActualizacion"])

	dia := data["periodos"].(map[string]any)["diario"].(map[string]any)["2025-01-15"].(map[string]any)
	assert.Equal(t, firestore.Increment(-4.0), dia["horas"])
}
