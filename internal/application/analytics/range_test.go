package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/domain"
)

func TestResolveRange(t *testing.T) {
	cases := []struct {
		name              string
		vista, fecha      string
		desde, hasta      string
		wantDesde, wantHa string
		wantClave         string
	}{
		{"diario", "diario", "2025-01-15", "", "", "2025-01-15", "2025-01-15", "2025-01-15"},
		{"semanal ISO", "semanal", "2025-01-15", "", "", "2025-01-13", "2025-01-19", "2025-W03"},
		{"semanal cruza año", "semanal", "2024-12-31", "", "", "2024-12-30", "2025-01-05", "2025-W01"},
		{"mensual", "mensual", "2024-02-10", "", "", "2024-02-01", "2024-02-29", "2024-02"},
		{"sin vista usa mes de hoy", "", "", "", "", "2025-01-01", "2025-01-31", "2025-01"},
		{"personalizado", "personalizado", "", "2025-01-10", "2025-03-01", "2025-01-10", "2025-03-01", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := analytics.ResolveRange(tc.vista, tc.fecha, tc.desde, tc.hasta, today)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDesde, r.Desde.Format("2006-01-02"))
			assert.Equal(t, tc.wantHa, r.Hasta.Format("2006-01-02"))
			assert.Equal(t, tc.wantClave, r.Clave)
		})
	}
}

func TestResolveRange_Errores(t *testing.T) {
	cases := map[string][4]string{
		"vista desconocida":       {"anual", "", "", ""},
		"fecha inválida":          {"diario", "15/01/2025", "", ""},
		"personalizado sin hasta": {"personalizado", "", "2025-01-01", ""},
		"hasta antes que desde":   {"personalizado", "", "2025-02-01", "2025-01-01"},
		"más de 366 días":         {"personalizado", "", "2024-01-01", "2025-01-02"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := analytics.ResolveRange(in[0], in[1], in[2], in[3], today)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRange_ContainsYDias(t *testing.T) {
	r := mustRange(t, "personalizado", "", "2024-01-01", "2024-12-31")
	assert.Equal(t, 366, r.Days())
	assert.True(t, r.Contains("2024-01-01"))
	assert.True(t, r.Contains("2024-12-31"))
	assert.False(t, r.Contains("2025-01-01"))
	assert.False(t, r.Contains("no-es-fecha"))
	assert.Empty(t, r.FallbackGranularity())
}
