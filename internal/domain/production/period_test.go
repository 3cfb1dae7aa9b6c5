package production_test

import (
	"testing"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePeriodKeys_SemanaISO(t *testing.T) {
	cases := []struct {
		fecha, semana, mes string
	}{
		{"2025-01-01", "2025-W01", "2025-01"},
		{"2021-01-01", "2020-W53", "2021-01"},
		{"2024-12-30", "2025-W01", "2024-12"},
		{"2024-02-29", "2024-W09", "2024-02"},
		{"2026-10-16", "2026-W42", "2026-10"},
		{"2023-01-01", "2022-W52", "2023-01"},
	}
	for _, tc := range cases {
		keys, err := production.DerivePeriodKeys(tc.fecha)
		require.NoError(t, err, tc.fecha)
		assert.Equal(t, tc.fecha, keys.Diario)
		assert.Equal(t, tc.semana, keys.Semanal, tc.fecha)
		assert.Equal(t, tc.mes, keys.Mensual, tc.fecha)
		assert.Equal(t, tc.semana, keys.For(entity.GranularityWeekly))
	}
}

func TestDerivePeriodKeys_FechaInvalida(t *testing.T) {
	_, err := production.DerivePeriodKeys("16/10/2026")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWeekRange(t *testing.T) {
	start, end, err := production.WeekRange("2020-W53")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), end)

	start, _, err = production.WeekRange("2025-W01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), start)

	_, _, err = production.WeekRange("2025-W53")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "2025 solo tiene 52 semanas ISO")
}

func TestMonthRange(t *testing.T) {
	start, end, err := production.MonthRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, 29, end.Day())
}
