package analytics

import (
	"fmt"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
)

// Vistas del dashboard.
const (
	ViewDaily   = entity.GranularityDaily
	ViewWeekly  = entity.GranularityWeekly
	ViewMonthly = entity.GranularityMonthly
	ViewCustom  = "personalizado"
)

// MaxCustomRangeDays límite de días de un rango personalizado.
const MaxCustomRangeDays = 366

// Range rango de fechas inclusivo de una consulta del dashboard.
type Range struct {
	Vista string
	Clave string // clave del periodo de la vista; vacía en personalizado
	Desde time.Time
	Hasta time.Time
}

// ResolveRange traduce los parámetros de la vista a un rango concreto.
// Sin vista se usa la mensual; sin fecha, today.
func ResolveRange(vista, fecha, desde, hasta string, today time.Time) (Range, error) {
	if vista == "" {
		vista = ViewMonthly
	}
	if vista == ViewCustom {
		return customRange(desde, hasta)
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if fecha != "" {
		t, err := production.ParseDate(fecha)
		if err != nil {
			return Range{}, err
		}
		day = t
	}

	switch vista {
	case ViewDaily:
		return Range{Vista: vista, Clave: day.Format(production.DateLayout), Desde: day, Hasta: day}, nil
	case ViewWeekly:
		key := production.WeekKey(day)
		from, to, err := production.WeekRange(key)
		if err != nil {
			return Range{}, err
		}
		return Range{Vista: vista, Clave: key, Desde: from, Hasta: to}, nil
	case ViewMonthly:
		key := production.MonthKey(day)
		from, to, err := production.MonthRange(key)
		if err != nil {
			return Range{}, err
		}
		return Range{Vista: vista, Clave: key, Desde: from, Hasta: to}, nil
	}
	return Range{}, fmt.Errorf("%w: vista %q no soportada", domain.ErrInvalidInput, vista)
}

func customRange(desde, hasta string) (Range, error) {
	if desde == "" || hasta == "" {
		return Range{}, fmt.Errorf("%w: el rango personalizado requiere desde y hasta", domain.ErrInvalidInput)
	}
	from, err := production.ParseDate(desde)
	if err != nil {
		return Range{}, err
	}
	to, err := production.ParseDate(hasta)
	if err != nil {
		return Range{}, err
	}
	if to.Before(from) {
		return Range{}, fmt.Errorf("%w: hasta (%s) es anterior a desde (%s)", domain.ErrInvalidInput, hasta, desde)
	}
	r := Range{Vista: ViewCustom, Desde: from, Hasta: to}
	if r.Days() > MaxCustomRangeDays {
		return Range{}, fmt.Errorf("%w: el rango supera %d días", domain.ErrInvalidInput, MaxCustomRangeDays)
	}
	return r, nil
}

// Days número de días del rango, ambos extremos incluidos.
func (r Range) Days() int {
	return int(r.Hasta.Sub(r.Desde).Hours()/24) + 1
}

// Contains indica si la clave diaria (YYYY-MM-DD) cae dentro del rango.
func (r Range) Contains(dayKey string) bool {
	t, err := time.Parse(production.DateLayout, dayKey)
	if err != nil {
		return false
	}
	return !t.Before(r.Desde) && !t.After(r.Hasta)
}

// FallbackGranularity bucket alternativo cuando no hay ningún dato diario.
// Solo las vistas semanal y mensual lo tienen; nunca el acumulado.
func (r Range) FallbackGranularity() string {
	switch r.Vista {
	case ViewWeekly, ViewMonthly:
		return r.Vista
	}
	return ""
}
