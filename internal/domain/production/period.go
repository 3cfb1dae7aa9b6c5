package production

import (
	"fmt"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
)

// DateLayout formato de la fecha del reporte.
const DateLayout = "2006-01-02"

// PeriodKeys claves de los tres buckets de un reporte.
type PeriodKeys struct {
	Diario  string // YYYY-MM-DD
	Semanal string // YYYY-Www (ISO-8601)
	Mensual string // YYYY-MM
}

// For devuelve la clave de la granularidad indicada.
func (k PeriodKeys) For(granularity string) string {
	switch granularity {
	case entity.GranularityWeekly:
		return k.Semanal
	case entity.GranularityMonthly:
		return k.Mensual
	default:
		return k.Diario
	}
}

// ParseDate interpreta una fecha YYYY-MM-DD en UTC.
func ParseDate(fecha string) (time.Time, error) {
	t, err := time.Parse(DateLayout, fecha)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q no tiene formato YYYY-MM-DD", domain.ErrInvalidInput, fecha)
	}
	return t, nil
}

// DerivePeriodKeys calcula las claves diaria, semanal ISO y mensual de una fecha.
// La clave diaria es la fecha tal cual.
func DerivePeriodKeys(fecha string) (PeriodKeys, error) {
	t, err := ParseDate(fecha)
	if err != nil {
		return PeriodKeys{}, err
	}
	return PeriodKeys{Diario: fecha, Semanal: WeekKey(t), Mensual: MonthKey(t)}, nil
}

// WeekKey semana ISO-8601: la primera semana del año es la que contiene su primer jueves.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey mes calendario YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// WeekRange lunes y domingo de una clave YYYY-Www.
func WeekRange(key string) (time.Time, time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(key, "%4d-W%2d", &year, &week); err != nil || len(key) != 8 || week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: semana %q no tiene formato YYYY-Www", domain.ErrInvalidInput, key)
	}
	// El 4 de enero siempre cae en la semana 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
	if y, w := monday.ISOWeek(); y != year || w != week {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: el año %d no tiene semana %d", domain.ErrInvalidInput, year, week)
	}
	return monday, monday.AddDate(0, 0, 6), nil
}

// MonthRange primer y último día de una clave YYYY-MM.
func MonthRange(key string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: mes %q no tiene formato YYYY-MM", domain.ErrInvalidInput, key)
	}
	return start, start.AddDate(0, 1, -1), nil
}
