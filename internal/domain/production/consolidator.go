package production

import (
	"fmt"
	"sort"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CategoryTotals horas o costos desglosados por categoría de mano de obra.
type CategoryTotals struct {
	Operario decimal.Decimal
	Oficial  decimal.Decimal
	Peon     decimal.Decimal
	Otros    decimal.Decimal
}

func (c *CategoryTotals) add(categoria string, v decimal.Decimal) {
	switch CategoryBucket(categoria) {
	case "Operario":
		c.Operario = c.Operario.Add(v)
	case "Oficial":
		c.Oficial = c.Oficial.Add(v)
	case "Peon":
		c.Peon = c.Peon.Add(v)
	default:
		c.Otros = c.Otros.Add(v)
	}
}

// ActivityTotals aporte de un reporte a una actividad.
type ActivityTotals struct {
	Key     string
	Nombre  string
	Unidad  string
	Metrado decimal.Decimal
	Horas   decimal.Decimal
	CostoMO decimal.Decimal
	Valor   decimal.Decimal

	HorasPorCategoria CategoryTotals
	CostoPorCategoria CategoryTotals
}

// WorkerTotals aporte de un reporte a un trabajador.
type WorkerTotals struct {
	Key              string
	Nombre           string
	DNI              string
	Categoria        string
	Horas            decimal.Decimal
	Costo            decimal.Decimal
	MetradoAtribuido decimal.Decimal
	ValorAtribuido   decimal.Decimal
}

// Contribution resultado de consolidar un reporte. Solo vive en memoria.
type Contribution struct {
	Actividades  map[string]*ActivityTotals
	Trabajadores map[string]*WorkerTotals
	CostoTotal   decimal.Decimal
	ValorTotal   decimal.Decimal
	HorasTotales decimal.Decimal
}

// EmptyContribution aporte vacío; revertirlo solo descuenta el conteo de reportes.
func EmptyContribution() *Contribution {
	return &Contribution{
		Actividades:  map[string]*ActivityTotals{},
		Trabajadores: map[string]*WorkerTotals{},
	}
}

// IsEmpty true si el aporte no tiene actividades ni trabajadores.
func (c *Contribution) IsEmpty() bool {
	return len(c.Actividades) == 0 && len(c.Trabajadores) == 0
}

// Ganancia valor producido menos costo de mano de obra.
func (c *Contribution) Ganancia() decimal.Decimal {
	return c.ValorTotal.Sub(c.CostoTotal)
}

// HoursJoin horas de un trabajador indexadas por id de actividad.
type HoursJoin map[string]decimal.Decimal

// SortActivities ordena por Orden (estable) sin modificar el slice original.
func SortActivities(activities []entity.Activity) []entity.Activity {
	out := make([]entity.Activity, len(activities))
	copy(out, activities)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Orden < out[j].Orden })
	return out
}

// JoinHours valida la alineación posicional entre actividades y arreglos de
// horas y la convierte en un join explícito actividad → horas por trabajador.
// Un arreglo ausente o vacío se rellena con ceros; cualquier otro largo es error.
// activities debe venir ordenado por Orden.
func JoinHours(activities []entity.Activity, labor []entity.LaborEntry) ([]HoursJoin, error) {
	joins := make([]HoursJoin, len(labor))
	for j, l := range labor {
		join := make(HoursJoin, len(activities))
		switch {
		case len(l.Horas) == 0:
			for _, a := range activities {
				join[a.ID] = decimal.Zero
			}
		case len(l.Horas) != len(activities):
			return nil, fmt.Errorf("%w: trabajador #%d (id %s, %s) tiene %d horas para %d actividades",
				domain.ErrHoursMismatch, j, l.ID, WorkerKey(l), len(l.Horas), len(activities))
		default:
			for i, a := range activities {
				h := l.Horas[i]
				if h.IsNegative() {
					return nil, fmt.Errorf("%w: trabajador #%d (%s) tiene horas negativas en la actividad %d",
						domain.ErrInvalidInput, j, WorkerKey(l), i)
				}
				join[a.ID] = join[a.ID].Add(h)
			}
		}
		joins[j] = join
	}
	return joins, nil
}

// Consolidate calcula el aporte de un reporte a partir de sus actividades y su
// mano de obra. Función pura: no hace I/O.
//
// Primera pasada: horas totales y valor (metrado × precio) por actividad.
// Segunda pasada: por trabajador y actividad con horas > 0, costo = horas × tarifa
// y metrado atribuido = metrado × horasTrabajador / horasActividad (cero si la
// actividad no tiene horas).
func Consolidate(activities []entity.Activity, labor []entity.LaborEntry) (*Contribution, error) {
	acts := SortActivities(activities)
	joins, err := JoinHours(acts, labor)
	if err != nil {
		return nil, err
	}

	activityHours := make(map[string]decimal.Decimal, len(acts))
	for _, join := range joins {
		for _, a := range acts {
			activityHours[a.ID] = activityHours[a.ID].Add(join[a.ID])
		}
	}

	c := EmptyContribution()
	for _, a := range acts {
		if a.MetradoEjecutado.IsNegative() || a.PrecioUnitario.IsNegative() {
			return nil, fmt.Errorf("%w: actividad %q con metrado o precio negativo", domain.ErrInvalidInput, a.Proceso)
		}
		key := ActivityKey(a)
		t, ok := c.Actividades[key]
		if !ok {
			t = &ActivityTotals{Key: key, Nombre: a.Proceso, Unidad: a.Unidad}
			c.Actividades[key] = t
		}
		value := a.MetradoEjecutado.Mul(a.PrecioUnitario)
		t.Metrado = t.Metrado.Add(a.MetradoEjecutado)
		t.Valor = t.Valor.Add(value)
		c.ValorTotal = c.ValorTotal.Add(value)
	}

	for j, l := range labor {
		wkey := WorkerKey(l)
		w, ok := c.Trabajadores[wkey]
		if !ok {
			w = &WorkerTotals{Key: wkey, Nombre: l.Nombre, DNI: l.DNI, Categoria: NormalizeCategory(l.Categoria)}
			c.Trabajadores[wkey] = w
		}
		rate := CategoryRate(l.Categoria)
		for _, a := range acts {
			h := joins[j][a.ID]
			if !h.IsPositive() {
				continue
			}
			cost := h.Mul(rate)
			attributed := attributedQuantity(a.MetradoEjecutado, h, activityHours[a.ID])

			t := c.Actividades[ActivityKey(a)]
			t.Horas = t.Horas.Add(h)
			t.CostoMO = t.CostoMO.Add(cost)
			t.HorasPorCategoria.add(l.Categoria, h)
			t.CostoPorCategoria.add(l.Categoria, cost)

			w.Horas = w.Horas.Add(h)
			w.Costo = w.Costo.Add(cost)
			w.MetradoAtribuido = w.MetradoAtribuido.Add(attributed)
			w.ValorAtribuido = w.ValorAtribuido.Add(attributed.Mul(a.PrecioUnitario))

			c.CostoTotal = c.CostoTotal.Add(cost)
			c.HorasTotales = c.HorasTotales.Add(h)
		}
	}
	return c, nil
}

// ActivityHours horas totales por actividad (en el orden de Orden).
func ActivityHours(activities []entity.Activity, labor []entity.LaborEntry) ([]decimal.Decimal, error) {
	acts := SortActivities(activities)
	joins, err := JoinHours(acts, labor)
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, len(acts))
	for i, a := range acts {
		for _, join := range joins {
			out[i] = out[i].Add(join[a.ID])
		}
	}
	return out, nil
}

func attributedQuantity(metrado, workerHours, activityHours decimal.Decimal) decimal.Decimal {
	if activityHours.IsZero() {
		return decimal.Zero
	}
	return metrado.Mul(workerHours).Div(activityHours)
}
