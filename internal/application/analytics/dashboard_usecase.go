// Package analytics contiene los casos de uso de lectura del dashboard de
// producción: reconciliación de agregados por rango, resumen del periodo y
// ranking de trabajadores.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
)

const defaultRankingLimit = 10

// Criterios del ranking de trabajadores.
const (
	CriterionProductivity = "productividad"
	CriterionHours        = "horas"
	CriterionCost         = "costo"
)

// DashboardUseCase arma las vistas del dashboard a partir del reconciliador.
//
// Fuente de datos: colecciones de agregados (solo lectura). No recorre los
// reportes; la corrección depende únicamente de los buckets diarios.
type DashboardUseCase struct {
	reconciler *Reconciler
	now        func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(reconciler *Reconciler) *DashboardUseCase {
	return &DashboardUseCase{reconciler: reconciler, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO del periodo pedido.
//
// Tres lecturas en paralelo:
//  1. General(rango)     → totales
//  2. Activities(rango)  → filas de actividad + costo por categoría
//  3. Workers(rango)     → filas de trabajador
func (uc *DashboardUseCase) GetSummary(ctx context.Context, q dto.DashboardQuery) (*dto.DashboardSummaryDTO, error) {
	rng, err := ResolveRange(q.Vista, q.Fecha, q.Desde, q.Hasta, uc.now())
	if err != nil {
		return nil, err
	}

	// ── Goroutines para paralelizar las 3 lecturas ────────────────────────────
	type generalResult struct {
		totals *GeneralTotals
		fuente string
		err    error
	}
	type activitiesResult struct {
		rows []ActivityRow
		err  error
	}
	type workersResult struct {
		rows []WorkerRow
		err  error
	}

	generalCh := make(chan generalResult, 1)
	activitiesCh := make(chan activitiesResult, 1)
	workersCh := make(chan workersResult, 1)

	go func() {
		t, f, err := uc.reconciler.General(ctx, rng)
		generalCh <- generalResult{t, f, err}
	}()
	go func() {
		rows, _, err := uc.reconciler.Activities(ctx, rng)
		activitiesCh <- activitiesResult{rows, err}
	}()
	go func() {
		rows, _, err := uc.reconciler.Workers(ctx, rng)
		workersCh <- workersResult{rows, err}
	}()

	general := <-generalCh
	activities := <-activitiesCh
	workers := <-workersCh

	if general.err != nil {
		return nil, fmt.Errorf("dashboard: totales: %w", general.err)
	}
	if activities.err != nil {
		return nil, fmt.Errorf("dashboard: actividades: %w", activities.err)
	}
	if workers.err != nil {
		return nil, fmt.Errorf("dashboard: trabajadores: %w", workers.err)
	}

	// ── Construir DTO ──────────────────────────────────────────────────────────
	t := general.totals
	out := &dto.DashboardSummaryDTO{
		Periodo: periodDTO(rng),
		Fuente:  general.fuente,
		Totales: dto.GeneralTotalsDTO{
			CostoTotal:        money(t.CostoTotal),
			ValorTotal:        money(t.ValorTotal),
			Ganancia:          money(t.Ganancia),
			HorasTotales:      money(t.HorasTotales),
			TotalReportes:     count(t.TotalReportes),
			TotalTrabajadores: count(t.TotalTrabajadores),
			CostoHora:         money(ratio(t.CostoTotal, t.HorasTotales)),
		},
		Actividades:  make([]dto.ActivitySummaryDTO, 0, len(activities.rows)),
		Trabajadores: make([]dto.WorkerSummaryDTO, 0, len(workers.rows)),
	}

	var horas, costos CategoryAmounts
	for _, a := range activities.rows {
		out.Actividades = append(out.Actividades, dto.ActivitySummaryDTO{
			ID:            a.ID,
			Nombre:        a.Nombre,
			Unidad:        a.Unidad,
			Metrado:       money(a.Metrado),
			Horas:         money(a.Horas),
			CostoMO:       money(a.CostoMO),
			Valor:         money(a.Valor),
			Ganancia:      money(a.Valor - a.CostoMO),
			Productividad: money(a.Productividad()),
			CostoUnitario: money(ratio(a.CostoMO, a.Metrado)),
		})
		horas = addAmounts(horas, a.HorasCategoria)
		costos = addAmounts(costos, a.CostoCategoria)
	}
	for _, w := range workers.rows {
		out.Trabajadores = append(out.Trabajadores, workerDTO(w))
	}
	out.CostoPorCategoria = []dto.CategoryCostDTO{
		{Categoria: "Operario", Horas: money(horas.Operario), Costo: money(costos.Operario)},
		{Categoria: "Oficial", Horas: money(horas.Oficial), Costo: money(costos.Oficial)},
		{Categoria: "Peon", Horas: money(horas.Peon), Costo: money(costos.Peon)},
		{Categoria: "Otros", Horas: money(horas.Otros), Costo: money(costos.Otros)},
	}
	return out, nil
}

// GetWorkerRanking ordena a los trabajadores del periodo según el criterio.
// Los trabajadores sin horas quedan fuera del ranking de productividad.
func (uc *DashboardUseCase) GetWorkerRanking(ctx context.Context, q dto.WorkerRankingQuery) (*dto.WorkerRankingDTO, error) {
	r := q.Range()
	rng, err := ResolveRange(r.Vista, r.Fecha, r.Desde, r.Hasta, uc.now())
	if err != nil {
		return nil, err
	}
	criterio := q.Criterio
	if criterio == "" {
		criterio = CriterionProductivity
	}
	limit := q.Limite
	if limit <= 0 {
		limit = defaultRankingLimit
	}

	rows, _, err := uc.reconciler.Workers(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}

	key := func(w WorkerRow) float64 {
		switch criterio {
		case CriterionHours:
			return w.Horas
		case CriterionCost:
			return w.Costo
		default:
			return w.Productividad()
		}
	}
	if criterio == CriterionProductivity {
		filtered := rows[:0]
		for _, w := range rows {
			if w.Horas > 0 {
				filtered = append(filtered, w)
			}
		}
		rows = filtered
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if ki, kj := key(rows[i]), key(rows[j]); ki != kj {
			return ki > kj
		}
		return rows[i].ID < rows[j].ID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := &dto.WorkerRankingDTO{
		Periodo:      periodDTO(rng),
		Criterio:     criterio,
		Trabajadores: make([]dto.RankedWorkerDTO, 0, len(rows)),
	}
	for i, w := range rows {
		out.Trabajadores = append(out.Trabajadores, dto.RankedWorkerDTO{Rank: i + 1, WorkerSummaryDTO: workerDTO(w)})
	}
	return out, nil
}

// Digest resumen textual compacto que se envía al proveedor de IA.
func Digest(s *dto.DashboardSummaryDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Periodo: %s (%s a %s)\n", s.Periodo.Etiqueta, s.Periodo.Desde, s.Periodo.Hasta)
	fmt.Fprintf(&b, "Totales: costo=%s valor=%s ganancia=%s horas=%s reportes=%d trabajadores=%d costo_hora=%s\n",
		s.Totales.CostoTotal, s.Totales.ValorTotal, s.Totales.Ganancia, s.Totales.HorasTotales,
		s.Totales.TotalReportes, s.Totales.TotalTrabajadores, s.Totales.CostoHora)
	b.WriteString("Actividades:\n")
	for _, a := range s.Actividades {
		fmt.Fprintf(&b, "- %s [%s]: metrado=%s horas=%s costo_mo=%s valor=%s productividad=%s\n",
			a.Nombre, a.Unidad, a.Metrado, a.Horas, a.CostoMO, a.Valor, a.Productividad)
	}
	b.WriteString("Trabajadores:\n")
	for _, w := range s.Trabajadores {
		fmt.Fprintf(&b, "- %s (%s): horas=%s costo=%s metrado=%s productividad=%s\n",
			w.Nombre, w.Categoria, w.Horas, w.Costo, w.Metrado, w.Productividad)
	}
	b.WriteString("Costo por categoría:\n")
	for _, c := range s.CostoPorCategoria {
		fmt.Fprintf(&b, "- %s: horas=%s costo=%s\n", c.Categoria, c.Horas, c.Costo)
	}
	return b.String()
}

func workerDTO(w WorkerRow) dto.WorkerSummaryDTO {
	return dto.WorkerSummaryDTO{
		ID:            w.ID,
		Nombre:        w.Nombre,
		DNI:           w.DNI,
		Categoria:     w.Categoria,
		Horas:         money(w.Horas),
		Costo:         money(w.Costo),
		Metrado:       money(w.Metrado),
		Valor:         money(w.Valor),
		Reportes:      count(w.Reportes),
		Productividad: money(w.Productividad()),
		CostoHora:     money(w.CostoHora()),
	}
}

func periodDTO(r Range) dto.PeriodDTO {
	return dto.PeriodDTO{
		Vista:    r.Vista,
		Desde:    r.Desde.Format(production.DateLayout),
		Hasta:    r.Hasta.Format(production.DateLayout),
		Clave:    r.Clave,
		Etiqueta: periodLabel(r),
	}
}

// periodLabel etiqueta legible del periodo, ej: "Enero 2025" o "Semana 03 de 2025".
func periodLabel(r Range) string {
	switch r.Vista {
	case ViewDaily:
		return fmt.Sprintf("%d de %s", r.Desde.Day(), monthLabel(r.Desde))
	case ViewWeekly:
		year, week := r.Desde.ISOWeek()
		return fmt.Sprintf("Semana %02d de %d", week, year)
	case ViewMonthly:
		return monthLabel(r.Desde)
	}
	return fmt.Sprintf("%s al %s", r.Desde.Format(production.DateLayout), r.Hasta.Format(production.DateLayout))
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}

func addAmounts(a, b CategoryAmounts) CategoryAmounts {
	return CategoryAmounts{a.Operario + b.Operario, a.Oficial + b.Oficial, a.Peon + b.Peon, a.Otros + b.Otros}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func count(v float64) int {
	return int(decimal.NewFromFloat(v).Round(0).IntPart())
}
