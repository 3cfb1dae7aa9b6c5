package production

import "github.com/jhoicas/obra-dashboard/internal/domain/entity"

// BuildFactRows proyecta un reporte a las filas del almacén analítico:
// una fila de hechos por actividad × trabajador con horas > 0 y una fila de
// resumen diario. Ganancia y productividad solo se exponen aquí.
func BuildFactRows(
	report *entity.Report,
	activities []entity.Activity,
	labor []entity.LaborEntry,
) ([]entity.FactRow, entity.DailySummaryRow, error) {
	fecha, err := ParseDate(report.Fecha)
	if err != nil {
		return nil, entity.DailySummaryRow{}, err
	}
	acts := SortActivities(activities)
	joins, err := JoinHours(acts, labor)
	if err != nil {
		return nil, entity.DailySummaryRow{}, err
	}
	hours, err := ActivityHours(acts, labor)
	if err != nil {
		return nil, entity.DailySummaryRow{}, err
	}

	summary := entity.DailySummaryRow{
		ReportID:         report.ID,
		Fecha:            fecha,
		Bloque:           report.Bloque,
		CreadoPor:        report.CreadoPor,
		TotalActividades: len(acts),
	}
	workers := make(map[string]struct{}, len(labor))

	var rows []entity.FactRow
	for i, a := range acts {
		summary.ValorTotal = summary.ValorTotal.Add(a.MetradoEjecutado.Mul(a.PrecioUnitario))
		for j, l := range labor {
			h := joins[j][a.ID]
			if !h.IsPositive() {
				continue
			}
			cost := h.Mul(CategoryRate(l.Categoria))
			attributed := attributedQuantity(a.MetradoEjecutado, h, hours[i])
			value := attributed.Mul(a.PrecioUnitario)
			rows = append(rows, entity.FactRow{
				ReportID:         report.ID,
				Fecha:            fecha,
				Bloque:           report.Bloque,
				ActividadID:      ActivityKey(a),
				Actividad:        a.Proceso,
				Unidad:           a.Unidad,
				TrabajadorID:     WorkerKey(l),
				Trabajador:       l.Nombre,
				Categoria:        NormalizeCategory(l.Categoria),
				Horas:            h,
				Costo:            cost.Round(2),
				MetradoAtribuido: attributed.Round(4),
				ValorAtribuido:   value.Round(2),
				Ganancia:         value.Sub(cost).Round(2),
				Productividad:    attributed.Div(h).Round(4),
			})
			summary.CostoTotal = summary.CostoTotal.Add(cost)
			summary.HorasTotales = summary.HorasTotales.Add(h)
		}
	}
	for _, l := range labor {
		workers[WorkerKey(l)] = struct{}{}
	}
	summary.TotalTrabajadores = len(workers)
	summary.Ganancia = summary.ValorTotal.Sub(summary.CostoTotal).Round(2)
	summary.CostoTotal = summary.CostoTotal.Round(2)
	summary.ValorTotal = summary.ValorTotal.Round(2)
	return rows, summary, nil
}
