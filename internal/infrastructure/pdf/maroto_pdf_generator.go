// Package pdf genera el "Parte Diario de Producción" de un reporte de obra.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Parte diario + Bloque  │  Fecha + Residente         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ACTIVIDADES: Proceso | Und | Metrado | P.U. | Valor | Horas │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MANO DE OBRA: Trabajador | Categoría | Horas | Costo        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Valor / Costo MO / Ganancia / Horas                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 196, Green: 98, Blue: 16}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator arma el parte diario con Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateReportPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateReportPDF(_ context.Context, in ports.ExportInput) ([]byte, error) {
	if in.Report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	contribution := in.Contribution
	if contribution == nil {
		c, err := production.Consolidate(in.Activities, in.Labor)
		if err != nil {
			return nil, fmt.Errorf("pdf: consolidar: %w", err)
		}
		contribution = c
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Parte diario "+in.Report.Fecha, true).
		WithAuthor(nonEmpty(in.Report.CreadoPor, "obra-dashboard"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(in.Report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow("ACTIVIDADES"))
	m.AddRows(activityHeaderRow())
	m.AddRows(activityRows(in.Activities, contribution)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionRow("MANO DE OBRA"))
	m.AddRows(laborHeaderRow())
	m.AddRows(laborRows(contribution)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(totalsRow(contribution))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r *entity.Report) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("PARTE DIARIO DE PRODUCCIÓN", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Bloque: "+nonEmpty(r.Bloque, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Fecha: "+r.Fecha, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 2,
			}),
			text.New("Residente: "+nonEmpty(r.CreadoPor, "—"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
			text.New("Reporte "+r.ID, props.Text{
				Size: 7, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2}),
	))
}

func headerCol(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func cell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
}

func activityHeaderRow() core.Row {
	return row.New(7).Add(
		headerCol("Proceso", 3, align.Left),
		headerCol("Und.", 1, align.Center),
		headerCol("Metrado", 2, align.Right),
		headerCol("P.U.", 1, align.Right),
		headerCol("Valor", 2, align.Right),
		headerCol("Horas", 1, align.Right),
		headerCol("Costo MO", 2, align.Right),
	)
}

// activityRows una fila por actividad del reporte, en su orden de captura.
// Horas y costo salen del aporte consolidado de la actividad.
func activityRows(activities []entity.Activity, c *production.Contribution) []core.Row {
	out := make([]core.Row, 0, len(activities))
	for _, a := range production.SortActivities(activities) {
		horas, costo := decimal.Zero, decimal.Zero
		if t, ok := c.Actividades[production.ActivityKey(a)]; ok {
			horas, costo = t.Horas, t.CostoMO
		}
		out = append(out, row.New(6).Add(
			cell(a.Proceso, 3, align.Left),
			cell(a.Unidad, 1, align.Center),
			cell(a.MetradoEjecutado.StringFixed(2), 2, align.Right),
			cell(formatMoney(a.PrecioUnitario), 1, align.Right),
			cell(formatMoney(a.MetradoEjecutado.Mul(a.PrecioUnitario)), 2, align.Right),
			cell(horas.StringFixed(1), 1, align.Right),
			cell(formatMoney(costo), 2, align.Right),
		))
	}
	return out
}

func laborHeaderRow() core.Row {
	return row.New(7).Add(
		headerCol("Trabajador", 5, align.Left),
		headerCol("Categoría", 3, align.Left),
		headerCol("Horas", 2, align.Right),
		headerCol("Costo", 2, align.Right),
	)
}

func laborRows(c *production.Contribution) []core.Row {
	keys := make([]string, 0, len(c.Trabajadores))
	for k := range c.Trabajadores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]core.Row, 0, len(keys))
	for _, k := range keys {
		w := c.Trabajadores[k]
		name := w.Nombre
		if w.DNI != "" {
			name += " (" + w.DNI + ")"
		}
		out = append(out, row.New(6).Add(
			cell(name, 5, align.Left),
			cell(w.Categoria, 3, align.Left),
			cell(w.Horas.StringFixed(1), 2, align.Right),
			cell(formatMoney(w.Costo), 2, align.Right),
		))
	}
	return out
}

func totalsRow(c *production.Contribution) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, color *props.Color) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Color: color})
	}
	ganancia := c.ValorTotal.Sub(c.CostoTotal)
	gananciaColor := colorPrimary
	if ganancia.IsNegative() {
		gananciaColor = colorRed
	}
	return row.New(24).Add(
		col.New(6),
		col.New(3).Add(
			label("Valor producido:"),
			label("Costo mano de obra:"),
			label("Ganancia:"),
			label("Horas totales:"),
		),
		col.New(3).Add(
			value(formatMoney(c.ValorTotal), nil),
			value(formatMoney(c.CostoTotal), nil),
			value(formatMoney(ganancia), gananciaColor),
			value(c.HorasTotales.StringFixed(1), nil),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney "S/ 1,234.50"; las comas separan miles.
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "S/ " + string(buf) + "." + frac
}
