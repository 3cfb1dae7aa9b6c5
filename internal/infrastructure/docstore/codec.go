package docstore

import (
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/shopspring/decimal"
)

func str(doc map[string]any, path string) string {
	v, _ := GetPath(doc, SplitPath(path))
	s, _ := v.(string)
	return s
}

func flag(doc map[string]any, path string) bool {
	v, _ := GetPath(doc, SplitPath(path))
	b, _ := v.(bool)
	return b
}

func num(doc map[string]any, path string) decimal.Decimal {
	v, _ := GetPath(doc, SplitPath(path))
	f, ok := ToFloat(v)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func integer(doc map[string]any, path string) int {
	v, _ := GetPath(doc, SplitPath(path))
	f, _ := ToFloat(v)
	return int(f)
}

func timestamp(doc map[string]any, path string) *time.Time {
	v, _ := GetPath(doc, SplitPath(path))
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// ReportToDocument codifica los campos propios del reporte (sin subcolecciones).
func ReportToDocument(r *entity.Report) map[string]any {
	return map[string]any{
		"fecha":     r.Fecha,
		"creadoPor": r.CreadoPor,
		"bloque":    r.Bloque,
		"estado":    r.Estado,
		"exportId":  r.ExportID,
		"exportUrl": r.ExportURL,
		"pasos": map[string]any{
			"exportOK":       r.Pasos.ExportOK,
			"exportError":    r.Pasos.ExportError,
			"dashboardOK":    r.Pasos.DashboardOK,
			"dashboardError": r.Pasos.DashboardError,
			"almacenError":   r.Pasos.AlmacenError,
		},
		"almacenIngestado":  r.AlmacenIngestado,
		"errorMensaje":      r.ErrorMensaje,
		"rectificacionFase": r.RectificacionFase,
		"rectificacionNota": r.RectificacionNota,
	}
}

// DocumentToReport decodifica un documento de Reports.
func DocumentToReport(id string, doc repository.Document) *entity.Report {
	r := &entity.Report{
		ID:        id,
		Fecha:     str(doc, "fecha"),
		CreadoPor: str(doc, "creadoPor"),
		Bloque:    str(doc, "bloque"),
		Estado:    str(doc, entity.FieldEstado),
		ExportID:  str(doc, entity.FieldExportID),
		ExportURL: str(doc, entity.FieldExportURL),
		Pasos: entity.ReportSteps{
			ExportOK:       flag(doc, entity.FieldPasosExportOK),
			ExportError:    str(doc, entity.FieldPasosExportError),
			DashboardOK:    flag(doc, entity.FieldPasosDashboardOK),
			DashboardError: str(doc, entity.FieldPasosDashboardErr),
			AlmacenError:   str(doc, entity.FieldPasosAlmacenError),
		},
		AlmacenIngestado:  flag(doc, entity.FieldAlmacenIngestado),
		ErrorMensaje:      str(doc, entity.FieldErrorMensaje),
		RectificacionFase: str(doc, entity.FieldRectFase),
		RectificacionNota: str(doc, entity.FieldRectNota),
		RectificadoEn:     timestamp(doc, entity.FieldRectificadoEn),
	}
	if t := timestamp(doc, entity.FieldCreatedAt); t != nil {
		r.CreatedAt = *t
	}
	if t := timestamp(doc, entity.FieldUpdatedAt); t != nil {
		r.UpdatedAt = *t
	}
	return r
}

// ActivityToDocument codifica una actividad.
func ActivityToDocument(a entity.Activity) map[string]any {
	return map[string]any{
		"orden":             a.Orden,
		"proceso":           a.Proceso,
		"unidad":            a.Unidad,
		"ubicacion":         a.Ubicacion,
		"metradoProgramado": toFloat(a.MetradoProgramado),
		"metradoEjecutado":  toFloat(a.MetradoEjecutado),
		"precioUnitario":    toFloat(a.PrecioUnitario),
		"valor":             toFloat(a.Valor),
		"causas":            a.Causas,
		"comentarios":       a.Comentarios,
	}
}

// DocumentToActivity decodifica una actividad.
func DocumentToActivity(id string, doc repository.Document) entity.Activity {
	return entity.Activity{
		ID:                id,
		Orden:             integer(doc, "orden"),
		Proceso:           str(doc, "proceso"),
		Unidad:            str(doc, "unidad"),
		Ubicacion:         str(doc, "ubicacion"),
		MetradoProgramado: num(doc, "metradoProgramado"),
		MetradoEjecutado:  num(doc, "metradoEjecutado"),
		PrecioUnitario:    num(doc, "precioUnitario"),
		Valor:             num(doc, "valor"),
		Causas:            str(doc, "causas"),
		Comentarios:       str(doc, "comentarios"),
	}
}

// HoursToArray codifica el arreglo posicional de horas.
func HoursToArray(horas []decimal.Decimal) []any {
	out := make([]any, len(horas))
	for i, h := range horas {
		out[i] = toFloat(h)
	}
	return out
}

// LaborToDocument codifica una entrada de mano de obra.
func LaborToDocument(l entity.LaborEntry) map[string]any {
	return map[string]any{
		"orden":         l.Orden,
		"nombre":        l.Nombre,
		"dni":           l.DNI,
		"categoria":     l.Categoria,
		"horas":         HoursToArray(l.Horas),
		"totalHoras":    toFloat(l.TotalHoras),
		"costo":         toFloat(l.Costo),
		"observaciones": l.Observaciones,
	}
}

// DocumentToLabor decodifica una entrada de mano de obra.
func DocumentToLabor(id string, doc repository.Document) entity.LaborEntry {
	l := entity.LaborEntry{
		ID:            id,
		Orden:         integer(doc, "orden"),
		Nombre:        str(doc, "nombre"),
		DNI:           str(doc, "dni"),
		Categoria:     str(doc, "categoria"),
		TotalHoras:    num(doc, "totalHoras"),
		Costo:         num(doc, "costo"),
		Observaciones: str(doc, "observaciones"),
	}
	if arr, ok := doc["horas"].([]any); ok {
		l.Horas = make([]decimal.Decimal, len(arr))
		for i, v := range arr {
			f, _ := ToFloat(v)
			l.Horas[i] = decimal.NewFromFloat(f)
		}
	}
	return l
}

// DocumentToLink decodifica una entrada de Reportes_Links.
func DocumentToLink(id string, doc repository.Document) entity.ReportLink {
	l := entity.ReportLink{
		ReportID:     id,
		CreadoPor:    str(doc, "creadoPor"),
		Fecha:        str(doc, "fecha"),
		Bloque:       str(doc, "bloque"),
		CostoTotal:   toFloat(num(doc, "costoTotal")),
		ValorTotal:   toFloat(num(doc, "valorTotal")),
		HorasTotales: toFloat(num(doc, "horasTotales")),
		Ganancia:     toFloat(num(doc, "ganancia")),
		ExportURL:    str(doc, "exportUrl"),
	}
	if t := timestamp(doc, "updatedAt"); t != nil {
		l.UpdatedAt = *t
	}
	return l
}
