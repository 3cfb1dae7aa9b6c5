package export

import (
	"context"
	"fmt"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
)

var _ ports.ReportExporter = (*PDFReportExporter)(nil)

// PDFGenerator genera los bytes del parte diario.
type PDFGenerator interface {
	GenerateReportPDF(ctx context.Context, in ports.ExportInput) ([]byte, error)
}

// PDFReportExporter genera el parte en PDF y lo sube al almacenamiento de objetos.
// La clave es estable por reporte: volver a exportar sobrescribe el archivo.
type PDFReportExporter struct {
	pdf     PDFGenerator
	storage ports.ObjectStorage
	prefix  string
}

// NewPDFReportExporter construye el exportador.
func NewPDFReportExporter(pdf PDFGenerator, storage ports.ObjectStorage) *PDFReportExporter {
	return &PDFReportExporter{pdf: pdf, storage: storage, prefix: "partes"}
}

// ObjectKey clave del archivo de un reporte: partes/<fecha>/<id>.pdf
func (e *PDFReportExporter) ObjectKey(fecha, reportID string) string {
	return fmt.Sprintf("%s/%s/%s.pdf", e.prefix, fecha, reportID)
}

func (e *PDFReportExporter) Export(ctx context.Context, in ports.ExportInput) (*ports.ExportResult, error) {
	if in.Report == nil {
		return nil, fmt.Errorf("exportar: reporte vacío")
	}
	content, err := e.pdf.GenerateReportPDF(ctx, in)
	if err != nil {
		return nil, err
	}
	key := e.ObjectKey(in.Report.Fecha, in.Report.ID)
	url, err := e.storage.Put(ctx, key, content, "application/pdf")
	if err != nil {
		return nil, err
	}
	return &ports.ExportResult{ID: key, URL: url}, nil
}

// Remove borra el archivo exportado de un reporte.
func (e *PDFReportExporter) Remove(ctx context.Context, fecha, reportID string) error {
	return e.storage.Delete(ctx, e.ObjectKey(fecha, reportID))
}

// Disabled exportador para EXPORT_ENABLED=false: el paso termina bien sin documento.
type Disabled struct{}

func (Disabled) Export(context.Context, ports.ExportInput) (*ports.ExportResult, error) {
	return nil, nil
}
