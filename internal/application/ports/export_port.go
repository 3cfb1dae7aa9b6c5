package ports

import (
	"context"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/production"
)

// ExportResult identificador y URL del documento exportado.
type ExportResult struct {
	ID  string
	URL string
}

// ExportInput datos del parte a exportar.
type ExportInput struct {
	Report       *entity.Report
	Activities   []entity.Activity
	Labor        []entity.LaborEntry
	Contribution *production.Contribution
}

// ReportExporter genera el documento externo del parte diario.
// Un fallo no es fatal para la agregación.
type ReportExporter interface {
	Export(ctx context.Context, in ExportInput) (*ExportResult, error)
}

// ObjectStorage guarda archivos generados y devuelve su URL pública.
type ObjectStorage interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
