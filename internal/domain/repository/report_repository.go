package repository

import (
	"context"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
)

// ReportRepository persistencia del parte diario y sus subcolecciones.
type ReportRepository interface {
	// Create guarda el reporte y sus subcolecciones en un solo lote.
	Create(ctx context.Context, report *entity.Report, activities []entity.Activity, labor []entity.LaborEntry) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context) ([]*entity.Report, error)
	// ListActivities devuelve las actividades ordenadas por Orden.
	ListActivities(ctx context.Context, reportID string) ([]entity.Activity, error)
	ListLabor(ctx context.Context, reportID string) ([]entity.LaborEntry, error)
	// TransitionStatus cambia el estado solo si el actual está en from.
	// Devuelve false (sin error) si el estado actual no lo permite.
	TransitionStatus(ctx context.Context, id string, from []string, to string, fields map[string]any) (bool, error)
	// ClaimStaleRectification toma un reporte que quedó en RECTIFYING con la
	// fase fase y sin escrituras desde before. Devuelve false si el estado, la
	// fase o la última escritura no coinciden (otro proceso sigue trabajando).
	ClaimStaleRectification(ctx context.Context, id, fase string, before time.Time) (bool, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// ApplyEdit sobrescribe actividades y trabajadores editados y los campos
	// del reporte en un único lote.
	ApplyEdit(ctx context.Context, id string, activities []entity.Activity, labor []entity.LaborEntry, fields map[string]any) error
	// ListLinks lee el índice Reportes_Links, más recientes primero.
	ListLinks(ctx context.Context) ([]entity.ReportLink, error)
	// Delete elimina el reporte con sus subcolecciones.
	Delete(ctx context.Context, id string) error
}
