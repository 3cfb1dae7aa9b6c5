package docstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepository)(nil)

// ReportRepository implementa repository.ReportRepository sobre cualquier DocumentStore.
type ReportRepository struct {
	store repository.DocumentStore
}

// NewReportRepository construye el repositorio.
func NewReportRepository(store repository.DocumentStore) *ReportRepository {
	return &ReportRepository{store: store}
}

func (r *ReportRepository) Create(ctx context.Context, report *entity.Report, activities []entity.Activity, labor []entity.LaborEntry) error {
	muts := make([]repository.Mutation, 0, 1+len(activities)+len(labor))
	muts = append(muts, repository.Mutation{
		Collection:       entity.CollectionReports,
		DocID:            report.ID,
		Set:              ReportToDocument(report),
		ServerTimestamps: []string{entity.FieldCreatedAt, entity.FieldUpdatedAt},
	})
	for _, a := range activities {
		muts = append(muts, repository.Mutation{Collection: entity.ActivitiesPath(report.ID), DocID: a.ID, Set: ActivityToDocument(a)})
	}
	for _, l := range labor {
		muts = append(muts, repository.Mutation{Collection: entity.LaborPath(report.ID), DocID: l.ID, Set: LaborToDocument(l)})
	}
	if err := r.store.Commit(ctx, muts); err != nil {
		return fmt.Errorf("reportes: crear %s: %w", report.ID, err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	doc, err := r.store.Get(ctx, entity.CollectionReports, id)
	if err != nil {
		return nil, err
	}
	return DocumentToReport(id, doc), nil
}

func (r *ReportRepository) List(ctx context.Context) ([]*entity.Report, error) {
	docs, err := r.store.List(ctx, entity.CollectionReports)
	if err != nil {
		return nil, fmt.Errorf("reportes: listar: %w", err)
	}
	out := make([]*entity.Report, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentToReport(d.ID, d.Data))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Fecha != out[j].Fecha {
			return out[i].Fecha < out[j].Fecha
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ReportRepository) ListLinks(ctx context.Context) ([]entity.ReportLink, error) {
	docs, err := r.store.List(ctx, entity.CollectionReportLinks)
	if err != nil {
		return nil, fmt.Errorf("reportes: listar índice: %w", err)
	}
	out := make([]entity.ReportLink, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentToLink(d.ID, d.Data))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Fecha != out[j].Fecha {
			return out[i].Fecha > out[j].Fecha
		}
		return out[i].ReportID < out[j].ReportID
	})
	return out, nil
}

func (r *ReportRepository) ListActivities(ctx context.Context, reportID string) ([]entity.Activity, error) {
	docs, err := r.store.List(ctx, entity.ActivitiesPath(reportID))
	if err != nil {
		return nil, fmt.Errorf("reportes: actividades de %s: %w", reportID, err)
	}
	out := make([]entity.Activity, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentToActivity(d.ID, d.Data))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Orden < out[j].Orden })
	return out, nil
}

func (r *ReportRepository) ListLabor(ctx context.Context, reportID string) ([]entity.LaborEntry, error) {
	docs, err := r.store.List(ctx, entity.LaborPath(reportID))
	if err != nil {
		return nil, fmt.Errorf("reportes: mano de obra de %s: %w", reportID, err)
	}
	out := make([]entity.LaborEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentToLabor(d.ID, d.Data))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Orden < out[j].Orden })
	return out, nil
}

func (r *ReportRepository) TransitionStatus(ctx context.Context, id string, from []string, to string, fields map[string]any) (bool, error) {
	applied := false
	err := r.store.Transact(ctx, entity.CollectionReports, id, func(current repository.Document) ([]repository.Mutation, error) {
		applied = false
		if current == nil {
			return nil, fmt.Errorf("reporte %s: %w", id, domain.ErrNotFound)
		}
		if !slices.Contains(from, str(current, entity.FieldEstado)) {
			return nil, nil
		}
		set := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			set[k] = v
		}
		set[entity.FieldEstado] = to
		applied = true
		return []repository.Mutation{ReportMutation(id, set)}, nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ReportRepository) ClaimStaleRectification(ctx context.Context, id, fase string, before time.Time) (bool, error) {
	applied := false
	err := r.store.Transact(ctx, entity.CollectionReports, id, func(current repository.Document) ([]repository.Mutation, error) {
		applied = false
		if current == nil {
			return nil, fmt.Errorf("reporte %s: %w", id, domain.ErrNotFound)
		}
		if str(current, entity.FieldEstado) != entity.ReportStatusRectifying ||
			str(current, entity.FieldRectFase) != fase {
			return nil, nil
		}
		if last := timestamp(current, entity.FieldUpdatedAt); last != nil && !last.Before(before) {
			return nil, nil
		}
		applied = true
		// Reescribir updatedAt es lo que excluye a un segundo reclamante.
		return []repository.Mutation{ReportMutation(id, map[string]any{entity.FieldErrorMensaje: ""})}, nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ReportRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Commit(ctx, []repository.Mutation{ReportMutation(id, fields)}); err != nil {
		return fmt.Errorf("reportes: actualizar %s: %w", id, err)
	}
	return nil
}

func (r *ReportRepository) ApplyEdit(ctx context.Context, id string, activities []entity.Activity, labor []entity.LaborEntry, fields map[string]any) error {
	muts := make([]repository.Mutation, 0, 1+len(activities)+len(labor))
	for _, a := range activities {
		muts = append(muts, repository.Mutation{
			Collection: entity.ActivitiesPath(id),
			DocID:      a.ID,
			Set: map[string]any{
				"metradoEjecutado": toFloat(a.MetradoEjecutado),
				"valor":            toFloat(a.Valor),
			},
		})
	}
	for _, l := range labor {
		muts = append(muts, repository.Mutation{
			Collection: entity.LaborPath(id),
			DocID:      l.ID,
			Set: map[string]any{
				"horas":      HoursToArray(l.Horas),
				"totalHoras": toFloat(l.TotalHoras),
				"costo":      toFloat(l.Costo),
			},
		})
	}
	muts = append(muts, ReportMutation(id, fields))
	if err := r.store.Commit(ctx, muts); err != nil {
		return fmt.Errorf("reportes: editar %s: %w", id, err)
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	var muts []repository.Mutation
	for _, coll := range []string{entity.ActivitiesPath(id), entity.LaborPath(id)} {
		docs, err := r.store.List(ctx, coll)
		if err != nil {
			return fmt.Errorf("reportes: listar %s: %w", coll, err)
		}
		for _, d := range docs {
			muts = append(muts, repository.Mutation{Collection: coll, DocID: d.ID, Delete: true})
		}
	}
	muts = append(muts, repository.Mutation{Collection: entity.CollectionReports, DocID: id, Delete: true})
	for start := 0; start < len(muts); start += MaxBatchWrites {
		end := min(start+MaxBatchWrites, len(muts))
		if err := r.store.Commit(ctx, muts[start:end]); err != nil {
			return fmt.Errorf("reportes: eliminar %s: %w", id, err)
		}
	}
	return nil
}

// ReportMutation escritura parcial sobre el documento del reporte; siempre
// actualiza updatedAt con la hora del servidor.
func ReportMutation(id string, fields map[string]any) repository.Mutation {
	return repository.Mutation{
		Collection:       entity.CollectionReports,
		DocID:            id,
		Set:              fields,
		ServerTimestamps: []string{entity.FieldUpdatedAt},
	}
}
