package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
)

const (
	defaultTopN = 10
	maxTopN     = 200
	dateLayout  = "2006-01-02"
)

// AnalyticsUseCase consultas analíticas sobre el almacén de hechos. A diferencia
// del dashboard, lee filas por trabajador y día, no los documentos resumen.
type AnalyticsUseCase struct {
	warehouse repository.WarehouseRepository // nil = almacén deshabilitado
	now       func() time.Time
}

// NewAnalyticsUseCase construye el caso de uso.
func NewAnalyticsUseCase(warehouse repository.WarehouseRepository) *AnalyticsUseCase {
	return &AnalyticsUseCase{warehouse: warehouse, now: time.Now}
}

// TopWorkers ranking de trabajadores por productividad (metrado/hora) en el periodo.
func (uc *AnalyticsUseCase) TopWorkers(ctx context.Context, req dto.TopWorkersRequest) (*dto.TopWorkersDTO, error) {
	if uc.warehouse == nil {
		return nil, fmt.Errorf("%w: almacén de hechos no configurado", domain.ErrUnavailable)
	}
	from, to, err := parsePeriod(req.Desde, req.Hasta, uc.now())
	if err != nil {
		return nil, err
	}
	limit := req.Limite
	if limit <= 0 {
		limit = defaultTopN
	}
	if limit > maxTopN {
		limit = maxTopN
	}

	rows, err := uc.warehouse.TopWorkers(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("analitica: top trabajadores: %w", err)
	}

	out := &dto.TopWorkersDTO{
		Desde:        from.Format(dateLayout),
		Hasta:        to.Format(dateLayout),
		Trabajadores: make([]dto.TopWorkerDTO, 0, len(rows)),
	}
	for i, r := range rows {
		out.Trabajadores = append(out.Trabajadores, dto.TopWorkerDTO{
			Rank:          i + 1,
			TrabajadorID:  r.TrabajadorID,
			Trabajador:    r.Trabajador,
			Categoria:     r.Categoria,
			Horas:         r.Horas.Round(2),
			Costo:         r.Costo.Round(2),
			Metrado:       r.Metrado.Round(2),
			Productividad: r.Productividad.Round(2),
		})
	}
	return out, nil
}

// parsePeriod convierte desde/hasta en fechas (UTC, hasta inclusive). Por
// defecto: primer día del mes actual hasta hoy.
func parsePeriod(desde, hasta string, now time.Time) (from, to time.Time, err error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if hasta == "" {
		to = today
	} else if to, err = time.Parse(dateLayout, hasta); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: hasta inválido: %s", domain.ErrInvalidInput, hasta)
	}

	if desde == "" {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else if from, err = time.Parse(dateLayout, desde); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: desde inválido: %s", domain.ErrInvalidInput, desde)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: desde no puede ser posterior a hasta", domain.ErrInvalidInput)
	}
	return from, to, nil
}
