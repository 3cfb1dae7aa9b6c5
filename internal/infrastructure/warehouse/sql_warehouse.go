package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/postgres"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

var _ repository.WarehouseRepository = (*SQLWarehouse)(nil)

var factColumns = []string{
	"report_id", "fecha", "bloque", "actividad_id", "actividad", "unidad",
	"trabajador_id", "trabajador", "categoria", "horas", "costo",
	"metrado_atribuido", "valor_atribuido", "ganancia", "productividad",
}

var summaryColumns = []string{
	"report_id", "fecha", "bloque", "creado_por", "costo_total", "valor_total",
	"horas_totales", "ganancia", "total_actividades", "total_trabajadores",
}

// SQLWarehouse almacén de hechos sobre database/sql (Postgres, Snowflake o Databricks).
type SQLWarehouse struct {
	db      *sql.DB
	dialect Dialect
	schema  string
	retry   RetryPolicy
	log     *logger.Logger
}

// NewSQLWarehouse construye el cliente. db debe abrirse con el driver del dialecto.
func NewSQLWarehouse(db *sql.DB, dialect Dialect, schema string, retry RetryPolicy, log *logger.Logger) *SQLWarehouse {
	return &SQLWarehouse{db: db, dialect: dialect, schema: schema, retry: retry, log: log}
}

func (w *SQLWarehouse) facts() string   { return w.dialect.Table(w.schema, TableFacts) }
func (w *SQLWarehouse) summary() string { return w.dialect.Table(w.schema, TableSummary) }

// HasReport consulta la tabla de resumen diario, que recibe una fila por
// reporte siempre al final de la inserción.
func (w *SQLWarehouse) HasReport(ctx context.Context, reportID string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE report_id = %s", w.summary(), w.dialect.Placeholders(1, 1))
	var n int
	err := w.retry.Do(ctx, func(ctx context.Context) error {
		return w.db.QueryRowContext(ctx, query, reportID).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("almacén: existe %s: %w", reportID, err)
	}
	return n > 0, nil
}

// InsertReport inserta hechos y resumen. Sin transacciones (Databricks) borra
// antes las filas previas del reporte, de modo que un reintento no duplica.
// En PostgreSQL una inserción concurrente del mismo reporte devuelve ErrDuplicate.
func (w *SQLWarehouse) InsertReport(ctx context.Context, facts []entity.FactRow, summary entity.DailySummaryRow) error {
	start := time.Now()
	err := w.retry.Do(ctx, func(ctx context.Context) error {
		return w.inTx(ctx, func(ex execer) error {
			if !w.dialect.Transactions {
				if err := w.deleteRows(ctx, ex, w.facts(), summary.ReportID); err != nil {
					return err
				}
			}
			if len(facts) > 0 {
				if err := w.insertFacts(ctx, ex, facts); err != nil {
					return err
				}
			}
			return w.insertSummary(ctx, ex, summary)
		})
	})
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("almacén: insertar %s: %w", summary.ReportID, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("almacén: insertar %s: %w", summary.ReportID, err)
	}
	w.log.Debug().
		Str("report_id", summary.ReportID).
		Int("filas", len(facts)).
		Dur("duracion", time.Since(start)).
		Msg("almacén: inserción completada")
	return nil
}

// DeleteReport borra las filas del reporte en ambas tablas.
func (w *SQLWarehouse) DeleteReport(ctx context.Context, reportID string) error {
	err := w.retry.Do(ctx, func(ctx context.Context) error {
		return w.inTx(ctx, func(ex execer) error {
			if err := w.deleteRows(ctx, ex, w.summary(), reportID); err != nil {
				return err
			}
			return w.deleteRows(ctx, ex, w.facts(), reportID)
		})
	})
	if err != nil {
		return fmt.Errorf("almacén: borrar %s: %w", reportID, err)
	}
	return nil
}

// TopWorkers trabajadores con mayor metrado atribuido por hora en [from, to].
func (w *SQLWarehouse) TopWorkers(ctx context.Context, from, to time.Time, limit int) ([]entity.WorkerRanking, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT trabajador_id, MAX(trabajador), MAX(categoria),
       SUM(horas), SUM(costo), SUM(metrado_atribuido)
FROM %s
WHERE fecha >= %s AND fecha <= %s
GROUP BY trabajador_id
HAVING SUM(horas) > 0
ORDER BY SUM(metrado_atribuido) / SUM(horas) DESC, trabajador_id
LIMIT %d`, w.facts(), w.dialect.Placeholders(1, 1), w.dialect.Placeholders(2, 1), limit)

	var out []entity.WorkerRanking
	err := w.retry.Do(ctx, func(ctx context.Context) error {
		out = out[:0]
		rows, err := w.db.QueryContext(ctx, query, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r entity.WorkerRanking
			if err := rows.Scan(&r.TrabajadorID, &r.Trabajador, &r.Categoria, &r.Horas, &r.Costo, &r.Metrado); err != nil {
				return err
			}
			if r.Horas.IsPositive() {
				r.Productividad = r.Metrado.Div(r.Horas)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("almacén: top trabajadores: %w", err)
	}
	return out, nil
}

// ── SQL ──────────────────────────────────────────────────────────────────────

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (w *SQLWarehouse) inTx(ctx context.Context, fn func(ex execer) error) error {
	if !w.dialect.Transactions {
		return fn(w.db)
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (w *SQLWarehouse) deleteRows(ctx context.Context, ex execer, table, reportID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE report_id = %s", table, w.dialect.Placeholders(1, 1))
	_, err := ex.ExecContext(ctx, query, reportID)
	return err
}

// insertFacts usa un único INSERT multi-fila.
func (w *SQLWarehouse) insertFacts(ctx context.Context, ex execer, facts []entity.FactRow) error {
	cols := len(factColumns)
	values := make([]string, len(facts))
	args := make([]any, 0, len(facts)*cols)
	for i, f := range facts {
		values[i] = "(" + w.dialect.Placeholders(i*cols+1, cols) + ")"
		args = append(args,
			f.ReportID, f.Fecha, f.Bloque, f.ActividadID, f.Actividad, f.Unidad,
			f.TrabajadorID, f.Trabajador, f.Categoria, dec(f.Horas), dec(f.Costo),
			dec(f.MetradoAtribuido), dec(f.ValorAtribuido), dec(f.Ganancia), dec(f.Productividad),
		)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		w.facts(), strings.Join(factColumns, ", "), strings.Join(values, ", "))
	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

func (w *SQLWarehouse) insertSummary(ctx context.Context, ex execer, s entity.DailySummaryRow) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.summary(), strings.Join(summaryColumns, ", "), w.dialect.Placeholders(1, len(summaryColumns)))
	_, err := ex.ExecContext(ctx, query,
		s.ReportID, s.Fecha, s.Bloque, s.CreadoPor, dec(s.CostoTotal), dec(s.ValorTotal),
		dec(s.HorasTotales), dec(s.Ganancia), s.TotalActividades, s.TotalTrabajadores,
	)
	return err
}

// dec normaliza a 4 decimales, la escala de las columnas.
func dec(d decimal.Decimal) string { return d.StringFixed(4) }
