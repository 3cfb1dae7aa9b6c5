package warehouse

import (
	"context"
	"fmt"
)

// SchemaStatements DDL idempotente de las dos tablas del almacén.
func SchemaStatements(d Dialect, schema string) []string {
	num, txt := d.DecimalType, d.TextType
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  report_id %[2]s NOT NULL,
  fecha DATE NOT NULL,
  bloque %[2]s,
  actividad_id %[2]s NOT NULL,
  actividad %[2]s,
  unidad %[2]s,
  trabajador_id %[2]s NOT NULL,
  trabajador %[2]s,
  categoria %[2]s,
  horas %[3]s,
  costo %[3]s,
  metrado_atribuido %[3]s,
  valor_atribuido %[3]s,
  ganancia %[3]s,
  productividad %[3]s
)`, d.Table(schema, TableFacts), txt, num),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  report_id %[2]s NOT NULL,
  fecha DATE NOT NULL,
  bloque %[2]s,
  creado_por %[2]s,
  costo_total %[3]s,
  valor_total %[3]s,
  horas_totales %[3]s,
  ganancia %[3]s,
  total_actividades INTEGER,
  total_trabajadores INTEGER
)`, d.Table(schema, TableSummary), txt, num),
	}
	// Solo PostgreSQL hace cumplir la unicidad; impide dos resúmenes del mismo reporte.
	if d.Name == Postgres.Name {
		stmts = append(stmts, fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_report_uq ON %s (report_id)`,
			TableSummary, d.Table(schema, TableSummary)))
	}
	return stmts
}

// EnsureSchema crea las tablas si no existen.
func (w *SQLWarehouse) EnsureSchema(ctx context.Context) error {
	for _, stmt := range SchemaStatements(w.dialect, w.schema) {
		err := w.retry.Do(ctx, func(ctx context.Context) error {
			_, err := w.db.ExecContext(ctx, stmt)
			return err
		})
		if err != nil {
			return fmt.Errorf("almacén: esquema: %w", err)
		}
	}
	w.log.Info().Str("dialecto", w.dialect.Name).Msg("almacén: esquema verificado")
	return nil
}
