package warehouse

import (
	"fmt"
	"strings"
)

// Tablas lógicas del almacén.
const (
	TableFacts   = "obra_hechos"
	TableSummary = "obra_resumen_diario"
)

// Dialect diferencias de SQL entre motores.
type Dialect struct {
	Name string
	// Numbered usa $1, $2… (postgres); si no, "?" posicional.
	Numbered bool
	// DecimalType tipo de columna para montos y cantidades.
	DecimalType  string
	TextType     string
	// Transactions indica si el driver admite BEGIN/COMMIT.
	Transactions bool
}

var (
	Postgres   = Dialect{Name: "postgres", Numbered: true, DecimalType: "NUMERIC(18,4)", TextType: "TEXT", Transactions: true}
	Snowflake  = Dialect{Name: "snowflake", DecimalType: "NUMBER(18,4)", TextType: "VARCHAR", Transactions: true}
	Databricks = Dialect{Name: "databricks", DecimalType: "DECIMAL(18,4)", TextType: "STRING"}
)

// DialectFor devuelve el dialecto de un driver configurado.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case Postgres.Name:
		return Postgres, nil
	case Snowflake.Name:
		return Snowflake, nil
	case Databricks.Name:
		return Databricks, nil
	}
	return Dialect{}, fmt.Errorf("almacén: driver desconocido %q", driver)
}

// Placeholders devuelve n marcadores separados por coma empezando en start (1-based).
func (d Dialect) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if d.Numbered {
			parts[i] = fmt.Sprintf("$%d", start+i)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// Table califica la tabla con el esquema, si hay uno.
func (d Dialect) Table(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
