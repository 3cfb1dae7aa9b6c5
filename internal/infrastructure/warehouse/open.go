package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/databricks/databricks-sql-go"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/jhoicas/obra-dashboard/internal/infrastructure/postgres"
	"github.com/jhoicas/obra-dashboard/pkg/config"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

// Open conecta el almacén configurado. Con driver "none" devuelve (nil, closer vacío, nil).
func Open(ctx context.Context, cfg config.WarehouseConfig, log *logger.Logger) (*SQLWarehouse, func() error, error) {
	noop := func() error { return nil }
	if cfg.Driver == "" || cfg.Driver == "none" {
		return nil, noop, nil
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, noop, err
	}

	var db *sql.DB
	closer := noop
	switch cfg.Driver {
	case Postgres.Name:
		pdb, pool, err := postgres.OpenDB(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("almacén postgres: %w", err)
		}
		db = pdb
		closer = func() error {
			err := pdb.Close()
			pool.Close()
			return err
		}
	case Snowflake.Name:
		dsn, err := sf.DSN(&sf.Config{
			Account:   cfg.SnowflakeAccount,
			User:      cfg.User,
			Password:  cfg.Password,
			Database:  cfg.DBName,
			Schema:    cfg.Schema,
			Warehouse: cfg.SnowflakeWarehouse,
			Role:      cfg.SnowflakeRole,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("almacén snowflake: DSN: %w", err)
		}
		if db, err = sql.Open("snowflake", dsn); err != nil {
			return nil, noop, fmt.Errorf("almacén snowflake: %w", err)
		}
		closer = db.Close
	case Databricks.Name:
		if db, err = sql.Open("databricks", DatabricksDSN(cfg)); err != nil {
			return nil, noop, fmt.Errorf("almacén databricks: %w", err)
		}
		closer = db.Close
	}

	// En Snowflake el esquema va en el DSN; en los demás se califica la tabla.
	schema := cfg.Schema
	if cfg.Driver == Snowflake.Name {
		schema = ""
	}
	retry := RetryPolicy{MaxRetries: cfg.MaxRetries, BaseBackoff: cfg.BaseBackoff, Timeout: cfg.QueryTimeout}
	log.Info().Str("driver", cfg.Driver).Msg("almacén: conectado")
	return NewSQLWarehouse(db, dialect, schema, retry, log), closer, nil
}

// DatabricksDSN arma "token:<pat>@<host><http_path>?catalog=&schema=".
func DatabricksDSN(cfg config.WarehouseConfig) string {
	dsn := fmt.Sprintf("token:%s@%s%s", cfg.DatabricksToken, cfg.DatabricksHost, cfg.DatabricksHTTPPath)
	params := url.Values{}
	if cfg.DatabricksCatalog != "" {
		params.Set("catalog", cfg.DatabricksCatalog)
	}
	if cfg.Schema != "" {
		params.Set("schema", cfg.Schema)
	}
	if qp := params.Encode(); qp != "" {
		dsn = dsn + "?" + qp
	}
	return dsn
}
