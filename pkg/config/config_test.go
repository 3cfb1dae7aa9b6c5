package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("DOCSTORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "obra-dashboard", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "none", cfg.Warehouse.Driver)
	assert.Equal(t, 60*time.Second, cfg.Warehouse.QueryTimeout)
	assert.Equal(t, 3, cfg.Warehouse.MaxRetries)
	assert.Equal(t, 6*time.Hour, cfg.AI.CacheTTL)
	assert.Empty(t, cfg.SMTP.To)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("DOCSTORE_DRIVER", "mongo")
	t.Setenv("WAREHOUSE_DRIVER", "snowflake")
	t.Setenv("WAREHOUSE_QUERY_TIMEOUT", "90")
	t.Setenv("WAREHOUSE_BASE_BACKOFF", "250ms")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ALERT_EMAILS", "residente@obra.pe, gerencia@obra.pe,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.DocStore.Driver)
	assert.Equal(t, "snowflake", cfg.Warehouse.Driver)
	assert.Equal(t, 90*time.Second, cfg.Warehouse.QueryTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Warehouse.BaseBackoff)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"residente@obra.pe", "gerencia@obra.pe"}, cfg.SMTP.To)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("DOCSTORE_DRIVER", "memory")
	t.Setenv("WAREHOUSE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestPostgresDSN_EscapaContrasena(t *testing.T) {
	c := WarehouseConfig{Host: "db", Port: 5432, User: "obra", Password: "p@ss:word", DBName: "hechos", SSLMode: "disable"}
	assert.Equal(t, "postgres://obra:p%40ss%3Aword@db:5432/hechos?sslmode=disable", c.PostgresDSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.PostgresDSN())
}
