package warehouse

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jhoicas/obra-dashboard/pkg/config"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plazo de contexto", fmt.Errorf("consulta: %w", context.DeadlineExceeded), true},
		{"grpc recursos agotados", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc no disponible", status.Error(codes.Unavailable, "down"), true},
		{"timeout en mensaje", errors.New("Query TIMEOUT after 60s"), true},
		{"resource exhausted en mensaje", errors.New("rpc error: resource exhausted"), true},
		{"postgres deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"postgres sintaxis", &pgconn.PgError{Code: "42601"}, false},
		{"sintaxis", errors.New("syntax error at or near SELECT"), false},
		{"grpc inválido", status.Error(codes.InvalidArgument, "bad"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestRetryPolicy_AgotaReintentos(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BaseBackoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("timeout")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_TimeoutPorIntento(t *testing.T) {
	p := RetryPolicy{Timeout: 5 * time.Millisecond}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryPolicy_ContextoCanceladoCorta(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxRetries: 5, BaseBackoff: time.Hour}
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDialect_Placeholders(t *testing.T) {
	assert.Equal(t, "$3, $4, $5", Postgres.Placeholders(3, 3))
	assert.Equal(t, "?, ?", Snowflake.Placeholders(1, 2))
	assert.Equal(t, "analitica.obra_hechos", Databricks.Table("analitica", TableFacts))

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestDatabricksDSN(t *testing.T) {
	dsn := DatabricksDSN(config.WarehouseConfig{
		DatabricksToken: "dapi123", DatabricksHost: "adb-1.azuredatabricks.net",
		DatabricksHTTPPath: "/sql/1.0/warehouses/abc", DatabricksCatalog: "main", Schema: "obra",
	})
	assert.Equal(t, "token:dapi123@adb-1.azuredatabricks.net/sql/1.0/warehouses/abc?catalog=main&schema=obra", dsn)
}

func TestOpen_SinAlmacen(t *testing.T) {
	w, closer, err := Open(context.Background(), config.WarehouseConfig{Driver: "none"}, nil)
	assert.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, closer())
}
