// Package postgres conexión pgx al almacén de hechos cuando WAREHOUSE_DRIVER=postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/jhoicas/obra-dashboard/pkg/config"
)

const defaultPort = "5432"

var errNoIPv4 = errors.New("sin dirección IPv4")

// PoolConfig arma la configuración del pool a partir del almacén configurado.
// Separado de NewPool para poder verificarlo sin servidor.
func PoolConfig(cfg config.WarehouseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(preferIPv4(cfg.PostgresDSN()))
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	pc.MaxConns = 4
	if cfg.PoolMaxConns > 0 {
		pc.MaxConns = int32(cfg.PoolMaxConns)
	}
	if cfg.PoolMinConns > 0 && int32(cfg.PoolMinConns) <= pc.MaxConns {
		pc.MinConns = int32(cfg.PoolMinConns)
	}
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 15 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	// Los contenedores sin IPv6 fallan al marcar AAAA; se fuerza tcp4 cuando hay IPv4.
	pc.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if ip, err := lookupIPv4(ctx, host); err == nil {
			return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
		}
		return d.DialContext(ctx, network, addr)
	}

	// NUMERIC <-> decimal.Decimal para las columnas de montos.
	pc.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return pc, nil
}

// NewPool abre el pool y verifica la conexión con un ping.
func NewPool(ctx context.Context, cfg config.WarehouseConfig) (*pgxpool.Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping almacén: %w", err)
	}
	return pool, nil
}

// OpenDB expone el pool como *sql.DB para el cliente de almacén genérico.
// Cerrar el *sql.DB no cierra el pool; el llamador debe cerrar ambos.
func OpenDB(ctx context.Context, cfg config.WarehouseConfig) (*sql.DB, *pgxpool.Pool, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return stdlib.OpenDBFromPool(pool), pool, nil
}

// lookupIPv4 devuelve la primera IPv4 del host. Un literal IPv6 es error.
func lookupIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			return "", errNoIPv4
		}
		return host, nil
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errNoIPv4
	}
	return ips[0].String(), nil
}

// preferIPv4 reescribe el host del DSN con su IPv4 y completa el puerto.
// Si no resuelve, el DSN queda intacto.
func preferIPv4(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return dsn
	}
	ip, err := lookupIPv4(context.Background(), u.Hostname())
	if err != nil {
		return dsn
	}
	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}
