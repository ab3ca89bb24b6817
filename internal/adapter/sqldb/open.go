// Package sqldb executes gateway queries through database/sql, serving
// MySQL, SQLite and PostgreSQL (via the pgx stdlib driver).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
	DriverPgx    = "pgx"
)

// PoolOptions tunes the database/sql pool. Zero fields keep the defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens and pings a database/sql handle for driver.
func Open(ctx context.Context, driver, dsn string, opts PoolOptions) (*sql.DB, error) {
	switch driver {
	case DriverMySQL, DriverSQLite, DriverPgx:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database (10s timeout): %w", err)
	}
	return db, nil
}

// DialectFor returns the paging dialect spoken by driver.
func DialectFor(driver string) domain.Dialect {
	if driver == DriverPgx {
		return domain.DialectLimitOffset
	}
	return domain.DialectOffsetComma
}
