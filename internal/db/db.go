package db

import (
	"context"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/vibemindai/assistant/internal/logging"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PoolConfig struct {
	MinConns       int
	MaxConns       int
	CommandTimeout time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MinConns: 1, MaxConns: 10, CommandTimeout: 60 * time.Second}
}

// Normalized fills zero fields with defaults and keeps MinConns <= MaxConns.
func (p PoolConfig) Normalized() PoolConfig {
	def := DefaultPoolConfig()
	if p.MaxConns <= 0 {
		p.MaxConns = def.MaxConns
	}
	if p.MinConns <= 0 {
		p.MinConns = def.MinConns
	}
	if p.MinConns > p.MaxConns {
		p.MinConns = p.MaxConns
	}
	if p.CommandTimeout <= 0 {
		p.CommandTimeout = def.CommandTimeout
	}
	return p
}

// Dialector picks the gorm driver from the DSN:
//
//	postgres://, postgresql://, host=...   -> postgres
//	sqlite:, file:, :memory:                -> sqlite
//	mysql://... or a bare go-sql-driver DSN -> mysql
func Dialector(dsn string) (gorm.Dialector, string) {
	d := strings.TrimSpace(dsn)
	lower := strings.ToLower(d)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), strings.HasPrefix(lower, "host="):
		return postgres.Open(d), "postgres"
	case strings.HasPrefix(lower, "sqlite:"):
		return gormsqlite.Open(strings.TrimPrefix(d[len("sqlite:"):], "//")), "sqlite"
	case strings.HasPrefix(lower, "file:"), lower == ":memory:":
		return gormsqlite.Open(d), "sqlite"
	case strings.HasPrefix(lower, "mysql://"):
		return mysql.Open(d[len("mysql://"):]), "mysql"
	default:
		return mysql.Open(d), "mysql"
	}
}

// Open connects, sizes the pool and warms MinConns connections. The returned
// error means the database is unreachable.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*gorm.DB, error) {
	pool = pool.Normalized()
	dialector, _ := Dialector(dsn)

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logging.GormLogger()})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(pool.MaxConns)
	sqlDB.SetMaxIdleConns(pool.MaxConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pool.CommandTimeout)
	defer cancel()
	for i := 0; i < pool.MinConns; i++ {
		if err := sqlDB.PingContext(pctx); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "ping database")
		}
	}
	return gdb, nil
}
