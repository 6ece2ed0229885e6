package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/repository/rdb"
)

type config struct {
	maxOpenConns int
	maxIdleConns int
	connLifetime time.Duration
}

type Option func(*config)

func WithMaxOpenConns(n int) Option {
	return func(x *config) {
		x.maxOpenConns = n
	}
}

func WithMaxIdleConns(n int) Option {
	return func(x *config) {
		x.maxIdleConns = n
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(x *config) {
		x.connLifetime = d
	}
}

// New connects to PostgreSQL with the lib/pq driver. The schema is not applied here; run Migrate.
func New(ctx context.Context, dsn string, options ...Option) (*rdb.Store, error) {
	cfg := &config{
		maxOpenConns: 16,
		maxIdleConns: 4,
		connLifetime: 30 * time.Minute,
	}
	for _, opt := range options {
		opt(cfg)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres")
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(cfg.connLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	return rdb.New(db, rdb.Postgres), nil
}
