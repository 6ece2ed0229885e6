package config

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/repository/memory"
	"github.com/m-mizutani/octoexec/pkg/repository/postgres"
	"github.com/m-mizutani/octoexec/pkg/repository/rdb"
	"github.com/m-mizutani/octoexec/pkg/repository/sqlite"
	"github.com/urfave/cli/v3"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
	DatabaseMemory   = "memory"
)

type Database struct {
	driver          string
	dsn             string `masq:"secret"`
	sqlitePath      string
	maxOpenConns    int64
	connMaxLifetime time.Duration
}

func (x *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-driver",
			Usage:       "Operation store [postgres|sqlite|memory]",
			Category:    "Database",
			Destination: &x.driver,
			Value:       DatabaseSQLite,
			Sources:     cli.EnvVars("OCTOEXEC_DB_DRIVER"),
		},
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "PostgreSQL connection string",
			Category:    "Database",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("OCTOEXEC_DB_DSN", "DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:        "db-sqlite-path",
			Usage:       "SQLite database file",
			Category:    "Database",
			Destination: &x.sqlitePath,
			Value:       "octoexec.db",
			Sources:     cli.EnvVars("OCTOEXEC_DB_SQLITE_PATH"),
		},
		&cli.Int64Flag{
			Name:        "db-max-open-conns",
			Usage:       "Maximum open PostgreSQL connections",
			Category:    "Database",
			Destination: &x.maxOpenConns,
			Value:       10,
			Sources:     cli.EnvVars("OCTOEXEC_DB_MAX_OPEN_CONNS"),
		},
		&cli.DurationFlag{
			Name:        "db-conn-max-lifetime",
			Usage:       "Maximum lifetime of a PostgreSQL connection",
			Category:    "Database",
			Destination: &x.connMaxLifetime,
			Value:       30 * time.Minute,
			Sources:     cli.EnvVars("OCTOEXEC_DB_CONN_MAX_LIFETIME"),
		},
	}
}

// Open connects to the relational store without touching the schema.
func (x *Database) Open(ctx context.Context) (*rdb.Store, error) {
	switch x.driver {
	case DatabasePostgres:
		if x.dsn == "" {
			return nil, goerr.Wrap(types.ErrConfiguration, "db-dsn is required for postgres")
		}
		return postgres.New(ctx, x.dsn,
			postgres.WithMaxOpenConns(int(x.maxOpenConns)),
			postgres.WithMaxIdleConns(int(x.maxOpenConns)),
			postgres.WithConnMaxLifetime(x.connMaxLifetime),
		)
	case DatabaseSQLite:
		return sqlite.New(ctx, x.sqlitePath)
	default:
		return nil, goerr.Wrap(types.ErrConfiguration, "database driver has no schema", goerr.V("driver", x.driver))
	}
}

// NewStore returns the operation store and a closer for it. The memory store has no closer.
func (x *Database) NewStore(ctx context.Context) (interfaces.OperationStore, io.Closer, error) {
	if x.driver == DatabaseMemory {
		return memory.New(), nil, nil
	}

	store, err := x.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

func (x *Database) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("driver", x.driver),
		slog.Int("dsn.len", len(x.dsn)),
		slog.String("sqlitePath", x.sqlitePath),
		slog.Int64("maxOpenConns", x.maxOpenConns),
	)
}
