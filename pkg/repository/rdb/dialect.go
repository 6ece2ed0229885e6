package rdb

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Dialect holds what differs between the supported SQL engines.
type Dialect struct {
	Name   string
	Schema []string

	// placeholders rewrites "?" markers when the engine uses another style.
	placeholders func(query string) string
	encodeTime   func(t time.Time) any
}

func (x *Dialect) rebind(query string) string {
	if x.placeholders == nil {
		return query
	}
	return x.placeholders(query)
}

func (x *Dialect) time(t time.Time) any {
	return x.encodeTime(t.UTC())
}

func (x *Dialect) nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return x.time(*t)
}

// dollarPlaceholders converts "?" into "$1", "$2", ...
func dollarPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteTimeFormat is fixed width so that text ordering equals time ordering.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

var Postgres = &Dialect{
	Name:         "postgres",
	placeholders: dollarPlaceholders,
	encodeTime:   func(t time.Time) any { return t },
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS installations (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			account_login TEXT NOT NULL,
			account_type TEXT NOT NULL,
			permissions_json TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS repositories (
			id BIGINT PRIMARY KEY,
			installation_id BIGINT NOT NULL REFERENCES installations(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			full_name TEXT NOT NULL,
			owner_login TEXT NOT NULL,
			private BOOLEAN NOT NULL DEFAULT FALSE,
			clone_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_repositories_full_name ON repositories(full_name)`,
		`CREATE INDEX IF NOT EXISTS idx_repositories_installation_id ON repositories(installation_id)`,
		`CREATE TABLE IF NOT EXISTS webhook_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			action TEXT NOT NULL DEFAULT '',
			installation_id BIGINT NULL,
			repository_id BIGINT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			payload TEXT NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_installation_id ON webhook_events(installation_id)`,
		`CREATE TABLE IF NOT EXISTS git_operations (
			id TEXT PRIMARY KEY,
			operation_type TEXT NOT NULL,
			repository_id BIGINT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			repository TEXT NOT NULL,
			branch TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			result TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_git_operations_repository_created ON git_operations(repository_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_git_operations_status ON git_operations(status)`,
	},
}

var SQLite = &Dialect{
	Name:       "sqlite",
	encodeTime: func(t time.Time) any { return t.Format(sqliteTimeFormat) },
	Schema: []string{
		`PRAGMA foreign_keys=ON`,
		`CREATE TABLE IF NOT EXISTS installations (
			id INTEGER PRIMARY KEY,
			account_id INTEGER NOT NULL,
			account_login TEXT NOT NULL,
			account_type TEXT NOT NULL,
			permissions_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS repositories (
			id INTEGER PRIMARY KEY,
			installation_id INTEGER NOT NULL REFERENCES installations(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			full_name TEXT NOT NULL,
			owner_login TEXT NOT NULL,
			private INTEGER NOT NULL DEFAULT 0,
			clone_url TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_repositories_full_name ON repositories(full_name)`,
		`CREATE INDEX IF NOT EXISTS idx_repositories_installation_id ON repositories(installation_id)`,
		`CREATE TABLE IF NOT EXISTS webhook_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			action TEXT NOT NULL DEFAULT '',
			installation_id INTEGER NULL,
			repository_id INTEGER NULL REFERENCES repositories(id) ON DELETE CASCADE,
			payload TEXT NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_installation_id ON webhook_events(installation_id)`,
		`CREATE TABLE IF NOT EXISTS git_operations (
			id TEXT PRIMARY KEY,
			operation_type TEXT NOT NULL,
			repository_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			repository TEXT NOT NULL,
			branch TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			result TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			completed_at TEXT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_git_operations_repository_created ON git_operations(repository_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_git_operations_status ON git_operations(status)`,
	},
}

// dbTime reads a timestamp stored either natively or as text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	sqliteTimeFormat,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (x *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		x.Time, x.Valid = time.Time{}, false
		return nil
	case time.Time:
		x.Time, x.Valid = v, true
		return nil
	case []byte:
		return x.parse(string(v))
	case string:
		return x.parse(v)
	default:
		return goerr.New("unsupported time value", goerr.V("type", fmt.Sprintf("%T", src)))
	}
}

func (x *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			x.Time, x.Valid = t, true
			return nil
		}
	}
	return goerr.New("failed to parse time value", goerr.V("value", s))
}

func (x dbTime) ptr() *time.Time {
	if !x.Valid {
		return nil
	}
	t := x.Time
	return &t
}

var _ driver.Valuer = nullInt64{}

// nullInt64 writes a nil pointer as SQL NULL.
type nullInt64 struct {
	v *int64
}

func (x nullInt64) Value() (driver.Value, error) {
	if x.v == nil {
		return nil, nil
	}
	return *x.v, nil
}
