package sqlite

import (
	"context"
	"database/sql"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/repository/rdb"
	_ "modernc.org/sqlite"
)

// New opens a SQLite database at path and applies the schema. A single connection is kept so
// that the foreign key pragma holds for every statement.
func New(ctx context.Context, path string) (*rdb.Store, error) {
	dsn := "file:" + path + "?" + url.Values{
		"_pragma": {"foreign_keys(1)", "busy_timeout(5000)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	db.SetMaxOpenConns(1)

	store := rdb.New(db, rdb.SQLite)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
