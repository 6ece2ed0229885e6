package safe_test

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
	_ "modernc.org/sqlite"
)

func TestClose(t *testing.T) {
	t.Run("close valid reader", func(t *testing.T) {
		reader := io.NopCloser(bytes.NewReader([]byte("test")))
		safe.Close(reader) // Should not panic
	})

	t.Run("close nil reader", func(t *testing.T) {
		safe.Close(nil) // Should not panic
	})
}

func TestRollback(t *testing.T) {
	t.Run("rollback with nil transaction", func(t *testing.T) {
		safe.Rollback(nil) // Should not panic
	})

	t.Run("rollback after commit is silent", func(t *testing.T) {
		db := gt.R1(sql.Open("sqlite", ":memory:")).NoError(t)
		defer safe.Close(db)

		tx := gt.R1(db.BeginTx(context.Background(), nil)).NoError(t)
		gt.NoError(t, tx.Commit())
		safe.Rollback(tx)
	})

	t.Run("rollback discards changes", func(t *testing.T) {
		db := gt.R1(sql.Open("sqlite", ":memory:")).NoError(t)
		defer safe.Close(db)
		db.SetMaxOpenConns(1)

		_ = gt.R1(db.Exec("CREATE TABLE t (v INTEGER)")).NoError(t)
		tx := gt.R1(db.BeginTx(context.Background(), nil)).NoError(t)
		_ = gt.R1(tx.Exec("INSERT INTO t (v) VALUES (1)")).NoError(t)
		safe.Rollback(tx)

		var n int
		gt.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
		gt.V(t, n).Equal(0)
	})
}

func TestCloseWithError(t *testing.T) {
	t.Run("close reader that returns error", func(t *testing.T) {
		reader := &errorCloser{}
		safe.Close(reader) // Should not panic, should log
	})

	t.Run("close reader that returns EOF", func(t *testing.T) {
		reader := &eofCloser{}
		safe.Close(reader) // Should not panic, should not log
	})
}

type errorCloser struct{}

func (e *errorCloser) Close() error {
	return io.ErrUnexpectedEOF
}

type eofCloser struct{}

func (e *eofCloser) Close() error {
	return io.EOF
}
