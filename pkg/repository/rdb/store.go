package rdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/repository"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
)

// Store is the relational OperationStore shared by the postgres and sqlite backends.
type Store struct {
	db      *sql.DB
	dialect *Dialect
}

var _ interfaces.OperationStore = (*Store)(nil)

func New(db *sql.DB, dialect *Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (x *Store) DB() *sql.DB {
	return x.db
}

func (x *Store) Close() error {
	return x.db.Close()
}

// Migrate creates tables and indexes when they do not exist.
func (x *Store) Migrate(ctx context.Context) error {
	for _, stmt := range x.dialect.Schema {
		if _, err := x.db.ExecContext(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema", goerr.V("dialect", x.dialect.Name), goerr.V("stmt", stmt))
		}
	}
	logging.From(ctx).Info("schema applied", slog.String("dialect", x.dialect.Name))
	return nil
}

func (x *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, x.dialect.rebind(query), args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Installation operations

func (x *Store) UpsertInstallation(ctx context.Context, inst *model.Installation) error {
	if err := inst.Validate(); err != nil {
		return err
	}

	perms := inst.Permissions
	if perms == nil {
		perms = map[string]string{}
	}
	raw, err := json.Marshal(perms)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal permissions", goerr.V("installID", inst.ID))
	}

	createdAt, updatedAt := inst.CreatedAt, inst.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	if _, err := x.exec(ctx, x.db, `
		INSERT INTO installations (id, account_id, account_login, account_type, permissions_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			account_id = excluded.account_id,
			account_login = excluded.account_login,
			account_type = excluded.account_type,
			permissions_json = excluded.permissions_json,
			updated_at = excluded.updated_at`,
		int64(inst.ID), inst.AccountID, inst.AccountLogin, inst.AccountType, string(raw),
		x.dialect.time(createdAt), x.dialect.time(updatedAt),
	); err != nil {
		return goerr.Wrap(err, "failed to upsert installation", goerr.V("installID", inst.ID))
	}
	return nil
}

func (x *Store) GetInstallation(ctx context.Context, id types.GitHubAppInstallID) (*model.Installation, error) {
	row := x.db.QueryRowContext(ctx, x.dialect.rebind(`
		SELECT id, account_id, account_login, account_type, permissions_json, created_at, updated_at
		FROM installations WHERE id = ?`), int64(id))

	var (
		inst      model.Installation
		rawPerms  string
		createdAt dbTime
		updatedAt dbTime
	)
	if err := row.Scan(&inst.ID, &inst.AccountID, &inst.AccountLogin, &inst.AccountType, &rawPerms, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(types.ErrInstallationNotFound, "installation not found", goerr.V("installID", id))
		}
		return nil, goerr.Wrap(err, "failed to get installation", goerr.V("installID", id))
	}

	if err := json.Unmarshal([]byte(rawPerms), &inst.Permissions); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal permissions", goerr.V("installID", id))
	}
	inst.CreatedAt, inst.UpdatedAt = createdAt.Time, updatedAt.Time
	return &inst, nil
}

// DeleteInstallation removes the installation. Repositories, their operations and events cascade
// through foreign keys. Events carry the installation ID without a foreign key, because they may
// arrive before the installation is stored, and are removed explicitly in the same transaction.
func (x *Store) DeleteInstallation(ctx context.Context, id types.GitHubAppInstallID) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer safe.Rollback(tx)

	res, err := x.exec(ctx, tx, `DELETE FROM installations WHERE id = ?`, int64(id))
	if err != nil {
		return goerr.Wrap(err, "failed to delete installation", goerr.V("installID", id))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(types.ErrInstallationNotFound, "installation not found", goerr.V("installID", id))
	}

	if _, err := x.exec(ctx, tx, `DELETE FROM webhook_events WHERE installation_id = ?`, int64(id)); err != nil {
		return goerr.Wrap(err, "failed to delete webhook events", goerr.V("installID", id))
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit installation deletion", goerr.V("installID", id))
	}
	return nil
}

// Repository operations

func (x *Store) UpsertRepositories(ctx context.Context, repos []*model.Repository) error {
	if len(repos) == 0 {
		return nil
	}
	for _, repo := range repos {
		if err := repo.Validate(); err != nil {
			return err
		}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer safe.Rollback(tx)

	now := time.Now()
	for _, repo := range repos {
		createdAt := repo.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := x.exec(ctx, tx, `
			INSERT INTO repositories (id, installation_id, name, full_name, owner_login, private, clone_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				installation_id = excluded.installation_id,
				name = excluded.name,
				full_name = excluded.full_name,
				owner_login = excluded.owner_login,
				private = excluded.private,
				clone_url = excluded.clone_url`,
			int64(repo.ID), int64(repo.InstallationID), repo.Name, repo.FullName, repo.OwnerLogin, repo.Private, repo.CloneURL,
			x.dialect.time(createdAt),
		); err != nil {
			return goerr.Wrap(err, "failed to upsert repository", goerr.V("repo", repo.FullName))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit repositories")
	}
	return nil
}

const repositoryColumns = `id, installation_id, name, full_name, owner_login, private, clone_url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*model.Repository, error) {
	var (
		repo      model.Repository
		createdAt dbTime
	)
	if err := row.Scan(&repo.ID, &repo.InstallationID, &repo.Name, &repo.FullName, &repo.OwnerLogin, &repo.Private, &repo.CloneURL, &createdAt); err != nil {
		return nil, err
	}
	repo.CreatedAt = createdAt.Time
	return &repo, nil
}

func (x *Store) GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error) {
	row := x.db.QueryRowContext(ctx, x.dialect.rebind(`SELECT `+repositoryColumns+`
		FROM repositories WHERE full_name = ? ORDER BY id LIMIT 1`), fullName)

	repo, err := scanRepository(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(types.ErrRepositoryNotFound, "repository not found", goerr.V("repository", fullName))
		}
		return nil, goerr.Wrap(err, "failed to get repository", goerr.V("repository", fullName))
	}
	return repo, nil
}

func (x *Store) ListRepositories(ctx context.Context, installID types.GitHubAppInstallID) ([]*model.Repository, error) {
	rows, err := x.db.QueryContext(ctx, x.dialect.rebind(`SELECT `+repositoryColumns+`
		FROM repositories WHERE installation_id = ? ORDER BY full_name`), int64(installID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list repositories", goerr.V("installID", installID))
	}
	defer safe.Close(rows)

	var repos []*model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan repository", goerr.V("installID", installID))
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate repositories", goerr.V("installID", installID))
	}
	return repos, nil
}

func (x *Store) DeleteRepositoriesExcept(ctx context.Context, installID types.GitHubAppInstallID, keep []types.GitHubRepoID) error {
	query := `DELETE FROM repositories WHERE installation_id = ?`
	args := []any{int64(installID)}
	if len(keep) > 0 {
		marks := make([]string, len(keep))
		for i, id := range keep {
			marks[i] = "?"
			args = append(args, int64(id))
		}
		query += ` AND id NOT IN (` + strings.Join(marks, ", ") + `)`
	}

	res, err := x.exec(ctx, x.db, query, args...)
	if err != nil {
		return goerr.Wrap(err, "failed to delete repositories", goerr.V("installID", installID))
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logging.From(ctx).Info("removed repositories no longer granted",
			slog.Any("installID", installID),
			slog.Int64("count", n),
		)
	}
	return nil
}

// Webhook event operations

func (x *Store) InsertWebhookEvent(ctx context.Context, ev *model.WebhookEvent) error {
	if ev.ID == "" {
		return goerr.Wrap(types.ErrValidationFailed, "webhook event ID is empty")
	}

	var installID, repoID *int64
	if ev.InstallationID != nil {
		v := int64(*ev.InstallationID)
		installID = &v
	}
	if ev.RepositoryID != nil {
		v := int64(*ev.RepositoryID)
		repoID = &v
	}

	if _, err := x.exec(ctx, x.db, `
		INSERT INTO webhook_events (id, event_type, action, installation_id, repository_id, payload, processed, created_at)
		VALUES (?, ?, ?, ?,
			(SELECT id FROM repositories WHERE id = ?),
			?, ?, ?)`,
		string(ev.ID), string(ev.EventType), ev.Action, nullInt64{installID}, nullInt64{repoID},
		string(ev.Payload), ev.Processed, x.dialect.time(ev.CreatedAt),
	); err != nil {
		return goerr.Wrap(err, "failed to insert webhook event", goerr.V("eventID", ev.ID))
	}
	return nil
}

func (x *Store) MarkWebhookEventProcessed(ctx context.Context, id types.WebhookEventID) error {
	res, err := x.exec(ctx, x.db, `UPDATE webhook_events SET processed = ? WHERE id = ?`, true, string(id))
	if err != nil {
		return goerr.Wrap(err, "failed to mark webhook event processed", goerr.V("eventID", id))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(repository.ErrNotFound, "webhook event not found", goerr.V("eventID", id))
	}
	return nil
}

func (x *Store) GetWebhookEvent(ctx context.Context, id types.WebhookEventID) (*model.WebhookEvent, error) {
	row := x.db.QueryRowContext(ctx, x.dialect.rebind(`
		SELECT id, event_type, action, installation_id, repository_id, payload, processed, created_at
		FROM webhook_events WHERE id = ?`), string(id))

	var (
		ev        model.WebhookEvent
		installID sql.NullInt64
		repoID    sql.NullInt64
		payload   string
		createdAt dbTime
	)
	if err := row.Scan(&ev.ID, &ev.EventType, &ev.Action, &installID, &repoID, &payload, &ev.Processed, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(repository.ErrNotFound, "webhook event not found", goerr.V("eventID", id))
		}
		return nil, goerr.Wrap(err, "failed to get webhook event", goerr.V("eventID", id))
	}

	if installID.Valid {
		v := types.GitHubAppInstallID(installID.Int64)
		ev.InstallationID = &v
	}
	if repoID.Valid {
		v := types.GitHubRepoID(repoID.Int64)
		ev.RepositoryID = &v
	}
	ev.Payload = []byte(payload)
	ev.CreatedAt = createdAt.Time
	return &ev, nil
}

// Git operation operations

func (x *Store) CreateOperation(ctx context.Context, op *model.GitOperation) error {
	if err := op.ID.Validate(); err != nil {
		return err
	}
	if op.Status != types.OperationPending {
		return goerr.Wrap(types.ErrValidationFailed, "new operation must be pending", goerr.V("status", op.Status))
	}

	if _, err := x.exec(ctx, x.db, `
		INSERT INTO git_operations (id, operation_type, repository_id, repository, branch, status, result, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		string(op.ID), string(op.Kind), int64(op.RepositoryID), op.Repository, op.Branch,
		string(op.Status), op.Result, x.dialect.time(op.CreatedAt),
	); err != nil {
		if x.isDuplicate(ctx, op.ID) {
			return goerr.Wrap(repository.ErrAlreadyExists, "operation already exists", goerr.V("operationID", op.ID))
		}
		return goerr.Wrap(err, "failed to create operation", goerr.V("operationID", op.ID))
	}
	return nil
}

func (x *Store) isDuplicate(ctx context.Context, id types.OperationID) bool {
	_, err := x.GetOperation(ctx, id)
	return err == nil
}

const operationColumns = `id, operation_type, repository_id, repository, branch, status, result, created_at, completed_at`

func scanOperation(row rowScanner) (*model.GitOperation, error) {
	var (
		op          model.GitOperation
		createdAt   dbTime
		completedAt dbTime
	)
	if err := row.Scan(&op.ID, &op.Kind, &op.RepositoryID, &op.Repository, &op.Branch, &op.Status, &op.Result, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	op.CreatedAt = createdAt.Time
	op.CompletedAt = completedAt.ptr()
	return &op, nil
}

func (x *Store) GetOperation(ctx context.Context, id types.OperationID) (*model.GitOperation, error) {
	row := x.db.QueryRowContext(ctx, x.dialect.rebind(`SELECT `+operationColumns+` FROM git_operations WHERE id = ?`), string(id))

	op, err := scanOperation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(types.ErrOperationNotFound, "operation not found", goerr.V("operationID", id))
		}
		return nil, goerr.Wrap(err, "failed to get operation", goerr.V("operationID", id))
	}
	return op, nil
}

func (x *Store) ListOperationsByRepository(ctx context.Context, repoID types.GitHubRepoID, limit int) ([]*model.GitOperation, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	rows, err := x.db.QueryContext(ctx, x.dialect.rebind(`SELECT `+operationColumns+`
		FROM git_operations WHERE repository_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`), int64(repoID), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list operations", goerr.V("repoID", repoID))
	}
	defer safe.Close(rows)

	ops := []*model.GitOperation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan operation", goerr.V("repoID", repoID))
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate operations", goerr.V("repoID", repoID))
	}
	return ops, nil
}

func (x *Store) TransitionOperation(ctx context.Context, id types.OperationID, from, to types.OperationStatus, result string, at time.Time) error {
	if !from.CanTransitionTo(to) {
		return goerr.Wrap(types.ErrInvalidTransition, "transition is not allowed",
			goerr.V("operationID", id), goerr.V("from", from), goerr.V("to", to))
	}

	var completedAt *time.Time
	if to.IsTerminal() {
		completedAt = &at
	}

	res, err := x.exec(ctx, x.db, `
		UPDATE git_operations SET status = ?, result = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(to), result, x.dialect.nullTime(completedAt), string(id), string(from),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update operation", goerr.V("operationID", id))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to get affected rows", goerr.V("operationID", id))
	}
	if n == 0 {
		current, err := x.GetOperation(ctx, id)
		if err != nil {
			return err
		}
		return goerr.Wrap(types.ErrInvalidTransition, "operation is not in the expected status",
			goerr.V("operationID", id), goerr.V("expected", from), goerr.V("actual", current.Status), goerr.V("to", to))
	}
	return nil
}

func (x *Store) FailUnfinishedOperations(ctx context.Context, result string, at time.Time) (int, error) {
	res, err := x.exec(ctx, x.db, `
		UPDATE git_operations SET status = ?, result = ?, completed_at = ?
		WHERE status IN (?, ?)`,
		string(types.OperationFailed), result, x.dialect.time(at),
		string(types.OperationPending), string(types.OperationRunning),
	)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to fail unfinished operations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get affected rows")
	}
	return int(n), nil
}
