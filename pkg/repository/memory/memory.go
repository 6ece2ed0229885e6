package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/repository"
)

// Store is an in-memory OperationStore that mirrors the cascade rules of the relational schema.
type Store struct {
	mu            sync.RWMutex
	installations map[types.GitHubAppInstallID]*model.Installation
	repos         map[types.GitHubRepoID]*model.Repository
	events        map[types.WebhookEventID]*model.WebhookEvent
	ops           map[types.OperationID]*model.GitOperation
}

var _ interfaces.OperationStore = (*Store)(nil)

// New creates a new in-memory repository
func New() *Store {
	return &Store{
		installations: make(map[types.GitHubAppInstallID]*model.Installation),
		repos:         make(map[types.GitHubRepoID]*model.Repository),
		events:        make(map[types.WebhookEventID]*model.WebhookEvent),
		ops:           make(map[types.OperationID]*model.GitOperation),
	}
}

// Installation operations

func (r *Store) UpsertInstallation(ctx context.Context, inst *model.Installation) error {
	if err := inst.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := copyInstallation(inst)
	if cpy.CreatedAt.IsZero() {
		cpy.CreatedAt = time.Now()
	}
	if cpy.UpdatedAt.IsZero() {
		cpy.UpdatedAt = cpy.CreatedAt
	}
	if cpy.Permissions == nil {
		cpy.Permissions = map[string]string{}
	}
	if old, exists := r.installations[inst.ID]; exists {
		cpy.CreatedAt = old.CreatedAt
	}
	r.installations[inst.ID] = cpy
	return nil
}

func (r *Store) GetInstallation(ctx context.Context, id types.GitHubAppInstallID) (*model.Installation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, exists := r.installations[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrInstallationNotFound, "installation not found", goerr.V("installID", id))
	}
	return copyInstallation(inst), nil
}

func (r *Store) DeleteInstallation(ctx context.Context, id types.GitHubAppInstallID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.installations[id]; !exists {
		return goerr.Wrap(types.ErrInstallationNotFound, "installation not found", goerr.V("installID", id))
	}

	for repoID, repo := range r.repos {
		if repo.InstallationID == id {
			r.deleteRepository(repoID)
		}
	}
	for evID, ev := range r.events {
		if ev.InstallationID != nil && *ev.InstallationID == id {
			delete(r.events, evID)
		}
	}
	delete(r.installations, id)
	return nil
}

// deleteRepository removes a repository and its dependents. Caller holds the lock.
func (r *Store) deleteRepository(id types.GitHubRepoID) {
	for opID, op := range r.ops {
		if op.RepositoryID == id {
			delete(r.ops, opID)
		}
	}
	for evID, ev := range r.events {
		if ev.RepositoryID != nil && *ev.RepositoryID == id {
			delete(r.events, evID)
		}
	}
	delete(r.repos, id)
}

// Repository operations

func (r *Store) UpsertRepositories(ctx context.Context, repos []*model.Repository) error {
	for _, repo := range repos {
		if err := repo.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, repo := range repos {
		if _, exists := r.installations[repo.InstallationID]; !exists {
			return goerr.Wrap(types.ErrInstallationNotFound, "repository references unknown installation",
				goerr.V("repo", repo.FullName), goerr.V("installID", repo.InstallationID))
		}
	}

	now := time.Now()
	for _, repo := range repos {
		cpy := copyRepository(repo)
		if old, exists := r.repos[repo.ID]; exists {
			cpy.CreatedAt = old.CreatedAt
		} else if cpy.CreatedAt.IsZero() {
			cpy.CreatedAt = now
		}
		r.repos[repo.ID] = cpy
	}
	return nil
}

func (r *Store) GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.Repository
	for _, repo := range r.repos {
		if repo.FullName == fullName && (found == nil || repo.ID < found.ID) {
			found = repo
		}
	}
	if found == nil {
		return nil, goerr.Wrap(types.ErrRepositoryNotFound, "repository not found", goerr.V("repository", fullName))
	}
	return copyRepository(found), nil
}

func (r *Store) ListRepositories(ctx context.Context, installID types.GitHubAppInstallID) ([]*model.Repository, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var repos []*model.Repository
	for _, repo := range r.repos {
		if repo.InstallationID == installID {
			repos = append(repos, copyRepository(repo))
		}
	}
	sort.Slice(repos, func(i, j int) bool {
		return repos[i].FullName < repos[j].FullName
	})
	return repos, nil
}

func (r *Store) DeleteRepositoriesExcept(ctx context.Context, installID types.GitHubAppInstallID, keep []types.GitHubRepoID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keepSet := make(map[types.GitHubRepoID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	for id, repo := range r.repos {
		if repo.InstallationID != installID {
			continue
		}
		if _, ok := keepSet[id]; !ok {
			r.deleteRepository(id)
		}
	}
	return nil
}

// Webhook event operations

func (r *Store) InsertWebhookEvent(ctx context.Context, ev *model.WebhookEvent) error {
	if ev.ID == "" {
		return goerr.Wrap(types.ErrValidationFailed, "webhook event ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[ev.ID]; exists {
		return goerr.Wrap(repository.ErrAlreadyExists, "webhook event already exists", goerr.V("eventID", ev.ID))
	}

	cpy := copyWebhookEvent(ev)
	if cpy.RepositoryID != nil {
		if _, exists := r.repos[*cpy.RepositoryID]; !exists {
			cpy.RepositoryID = nil
		}
	}
	r.events[ev.ID] = cpy
	return nil
}

func (r *Store) MarkWebhookEventProcessed(ctx context.Context, id types.WebhookEventID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, exists := r.events[id]
	if !exists {
		return goerr.Wrap(repository.ErrNotFound, "webhook event not found", goerr.V("eventID", id))
	}
	ev.Processed = true
	return nil
}

func (r *Store) GetWebhookEvent(ctx context.Context, id types.WebhookEventID) (*model.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "webhook event not found", goerr.V("eventID", id))
	}
	return copyWebhookEvent(ev), nil
}

// Git operation operations

func (r *Store) CreateOperation(ctx context.Context, op *model.GitOperation) error {
	if err := op.ID.Validate(); err != nil {
		return err
	}
	if op.Status != types.OperationPending {
		return goerr.Wrap(types.ErrValidationFailed, "new operation must be pending", goerr.V("status", op.Status))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[op.ID]; exists {
		return goerr.Wrap(repository.ErrAlreadyExists, "operation already exists", goerr.V("operationID", op.ID))
	}
	if _, exists := r.repos[op.RepositoryID]; !exists {
		return goerr.Wrap(types.ErrRepositoryNotFound, "operation references unknown repository",
			goerr.V("operationID", op.ID), goerr.V("repoID", op.RepositoryID))
	}

	r.ops[op.ID] = copyOperation(op)
	return nil
}

func (r *Store) GetOperation(ctx context.Context, id types.OperationID) (*model.GitOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, exists := r.ops[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrOperationNotFound, "operation not found", goerr.V("operationID", id))
	}
	return copyOperation(op), nil
}

func (r *Store) ListOperationsByRepository(ctx context.Context, repoID types.GitHubRepoID, limit int) ([]*model.GitOperation, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := []*model.GitOperation{}
	for _, op := range r.ops {
		if op.RepositoryID == repoID {
			ops = append(ops, copyOperation(op))
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].CreatedAt.After(ops[j].CreatedAt)
		}
		return ops[i].ID > ops[j].ID
	})
	if len(ops) > limit {
		ops = ops[:limit]
	}
	return ops, nil
}

func (r *Store) TransitionOperation(ctx context.Context, id types.OperationID, from, to types.OperationStatus, result string, at time.Time) error {
	if !from.CanTransitionTo(to) {
		return goerr.Wrap(types.ErrInvalidTransition, "transition is not allowed",
			goerr.V("operationID", id), goerr.V("from", from), goerr.V("to", to))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	op, exists := r.ops[id]
	if !exists {
		return goerr.Wrap(types.ErrOperationNotFound, "operation not found", goerr.V("operationID", id))
	}
	if op.Status != from {
		return goerr.Wrap(types.ErrInvalidTransition, "operation is not in the expected status",
			goerr.V("operationID", id), goerr.V("expected", from), goerr.V("actual", op.Status), goerr.V("to", to))
	}

	op.Status = to
	op.Result = result
	if to.IsTerminal() {
		completedAt := at
		op.CompletedAt = &completedAt
	}
	return nil
}

func (r *Store) FailUnfinishedOperations(ctx context.Context, result string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, op := range r.ops {
		if op.Status.IsTerminal() {
			continue
		}
		completedAt := at
		op.Status = types.OperationFailed
		op.Result = result
		op.CompletedAt = &completedAt
		n++
	}
	return n, nil
}

func copyInstallation(inst *model.Installation) *model.Installation {
	if inst == nil {
		return nil
	}
	cpy := *inst
	if inst.Permissions != nil {
		cpy.Permissions = make(map[string]string, len(inst.Permissions))
		for k, v := range inst.Permissions {
			cpy.Permissions[k] = v
		}
	}
	return &cpy
}

func copyRepository(repo *model.Repository) *model.Repository {
	if repo == nil {
		return nil
	}
	cpy := *repo
	return &cpy
}

func copyWebhookEvent(ev *model.WebhookEvent) *model.WebhookEvent {
	if ev == nil {
		return nil
	}
	cpy := *ev
	if ev.InstallationID != nil {
		v := *ev.InstallationID
		cpy.InstallationID = &v
	}
	if ev.RepositoryID != nil {
		v := *ev.RepositoryID
		cpy.RepositoryID = &v
	}
	cpy.Payload = append([]byte(nil), ev.Payload...)
	return &cpy
}

func copyOperation(op *model.GitOperation) *model.GitOperation {
	if op == nil {
		return nil
	}
	cpy := *op
	if op.CompletedAt != nil {
		v := *op.CompletedAt
		cpy.CompletedAt = &v
	}
	return &cpy
}
