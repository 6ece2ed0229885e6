package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/repository"
	"github.com/m-mizutani/octoexec/pkg/utils/errutil"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

// SubmitOperation validates the request, records a pending operation and dispatches its execution
// in the background. An unknown repository fails synchronously and creates nothing.
func (x *UseCase) SubmitOperation(ctx context.Context, input *model.SubmitOperationInput) (*model.GitOperation, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	store := x.clients.OperationStore()
	repo, err := store.GetRepositoryByFullName(ctx, input.Repository)
	if err != nil {
		return nil, err
	}

	op := &model.GitOperation{
		ID:           types.NewOperationID(),
		Kind:         input.Kind,
		RepositoryID: repo.ID,
		Repository:   repo.FullName,
		Branch:       input.Branch,
		Status:       types.OperationPending,
		CreatedAt:    x.now(),
	}

	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return nil, goerr.Wrap(types.ErrOperationCanceled, "service is shutting down")
	}
	if err := store.CreateOperation(ctx, op); err != nil {
		x.mu.Unlock()
		return nil, err
	}
	runCtx, cancel := context.WithCancel(logging.DetachContext(ctx))
	x.running[op.ID] = cancel
	x.wg.Add(1)
	x.mu.Unlock()

	logging.From(ctx).Info("operation submitted",
		slog.Any("operationID", op.ID),
		slog.Any("type", op.Kind),
		slog.String("repository", op.Repository),
	)

	go func() {
		defer x.wg.Done()
		defer x.forget(op.ID)
		defer cancel()

		if err := x.ExecuteOperation(runCtx, op.ID, input); err != nil {
			errutil.HandleError(runCtx, "failed to execute operation", err)
		}
	}()

	return op, nil
}

func (x *UseCase) forget(id types.OperationID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.running, id)
}

func (x *UseCase) GetOperation(ctx context.Context, id types.OperationID) (*model.GitOperation, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(types.ErrOperationNotFound, "malformed operation ID", goerr.V("operationID", id))
	}
	return x.clients.OperationStore().GetOperation(ctx, id)
}

// ListRepositoryOperations returns the most recent operations of a repository, newest first.
func (x *UseCase) ListRepositoryOperations(ctx context.Context, fullName string) ([]*model.GitOperation, error) {
	if _, _, err := model.SplitFullName(fullName); err != nil {
		return nil, err
	}

	store := x.clients.OperationStore()
	repo, err := store.GetRepositoryByFullName(ctx, fullName)
	if err != nil {
		return nil, err
	}
	return store.ListOperationsByRepository(ctx, repo.ID, repository.DefaultListLimit)
}

// CancelOperation stops an operation dispatched by this process. The operation ends as failed.
func (x *UseCase) CancelOperation(ctx context.Context, id types.OperationID) error {
	op, err := x.GetOperation(ctx, id)
	if err != nil {
		return err
	}
	if op.Status.IsTerminal() {
		return goerr.Wrap(types.ErrInvalidTransition, "operation already finished",
			goerr.V("operationID", id), goerr.V("status", op.Status))
	}

	x.mu.Lock()
	cancel, ok := x.running[id]
	x.mu.Unlock()
	if !ok {
		return goerr.Wrap(types.ErrInvalidTransition, "operation is not running in this instance", goerr.V("operationID", id))
	}

	logging.From(ctx).Info("canceling operation", slog.Any("operationID", id))
	cancel()
	return nil
}
