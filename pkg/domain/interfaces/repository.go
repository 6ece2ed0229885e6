package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// OperationStore persists installations, repositories, webhook events and git operations.
type OperationStore interface {
	// Installation operations
	UpsertInstallation(ctx context.Context, inst *model.Installation) error
	GetInstallation(ctx context.Context, id types.GitHubAppInstallID) (*model.Installation, error)
	// DeleteInstallation removes the installation and everything that references it.
	DeleteInstallation(ctx context.Context, id types.GitHubAppInstallID) error

	// Repository operations
	UpsertRepositories(ctx context.Context, repos []*model.Repository) error
	GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error)
	ListRepositories(ctx context.Context, installID types.GitHubAppInstallID) ([]*model.Repository, error)
	// DeleteRepositoriesExcept removes repositories of the installation whose ID is not in keep.
	DeleteRepositoriesExcept(ctx context.Context, installID types.GitHubAppInstallID, keep []types.GitHubRepoID) error

	// Webhook event operations. The installation reference is kept even if the installation is not
	// stored yet, so DeleteInstallation also removes events that arrived before it. A reference to
	// an unknown repository is stored as NULL.
	InsertWebhookEvent(ctx context.Context, ev *model.WebhookEvent) error
	MarkWebhookEventProcessed(ctx context.Context, id types.WebhookEventID) error
	GetWebhookEvent(ctx context.Context, id types.WebhookEventID) (*model.WebhookEvent, error)

	// Git operation operations
	CreateOperation(ctx context.Context, op *model.GitOperation) error
	GetOperation(ctx context.Context, id types.OperationID) (*model.GitOperation, error)
	ListOperationsByRepository(ctx context.Context, repoID types.GitHubRepoID, limit int) ([]*model.GitOperation, error)
	// TransitionOperation moves an operation from one status to another atomically. It fails with
	// types.ErrInvalidTransition when the stored status is not from or the step is not allowed.
	TransitionOperation(ctx context.Context, id types.OperationID, from, to types.OperationStatus, result string, at time.Time) error
	// FailUnfinishedOperations marks every pending or running operation as failed.
	FailUnfinishedOperations(ctx context.Context, result string, at time.Time) (int, error)
}
