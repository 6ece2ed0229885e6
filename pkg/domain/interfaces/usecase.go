package interfaces

//go:generate moq -out ../mock/usecase.go -pkg mock . UseCase

import (
	"context"

	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

type UseCase interface {
	SubmitOperation(ctx context.Context, input *model.SubmitOperationInput) (*model.GitOperation, error)
	GetOperation(ctx context.Context, id types.OperationID) (*model.GitOperation, error)
	ListRepositoryOperations(ctx context.Context, fullName string) ([]*model.GitOperation, error)
	CancelOperation(ctx context.Context, id types.OperationID) error

	HandleWebhook(ctx context.Context, input *model.WebhookInput) error
}
