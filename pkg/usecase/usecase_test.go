package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/domain/mock"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra"
	"github.com/m-mizutani/octoexec/pkg/repository/memory"
	"github.com/m-mizutani/octoexec/pkg/usecase"
)

const (
	testToken     = types.InstallationToken("ghs_testtoken0123456789")
	testWorkspace = "/workspace"
)

type fixture struct {
	uc    *usecase.UseCase
	store *memory.Store
	gh    *mock.GitHubAppMock
	exec  *mock.ExecutorMock
	audit *mock.AuditSinkMock
	inst  *model.Installation
	repo  *model.Repository
}

func newFixture(t *testing.T, options ...usecase.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	inst := &model.Installation{
		ID:           42,
		AccountID:    7,
		AccountLogin: "octo",
		AccountType:  "Organization",
	}
	repo := &model.Repository{
		ID:             1001,
		InstallationID: inst.ID,
		Name:           "hello",
		FullName:       "octo/hello",
		OwnerLogin:     "octo",
		CloneURL:       "https://github.com/octo/hello.git",
	}
	gt.NoError(t, store.UpsertInstallation(ctx, inst))
	gt.NoError(t, store.UpsertRepositories(ctx, []*model.Repository{repo}))

	gh := &mock.GitHubAppMock{
		GetTokenFunc: func(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
			return &model.InstallationToken{Token: testToken, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	exec := &mock.ExecutorMock{
		ExecFunc: func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			return &model.ExecResult{ExitCode: 0, Stdout: "ok\n", DurationMs: 1}, nil
		},
	}
	audit := &mock.AuditSinkMock{
		RecordFunc: func(ctx context.Context, audit *model.OperationAudit) error {
			return nil
		},
	}

	options = append([]usecase.Option{usecase.WithWorkspaceRoot(testWorkspace)}, options...)
	uc := usecase.New(infra.New(
		infra.WithOperationStore(store),
		infra.WithGitHubApp(gh),
		infra.WithExecutor(exec),
		infra.WithAuditSink(audit),
	), options...)

	return &fixture{uc: uc, store: store, gh: gh, exec: exec, audit: audit, inst: inst, repo: repo}
}

// submitAndWait submits an operation and returns its record once it is finished.
func (x *fixture) submitAndWait(t *testing.T, input *model.SubmitOperationInput) *model.GitOperation {
	t.Helper()
	ctx := context.Background()

	op := gt.R1(x.uc.SubmitOperation(ctx, input)).NoError(t)
	gt.V(t, op.Status).Equal(types.OperationPending)
	x.uc.Wait()

	return gt.R1(x.uc.GetOperation(ctx, op.ID)).NoError(t)
}
