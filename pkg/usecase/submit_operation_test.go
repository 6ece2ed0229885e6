package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/domain/mock"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra"
	"github.com/m-mizutani/octoexec/pkg/usecase"
)

func TestSubmitOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown repository fails without creating an operation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.SubmitOperation(ctx, &model.SubmitOperationInput{
			Kind:       types.OperationClone,
			Repository: "octo/unknown",
			Branch:     "main",
		})
		gt.True(t, errors.Is(err, types.ErrRepositoryNotFound))
		f.uc.Wait()

		gt.A(t, f.exec.ExecCalls()).Length(0)
		gt.A(t, f.gh.GetTokenCalls()).Length(0)
		ops := gt.R1(f.uc.ListRepositoryOperations(ctx, "octo/hello")).NoError(t)
		gt.A(t, ops).Length(0)
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		f := newFixture(t)
		inputs := []*model.SubmitOperationInput{
			{Kind: "rebase", Repository: "octo/hello"},
			{Kind: types.OperationClone, Repository: "hello"},
			{Kind: types.OperationCommit, Repository: "octo/hello"},
			{Kind: types.OperationClone, Repository: "octo/hello", Branch: "--upload-pack=x"},
			{Kind: types.OperationPush, Repository: "octo/hello", Files: []model.FileChange{{Path: "a", Content: "b"}}},
		}
		for _, input := range inputs {
			_, err := f.uc.SubmitOperation(ctx, input)
			gt.True(t, errors.Is(err, types.ErrValidationFailed))
		}
		gt.A(t, f.exec.ExecCalls()).Length(0)
	})

	t.Run("clone of a known repository completes with the worker output", func(t *testing.T) {
		f := newFixture(t)
		var statusDuringExec types.OperationStatus
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			ops := gt.R1(f.store.ListOperationsByRepository(ctx, f.repo.ID, 1)).NoError(t)
			statusDuringExec = ops[0].Status
			return &model.ExecResult{
				ExitCode:   0,
				Stderr:     "Cloning into '/workspace/octo/hello'...\n",
				DurationMs: 120,
			}, nil
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{
			Kind:       types.OperationClone,
			Repository: "octo/hello",
			Branch:     "main",
		})

		gt.V(t, statusDuringExec).Equal(types.OperationRunning)
		gt.V(t, op.Status).Equal(types.OperationCompleted)
		gt.S(t, op.Result).Contains("Cloning into")
		gt.V(t, op.CompletedAt != nil).Equal(true)
		gt.V(t, op.Kind).Equal(types.OperationClone)
		gt.V(t, op.Repository).Equal("octo/hello")

		calls := f.exec.ExecCalls()
		gt.A(t, calls).Length(1)
		req := calls[0].Req
		gt.V(t, req.Command).Equal([]string{
			"git", "clone", "--depth", "1", "--branch", "main",
			"https://github.com/octo/hello.git", "/workspace/octo/hello",
		})
		gt.V(t, req.WorkingDir).Equal("/workspace/octo")
		gt.V(t, req.TimeoutMs).Equal(usecase.DefaultOperationTimeout.Milliseconds())
		gt.V(t, req.Env[usecase.EnvAccessToken]).Equal(string(testToken))
		for _, arg := range req.Command {
			gt.False(t, strings.Contains(arg, string(testToken)))
		}

		tokenCalls := f.gh.GetTokenCalls()
		gt.A(t, tokenCalls).Length(1)
		gt.V(t, tokenCalls[0].InstallID).Equal(f.inst.ID)
	})

	t.Run("stdout is stored on success", func(t *testing.T) {
		f := newFixture(t)
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			return &model.ExecResult{ExitCode: 0, Stdout: "Already up to date.\n", Stderr: "From github.com:octo/hello\n"}, nil
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationPull, Repository: "octo/hello", Branch: "main"})
		gt.V(t, op.Status).Equal(types.OperationCompleted)
		gt.V(t, op.Result).Equal("Already up to date.\n")
	})

	t.Run("rejected credential exchange fails the operation before running", func(t *testing.T) {
		f := newFixture(t)
		f.gh.GetTokenFunc = func(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
			return nil, goerr.Wrap(types.ErrAuth, "installation token exchange failed")
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})
		gt.V(t, op.Status).Equal(types.OperationFailed)
		gt.S(t, op.Result).Contains("authentication error")
		gt.V(t, op.CompletedAt != nil).Equal(true)
		gt.A(t, f.exec.ExecCalls()).Length(0)
	})

	t.Run("unreachable worker fails the operation", func(t *testing.T) {
		f := newFixture(t)
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			return nil, goerr.Wrap(types.ErrWorkerUnavailable, "failed to call execution worker")
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})
		gt.V(t, op.Status).Equal(types.OperationFailed)
		gt.S(t, op.Result).Contains("execution worker unavailable")
	})

	t.Run("timed out command fails the operation", func(t *testing.T) {
		f := newFixture(t, usecase.WithTimeout(2*time.Second))
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			gt.V(t, req.TimeoutMs).Equal(int64(2000))
			return &model.ExecResult{ExitCode: model.TimeoutExitCode, Stderr: "\nprocess timed out after 2s", DurationMs: 2004, Timeout: true}, nil
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationPull, Repository: "octo/hello"})
		gt.V(t, op.Status).Equal(types.OperationFailed)
		gt.S(t, op.Result).Contains("execution timeout")
		gt.S(t, op.Result).Contains("process timed out")
	})

	t.Run("exit code 124 without worker timeout is a command failure", func(t *testing.T) {
		f := newFixture(t)
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			return &model.ExecResult{ExitCode: model.TimeoutExitCode, Stderr: "hook exited with 124", DurationMs: 10}, nil
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationPull, Repository: "octo/hello"})
		gt.V(t, op.Status).Equal(types.OperationFailed)
		gt.S(t, op.Result).NotContains("execution timeout")
		gt.S(t, op.Result).Contains("hook exited with 124")
	})

	t.Run("non-zero exit fails with a truncated diagnostic", func(t *testing.T) {
		f := newFixture(t)
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			return &model.ExecResult{
				ExitCode: 1,
				Stderr:   "fatal: could not read from remote " + string(testToken) + "\n" + strings.Repeat("x", 10000),
			}, nil
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationPush, Repository: "octo/hello"})
		gt.V(t, op.Status).Equal(types.OperationFailed)
		gt.S(t, op.Result).Contains("command failure: exit code 1")
		gt.S(t, op.Result).Contains("fatal: could not read from remote")
		gt.S(t, op.Result).NotContains(string(testToken))
		gt.True(t, len(op.Result) <= usecase.MaxResultLengthForTest)
	})

	t.Run("sink failures do not change the operation", func(t *testing.T) {
		f := newFixture(t)
		f.audit.RecordFunc = func(ctx context.Context, audit *model.OperationAudit) error {
			return goerr.New("bigquery is down")
		}

		op := f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})
		gt.V(t, op.Status).Equal(types.OperationCompleted)
		gt.A(t, f.audit.RecordCalls()).Length(1)
	})
}

func TestOperationReachesTerminalStateOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var n atomic.Int32
	f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
		if n.Add(1)%2 == 0 {
			return &model.ExecResult{ExitCode: 128, Stderr: "fatal: error"}, nil
		}
		return &model.ExecResult{ExitCode: 0, Stdout: "done"}, nil
	}

	var ids []types.OperationID
	for i := 0; i < 10; i++ {
		op := gt.R1(f.uc.SubmitOperation(ctx, &model.SubmitOperationInput{
			Kind:       types.OperationPull,
			Repository: "octo/hello",
		})).NoError(t)
		ids = append(ids, op.ID)
	}
	f.uc.Wait()

	records := map[types.OperationID]int{}
	for _, call := range f.audit.RecordCalls() {
		gt.True(t, types.OperationStatus(call.Audit.Status).IsTerminal())
		records[types.OperationID(call.Audit.OperationID)]++
	}

	for _, id := range ids {
		op := gt.R1(f.uc.GetOperation(ctx, id)).NoError(t)
		gt.True(t, op.Status.IsTerminal())
		gt.V(t, records[id]).Equal(1)

		// A finished operation cannot be moved again
		for _, to := range []types.OperationStatus{types.OperationPending, types.OperationRunning, types.OperationCompleted, types.OperationFailed} {
			err := f.store.TransitionOperation(ctx, id, op.Status, to, "", time.Now())
			gt.True(t, errors.Is(err, types.ErrInvalidTransition))
		}

		again := gt.R1(f.uc.GetOperation(ctx, id)).NoError(t)
		gt.V(t, again.Status).Equal(op.Status)
		gt.V(t, again.Result).Equal(op.Result)
	}
}

func TestOperationsAreSerializedPerRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other := &model.Repository{
		ID:             1002,
		InstallationID: f.inst.ID,
		Name:           "world",
		FullName:       "octo/world",
		OwnerLogin:     "octo",
		CloneURL:       "https://github.com/octo/world.git",
	}
	gt.NoError(t, f.store.UpsertRepositories(ctx, []*model.Repository{other}))

	var mu sync.Mutex
	inFlight := map[string]int{}
	maxInFlight := map[string]int{}

	f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
		mu.Lock()
		inFlight[req.WorkingDir]++
		if inFlight[req.WorkingDir] > maxInFlight[req.WorkingDir] {
			maxInFlight[req.WorkingDir] = inFlight[req.WorkingDir]
		}
		mu.Unlock()

		time.Sleep(30 * time.Millisecond)

		mu.Lock()
		inFlight[req.WorkingDir]--
		mu.Unlock()
		return &model.ExecResult{ExitCode: 0, Stdout: "ok"}, nil
	}

	for i := 0; i < 4; i++ {
		for _, repo := range []string{"octo/hello", "octo/world"} {
			gt.R1(f.uc.SubmitOperation(ctx, &model.SubmitOperationInput{Kind: types.OperationPull, Repository: repo})).NoError(t)
		}
	}
	f.uc.Wait()

	gt.V(t, maxInFlight["/workspace/octo/hello"]).Equal(1)
	gt.V(t, maxInFlight["/workspace/octo/world"]).Equal(1)
	gt.A(t, f.exec.ExecCalls()).Length(8)
	gt.V(t, f.uc.RepoLocksForTest().Size()).Equal(0)
}

func TestCancelOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels an in-flight operation", func(t *testing.T) {
		f := newFixture(t)
		started := make(chan struct{})
		f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			close(started)
			<-ctx.Done()
			return nil, goerr.Wrap(errors.Join(types.ErrOperationCanceled, ctx.Err()), "exec request canceled")
		}

		op := gt.R1(f.uc.SubmitOperation(ctx, &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})).NoError(t)
		<-started
		gt.NoError(t, f.uc.CancelOperation(ctx, op.ID))
		f.uc.Wait()

		got := gt.R1(f.uc.GetOperation(ctx, op.ID)).NoError(t)
		gt.V(t, got.Status).Equal(types.OperationFailed)
		gt.S(t, got.Result).Contains("operation canceled")

		// Already finished
		gt.True(t, errors.Is(f.uc.CancelOperation(ctx, op.ID), types.ErrInvalidTransition))
	})

	t.Run("unknown operation", func(t *testing.T) {
		f := newFixture(t)
		gt.True(t, errors.Is(f.uc.CancelOperation(ctx, types.NewOperationID()), types.ErrOperationNotFound))
		gt.True(t, errors.Is(f.uc.CancelOperation(ctx, "not-a-uuid"), types.ErrOperationNotFound))
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	started := make(chan struct{})
	f.exec.ExecFunc = func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	op := gt.R1(f.uc.SubmitOperation(ctx, &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})).NoError(t)
	<-started

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	gt.NoError(t, f.uc.Close(closeCtx))

	got := gt.R1(f.uc.GetOperation(ctx, op.ID)).NoError(t)
	gt.V(t, got.Status).Equal(types.OperationFailed)
	gt.S(t, got.Result).Contains("operation canceled")

	_, err := f.uc.SubmitOperation(ctx, &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})
	gt.Error(t, err)
}

func TestListRepositoryOperations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	f := newFixture(t, usecase.WithClock(func() time.Time {
		return now.Add(time.Duration(tick.Add(1)) * time.Second)
	}))

	for i := 0; i < 22; i++ {
		f.submitAndWait(t, &model.SubmitOperationInput{Kind: types.OperationPull, Repository: "octo/hello"})
	}

	ops := gt.R1(f.uc.ListRepositoryOperations(ctx, "octo/hello")).NoError(t)
	gt.A(t, ops).Length(20)
	for i := 1; i < len(ops); i++ {
		gt.True(t, ops[i-1].CreatedAt.After(ops[i].CreatedAt))
	}

	_, err := f.uc.ListRepositoryOperations(ctx, "octo/unknown")
	gt.True(t, errors.Is(err, types.ErrRepositoryNotFound))
}

func TestRecoverOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	op := &model.GitOperation{
		ID:           types.NewOperationID(),
		Kind:         types.OperationClone,
		RepositoryID: f.repo.ID,
		Repository:   f.repo.FullName,
		Status:       types.OperationPending,
		CreatedAt:    time.Now(),
	}
	gt.NoError(t, f.store.CreateOperation(ctx, op))

	n := gt.R1(f.uc.RecoverOperations(ctx)).NoError(t)
	gt.V(t, n).Equal(1)

	got := gt.R1(f.uc.GetOperation(ctx, op.ID)).NoError(t)
	gt.V(t, got.Status).Equal(types.OperationFailed)
}

func TestArchiveReceivesResult(t *testing.T) {
	archive := &mock.OutputArchiveMock{
		PutFunc: func(ctx context.Context, op *model.GitOperation, result *model.ExecResult) (string, error) {
			return "gs://bucket/" + op.ID.String() + ".json", nil
		},
	}
	f := newFixture(t)
	uc := usecase.New(infra.New(
		infra.WithOperationStore(f.store),
		infra.WithGitHubApp(f.gh),
		infra.WithExecutor(f.exec),
		infra.WithOutputArchive(archive),
		infra.WithAuditSink(f.audit),
	))

	op := gt.R1(uc.SubmitOperation(context.Background(), &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello"})).NoError(t)
	uc.Wait()

	calls := archive.PutCalls()
	gt.A(t, calls).Length(1)
	gt.V(t, calls[0].Op.ID).Equal(op.ID)
	gt.V(t, calls[0].Result.Stdout).Equal("ok\n")

	audits := f.audit.RecordCalls()
	gt.A(t, audits).Length(1)
	gt.V(t, audits[0].Audit.OperationID).Equal(op.ID.String())
	gt.V(t, audits[0].Audit.Status).Equal("completed")
	gt.V(t, audits[0].Audit.ArchiveURL).Equal("gs://bucket/" + op.ID.String() + ".json")
	gt.V(t, audits[0].Audit.ExitCode).Equal(int64(0))
}
