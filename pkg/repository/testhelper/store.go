package testhelper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/repository"
)

// TestAll runs all test cases for OperationStore
// This is the main entry point for testing any OperationStore implementation
func TestAll(t *testing.T, store interfaces.OperationStore) {
	t.Run("InstallationCRUD", func(t *testing.T) {
		TestInstallationCRUD(t, store)
	})
	t.Run("RepositoryCRUD", func(t *testing.T) {
		TestRepositoryCRUD(t, store)
	})
	t.Run("DeleteRepositoriesExcept", func(t *testing.T) {
		TestDeleteRepositoriesExcept(t, store)
	})
	t.Run("WebhookEvent", func(t *testing.T) {
		TestWebhookEvent(t, store)
	})
	t.Run("OperationLifecycle", func(t *testing.T) {
		TestOperationLifecycle(t, store)
	})
	t.Run("ListOperations", func(t *testing.T) {
		TestListOperations(t, store)
	})
	t.Run("CascadeDelete", func(t *testing.T) {
		TestCascadeDelete(t, store)
	})
	t.Run("FailUnfinishedOperations", func(t *testing.T) {
		TestFailUnfinishedOperations(t, store)
	})
}

func newID() int64 {
	return rand.Int64N(1<<40) + 1
}

// Seed creates an installation with one repository and returns both.
func Seed(t *testing.T, store interfaces.OperationStore) (*model.Installation, *model.Repository) {
	t.Helper()
	ctx := context.Background()

	inst := &model.Installation{
		ID:           types.GitHubAppInstallID(newID()),
		AccountID:    newID(),
		AccountLogin: fmt.Sprintf("owner-%s", uuid.NewString()[:8]),
		AccountType:  "Organization",
		Permissions:  map[string]string{"contents": "write", "metadata": "read"},
	}
	gt.NoError(t, store.UpsertInstallation(ctx, inst))

	repo := NewRepository(inst)
	gt.NoError(t, store.UpsertRepositories(ctx, []*model.Repository{repo}))
	return inst, repo
}

// NewRepository builds a repository of inst with unique identifiers.
func NewRepository(inst *model.Installation) *model.Repository {
	name := fmt.Sprintf("repo-%s", uuid.NewString()[:8])
	return &model.Repository{
		ID:             types.GitHubRepoID(newID()),
		InstallationID: inst.ID,
		Name:           name,
		FullName:       inst.AccountLogin + "/" + name,
		OwnerLogin:     inst.AccountLogin,
		CloneURL:       "https://github.com/" + inst.AccountLogin + "/" + name + ".git",
	}
}

func newOperation(repo *model.Repository, createdAt time.Time) *model.GitOperation {
	return &model.GitOperation{
		ID:           types.NewOperationID(),
		Kind:         types.OperationClone,
		RepositoryID: repo.ID,
		Repository:   repo.FullName,
		Branch:       "main",
		Status:       types.OperationPending,
		CreatedAt:    createdAt,
	}
}

// TestInstallationCRUD tests upsert, get and delete of installations
func TestInstallationCRUD(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	inst, _ := Seed(t, store)

	retrieved, err := store.GetInstallation(ctx, inst.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.AccountLogin).Equal(inst.AccountLogin)
	gt.V(t, retrieved.AccountType).Equal("Organization")
	gt.V(t, retrieved.Permissions["contents"]).Equal("write")
	createdAt := retrieved.CreatedAt

	// Update keeps the creation time
	inst.AccountLogin = inst.AccountLogin + "-renamed"
	inst.Permissions = map[string]string{"contents": "read"}
	inst.UpdatedAt = time.Now().Add(time.Minute)
	gt.NoError(t, store.UpsertInstallation(ctx, inst))

	retrieved, err = store.GetInstallation(ctx, inst.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.AccountLogin).Equal(inst.AccountLogin)
	gt.V(t, retrieved.Permissions["contents"]).Equal("read")
	gt.True(t, retrieved.CreatedAt.Equal(createdAt))

	// Not found
	_, err = store.GetInstallation(ctx, types.GitHubAppInstallID(newID()))
	gt.True(t, errors.Is(err, types.ErrInstallationNotFound))

	gt.True(t, errors.Is(store.DeleteInstallation(ctx, types.GitHubAppInstallID(newID())), types.ErrInstallationNotFound))

	// Invalid input
	gt.Error(t, store.UpsertInstallation(ctx, &model.Installation{ID: 0, AccountLogin: "x"}))
}

// TestRepositoryCRUD tests upsert and lookups of repositories
func TestRepositoryCRUD(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	inst, repo := Seed(t, store)

	retrieved, err := store.GetRepositoryByFullName(ctx, repo.FullName)
	gt.NoError(t, err)
	gt.V(t, retrieved.ID).Equal(repo.ID)
	gt.V(t, retrieved.InstallationID).Equal(inst.ID)
	gt.V(t, retrieved.CloneURL).Equal(repo.CloneURL)
	gt.False(t, retrieved.Private)

	// Update
	repo.Private = true
	repo.CloneURL = "https://github.com/" + repo.FullName + "-moved.git"
	gt.NoError(t, store.UpsertRepositories(ctx, []*model.Repository{repo}))

	retrieved, err = store.GetRepositoryByFullName(ctx, repo.FullName)
	gt.NoError(t, err)
	gt.True(t, retrieved.Private)
	gt.V(t, retrieved.CloneURL).Equal(repo.CloneURL)

	second := NewRepository(inst)
	gt.NoError(t, store.UpsertRepositories(ctx, []*model.Repository{second}))

	repos, err := store.ListRepositories(ctx, inst.ID)
	gt.NoError(t, err)
	gt.A(t, repos).Length(2)

	// Not found
	_, err = store.GetRepositoryByFullName(ctx, "nobody/"+uuid.NewString())
	gt.True(t, errors.Is(err, types.ErrRepositoryNotFound))

	// Unknown installation is rejected
	orphan := NewRepository(&model.Installation{ID: types.GitHubAppInstallID(newID()), AccountLogin: "orphan"})
	gt.Error(t, store.UpsertRepositories(ctx, []*model.Repository{orphan}))
}

// TestDeleteRepositoriesExcept tests removal of repositories no longer granted
func TestDeleteRepositoriesExcept(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	inst, keep := Seed(t, store)
	drop := NewRepository(inst)
	gt.NoError(t, store.UpsertRepositories(ctx, []*model.Repository{drop}))

	op := newOperation(drop, time.Now())
	gt.NoError(t, store.CreateOperation(ctx, op))

	gt.NoError(t, store.DeleteRepositoriesExcept(ctx, inst.ID, []types.GitHubRepoID{keep.ID}))

	repos, err := store.ListRepositories(ctx, inst.ID)
	gt.NoError(t, err)
	gt.A(t, repos).Length(1)
	gt.V(t, repos[0].ID).Equal(keep.ID)

	_, err = store.GetOperation(ctx, op.ID)
	gt.True(t, errors.Is(err, types.ErrOperationNotFound))

	// Empty keep list removes everything of the installation
	gt.NoError(t, store.DeleteRepositoriesExcept(ctx, inst.ID, nil))
	repos, err = store.ListRepositories(ctx, inst.ID)
	gt.NoError(t, err)
	gt.A(t, repos).Length(0)
}

// TestWebhookEvent tests persisting and marking webhook events
func TestWebhookEvent(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	inst, repo := Seed(t, store)

	t.Run("known references are kept", func(t *testing.T) {
		ev := &model.WebhookEvent{
			ID:             types.NewWebhookEventID(),
			EventType:      types.EventInstallation,
			Action:         "created",
			InstallationID: &inst.ID,
			RepositoryID:   &repo.ID,
			Payload:        []byte(`{"action":"created"}`),
			CreatedAt:      time.Now(),
		}
		gt.NoError(t, store.InsertWebhookEvent(ctx, ev))

		retrieved, err := store.GetWebhookEvent(ctx, ev.ID)
		gt.NoError(t, err)
		gt.V(t, retrieved.EventType).Equal(types.EventInstallation)
		gt.V(t, retrieved.Action).Equal("created")
		gt.V(t, *retrieved.InstallationID).Equal(inst.ID)
		gt.V(t, *retrieved.RepositoryID).Equal(repo.ID)
		gt.V(t, string(retrieved.Payload)).Equal(`{"action":"created"}`)
		gt.False(t, retrieved.Processed)

		gt.NoError(t, store.MarkWebhookEventProcessed(ctx, ev.ID))
		retrieved, err = store.GetWebhookEvent(ctx, ev.ID)
		gt.NoError(t, err)
		gt.True(t, retrieved.Processed)
	})

	t.Run("unknown installation is kept and unknown repository is null", func(t *testing.T) {
		unknownInst := types.GitHubAppInstallID(newID())
		unknownRepo := types.GitHubRepoID(newID())
		ev := &model.WebhookEvent{
			ID:             types.NewWebhookEventID(),
			EventType:      types.EventInstallation,
			Action:         "created",
			InstallationID: &unknownInst,
			RepositoryID:   &unknownRepo,
			Payload:        []byte(`{}`),
			CreatedAt:      time.Now(),
		}
		gt.NoError(t, store.InsertWebhookEvent(ctx, ev))

		retrieved, err := store.GetWebhookEvent(ctx, ev.ID)
		gt.NoError(t, err)
		gt.V(t, *retrieved.InstallationID).Equal(unknownInst)
		gt.V(t, retrieved.RepositoryID == nil).Equal(true)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetWebhookEvent(ctx, types.NewWebhookEventID())
		gt.True(t, errors.Is(err, repository.ErrNotFound))
		gt.True(t, errors.Is(store.MarkWebhookEventProcessed(ctx, types.NewWebhookEventID()), repository.ErrNotFound))
	})
}

// TestOperationLifecycle tests the status transitions of a git operation
func TestOperationLifecycle(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	_, repo := Seed(t, store)

	op := newOperation(repo, time.Now())
	gt.NoError(t, store.CreateOperation(ctx, op))

	retrieved, err := store.GetOperation(ctx, op.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.Status).Equal(types.OperationPending)
	gt.V(t, retrieved.Kind).Equal(types.OperationClone)
	gt.V(t, retrieved.Repository).Equal(repo.FullName)
	gt.V(t, retrieved.Branch).Equal("main")
	gt.V(t, retrieved.CompletedAt == nil).Equal(true)

	// Duplicate
	gt.True(t, errors.Is(store.CreateOperation(ctx, op), repository.ErrAlreadyExists))

	// Skipping running is rejected
	err = store.TransitionOperation(ctx, op.ID, types.OperationPending, types.OperationCompleted, "", time.Now())
	gt.True(t, errors.Is(err, types.ErrInvalidTransition))

	gt.NoError(t, store.TransitionOperation(ctx, op.ID, types.OperationPending, types.OperationRunning, "", time.Now()))
	retrieved, err = store.GetOperation(ctx, op.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.Status).Equal(types.OperationRunning)
	gt.V(t, retrieved.CompletedAt == nil).Equal(true)

	// Stale expectation is rejected
	err = store.TransitionOperation(ctx, op.ID, types.OperationPending, types.OperationRunning, "", time.Now())
	gt.True(t, errors.Is(err, types.ErrInvalidTransition))

	doneAt := time.Now().Truncate(time.Millisecond)
	gt.NoError(t, store.TransitionOperation(ctx, op.ID, types.OperationRunning, types.OperationCompleted, "Cloning into 'repo'...", doneAt))
	retrieved, err = store.GetOperation(ctx, op.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.Status).Equal(types.OperationCompleted)
	gt.V(t, retrieved.Result).Equal("Cloning into 'repo'...")
	gt.V(t, retrieved.CompletedAt != nil).Equal(true)
	gt.True(t, retrieved.CompletedAt.Equal(doneAt))

	// Terminal state never moves
	err = store.TransitionOperation(ctx, op.ID, types.OperationRunning, types.OperationFailed, "late", time.Now())
	gt.True(t, errors.Is(err, types.ErrInvalidTransition))
	err = store.TransitionOperation(ctx, op.ID, types.OperationCompleted, types.OperationRunning, "", time.Now())
	gt.True(t, errors.Is(err, types.ErrInvalidTransition))

	retrieved, err = store.GetOperation(ctx, op.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.Status).Equal(types.OperationCompleted)

	// Not found
	_, err = store.GetOperation(ctx, types.NewOperationID())
	gt.True(t, errors.Is(err, types.ErrOperationNotFound))
	err = store.TransitionOperation(ctx, types.NewOperationID(), types.OperationPending, types.OperationRunning, "", time.Now())
	gt.True(t, errors.Is(err, types.ErrOperationNotFound))

	// Unknown repository is rejected
	orphan := newOperation(&model.Repository{ID: types.GitHubRepoID(newID()), FullName: "a/b"}, time.Now())
	gt.Error(t, store.CreateOperation(ctx, orphan))
}

// TestListOperations tests newest-first listing with a limit
func TestListOperations(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	_, repo := Seed(t, store)

	base := time.Now().Add(-time.Hour)
	var ids []types.OperationID
	for i := 0; i < 25; i++ {
		op := newOperation(repo, base.Add(time.Duration(i)*time.Second))
		gt.NoError(t, store.CreateOperation(ctx, op))
		ids = append(ids, op.ID)
	}

	ops, err := store.ListOperationsByRepository(ctx, repo.ID, 20)
	gt.NoError(t, err)
	gt.A(t, ops).Length(20)
	gt.V(t, ops[0].ID).Equal(ids[24])
	gt.V(t, ops[19].ID).Equal(ids[5])

	ops, err = store.ListOperationsByRepository(ctx, repo.ID, 0)
	gt.NoError(t, err)
	gt.A(t, ops).Length(repository.DefaultListLimit)

	ops, err = store.ListOperationsByRepository(ctx, types.GitHubRepoID(newID()), 20)
	gt.NoError(t, err)
	gt.A(t, ops).Length(0)
}

// TestCascadeDelete tests that deleting an installation removes everything that references it
func TestCascadeDelete(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	inst, repo := Seed(t, store)
	other, otherRepo := Seed(t, store)

	op := newOperation(repo, time.Now())
	gt.NoError(t, store.CreateOperation(ctx, op))
	otherOp := newOperation(otherRepo, time.Now())
	gt.NoError(t, store.CreateOperation(ctx, otherOp))

	ev := &model.WebhookEvent{
		ID:             types.NewWebhookEventID(),
		EventType:      types.EventInstallation,
		Action:         "deleted",
		InstallationID: &inst.ID,
		Payload:        []byte(`{}`),
		CreatedAt:      time.Now(),
	}
	gt.NoError(t, store.InsertWebhookEvent(ctx, ev))

	// installation.created is stored before the installation row exists
	lateInst := types.GitHubAppInstallID(newID())
	early := &model.WebhookEvent{
		ID:             types.NewWebhookEventID(),
		EventType:      types.EventInstallation,
		Action:         "created",
		InstallationID: &lateInst,
		Payload:        []byte(`{}`),
		CreatedAt:      time.Now(),
	}
	gt.NoError(t, store.InsertWebhookEvent(ctx, early))
	gt.NoError(t, store.UpsertInstallation(ctx, &model.Installation{
		ID:           lateInst,
		AccountID:    newID(),
		AccountLogin: "late",
		AccountType:  "Organization",
		Permissions:  map[string]string{},
	}))

	gt.NoError(t, store.DeleteInstallation(ctx, inst.ID))
	gt.NoError(t, store.DeleteInstallation(ctx, lateInst))

	_, err := store.GetWebhookEvent(ctx, early.ID)
	gt.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = store.GetInstallation(ctx, inst.ID)
	gt.True(t, errors.Is(err, types.ErrInstallationNotFound))
	_, err = store.GetRepositoryByFullName(ctx, repo.FullName)
	gt.True(t, errors.Is(err, types.ErrRepositoryNotFound))
	_, err = store.GetOperation(ctx, op.ID)
	gt.True(t, errors.Is(err, types.ErrOperationNotFound))
	_, err = store.GetWebhookEvent(ctx, ev.ID)
	gt.True(t, errors.Is(err, repository.ErrNotFound))

	// Other installations are untouched
	_, err = store.GetInstallation(ctx, other.ID)
	gt.NoError(t, err)
	_, err = store.GetOperation(ctx, otherOp.ID)
	gt.NoError(t, err)
}

// TestFailUnfinishedOperations tests recovery of operations interrupted by a restart
func TestFailUnfinishedOperations(t *testing.T, store interfaces.OperationStore) {
	ctx := context.Background()
	_, repo := Seed(t, store)

	pending := newOperation(repo, time.Now())
	running := newOperation(repo, time.Now())
	done := newOperation(repo, time.Now())
	for _, op := range []*model.GitOperation{pending, running, done} {
		gt.NoError(t, store.CreateOperation(ctx, op))
	}
	gt.NoError(t, store.TransitionOperation(ctx, running.ID, types.OperationPending, types.OperationRunning, "", time.Now()))
	gt.NoError(t, store.TransitionOperation(ctx, done.ID, types.OperationPending, types.OperationRunning, "", time.Now()))
	gt.NoError(t, store.TransitionOperation(ctx, done.ID, types.OperationRunning, types.OperationCompleted, "ok", time.Now()))

	n, err := store.FailUnfinishedOperations(ctx, "interrupted by restart", time.Now())
	gt.NoError(t, err)
	gt.True(t, n >= 2)

	for _, id := range []types.OperationID{pending.ID, running.ID} {
		op, err := store.GetOperation(ctx, id)
		gt.NoError(t, err)
		gt.V(t, op.Status).Equal(types.OperationFailed)
		gt.V(t, op.Result).Equal("interrupted by restart")
		gt.V(t, op.CompletedAt != nil).Equal(true)
	}

	op, err := store.GetOperation(ctx, done.ID)
	gt.NoError(t, err)
	gt.V(t, op.Status).Equal(types.OperationCompleted)
	gt.V(t, op.Result).Equal("ok")
}
