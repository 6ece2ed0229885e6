package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

// SyncInstallation stores the installation and replaces its repository set with the one the
// upstream currently grants.
func (x *UseCase) SyncInstallation(ctx context.Context, inst *model.Installation) error {
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = x.now()
	}
	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = x.now()
	}

	repos, err := x.clients.GitHubApp().ListInstallationRepos(ctx, inst.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list installation repositories", goerr.V("installID", inst.ID))
	}

	store := x.clients.OperationStore()
	if err := store.UpsertInstallation(ctx, inst); err != nil {
		return err
	}

	keep := make([]types.GitHubRepoID, 0, len(repos))
	for _, repo := range repos {
		repo.InstallationID = inst.ID
		keep = append(keep, repo.ID)
	}
	if err := store.UpsertRepositories(ctx, repos); err != nil {
		return err
	}
	if err := store.DeleteRepositoriesExcept(ctx, inst.ID, keep); err != nil {
		return err
	}

	logging.From(ctx).Info("installation synchronized",
		slog.Any("installID", inst.ID),
		slog.String("account", inst.AccountLogin),
		slog.Int("repositories", len(repos)),
	)
	return nil
}

// SyncAllInstallations synchronizes every installation of the app. It keeps going after a
// failure and returns the first error.
func (x *UseCase) SyncAllInstallations(ctx context.Context) error {
	installations, err := x.clients.GitHubApp().ListInstallations(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, inst := range installations {
		if err := x.SyncInstallation(ctx, inst); err != nil {
			logging.From(ctx).Error("failed to synchronize installation",
				slog.Any("installID", inst.ID),
				slog.Any("error", err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
