package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/gots/slice"
	"github.com/m-mizutani/octoexec/pkg/cli/config"
	"github.com/m-mizutani/octoexec/pkg/infra"
	"github.com/m-mizutani/octoexec/pkg/usecase"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// syncCommand rebuilds installations and repositories from the GitHub API, for deliveries that
// were missed while the service was down.
func syncCommand() *cli.Command {
	var (
		githubApp  config.GitHubApp
		tokenCache config.TokenCache
		database   config.Database
	)

	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize installations and granted repositories from GitHub",
		Flags: slice.Flatten(githubApp.Flags(), tokenCache.Flags(), database.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting sync",
				slog.Any("GitHubApp", githubApp),
				slog.Any("Database", &database),
			)

			var closers []io.Closer
			defer func() {
				for _, closer := range closers {
					safe.Close(closer)
				}
			}()

			cache, closer, err := tokenCache.New()
			if err != nil {
				return err
			}
			closers = append(closers, closer)

			ghApp, err := githubApp.New(cache)
			if err != nil {
				return err
			}

			store, closer, err := database.NewStore(ctx)
			if err != nil {
				return err
			}
			closers = append(closers, closer)

			uc := usecase.New(infra.New(
				infra.WithGitHubApp(ghApp),
				infra.WithOperationStore(store),
			))
			return uc.SyncAllInstallations(ctx)
		},
	}
}
