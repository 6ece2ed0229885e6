package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/octoexec/pkg/cli/config"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	var database config.Database

	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the operation store schema",
		Flags: database.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting migrate", slog.Any("Database", &database))

			store, err := database.Open(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(store)

			return store.Migrate(ctx)
		},
	}
}
