package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/gots/slice"
	"github.com/m-mizutani/octoexec/pkg/cli/config"
	"github.com/m-mizutani/octoexec/pkg/controller/server"
	"github.com/m-mizutani/octoexec/pkg/infra/process"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func workerCommand() *cli.Command {
	var (
		addr           string
		defaultTimeout time.Duration
		maxTimeout     time.Duration
		grace          time.Duration

		sentry config.Sentry
	)
	workerFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Binding address",
			Value:       "127.0.0.1:8001",
			Sources:     cli.EnvVars("OCTOEXEC_WORKER_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "default-timeout",
			Usage:       "Time limit of a command that does not request one",
			Value:       process.DefaultTimeout,
			Sources:     cli.EnvVars("OCTOEXEC_WORKER_DEFAULT_TIMEOUT"),
			Destination: &defaultTimeout,
		},
		&cli.DurationFlag{
			Name:        "max-timeout",
			Usage:       "Upper bound of a requested time limit",
			Value:       process.MaxTimeout,
			Sources:     cli.EnvVars("OCTOEXEC_WORKER_MAX_TIMEOUT"),
			Destination: &maxTimeout,
		},
		&cli.DurationFlag{
			Name:        "grace-period",
			Usage:       "Time between SIGTERM and SIGKILL when a command is stopped",
			Value:       process.DefaultGracePeriod,
			Sources:     cli.EnvVars("OCTOEXEC_WORKER_GRACE_PERIOD"),
			Destination: &grace,
		},
	}

	return &cli.Command{
		Name:    "worker",
		Aliases: []string{"w"},
		Usage:   "Run the execution worker that spawns git commands",
		Flags:   slice.Flatten(workerFlags, sentry.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting worker",
				slog.Any("Addr", addr),
				slog.Duration("DefaultTimeout", defaultTimeout),
				slog.Duration("MaxTimeout", maxTimeout),
				slog.Duration("GracePeriod", grace),
				slog.Any("Sentry", &sentry),
			)

			flush, err := sentry.Configure(ctx, "worker")
			if err != nil {
				return err
			}
			defer flush()

			runner := process.New(
				process.WithDefaultTimeout(defaultTimeout),
				process.WithMaxTimeout(maxTimeout),
				process.WithGracePeriod(grace),
			)

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.NewWorker(runner).Mux(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				// a response is written only when the command finishes
				WriteTimeout: maxTimeout + grace + time.Minute,
			}

			return runHTTPServer(httpServer, nil)
		},
	}
}
