package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/octoexec/pkg/infra/executor"
	"github.com/m-mizutani/octoexec/pkg/infra/process"
	"github.com/urfave/cli/v3"
)

// Worker is how the orchestrator reaches the execution worker.
type Worker struct {
	url   string
	grace time.Duration
}

func (x *Worker) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "worker-url",
			Usage:       "Base URL of the execution worker",
			Category:    "Execution worker",
			Destination: &x.url,
			Value:       "http://127.0.0.1:8001",
			Sources:     cli.EnvVars("OCTOEXEC_WORKER_URL"),
		},
		&cli.DurationFlag{
			Name:        "worker-grace-period",
			Usage:       "Time the worker waits between SIGTERM and SIGKILL",
			Category:    "Execution worker",
			Destination: &x.grace,
			Value:       process.DefaultGracePeriod,
			Sources:     cli.EnvVars("OCTOEXEC_WORKER_GRACE_PERIOD"),
		},
	}
}

func (x *Worker) New() (*executor.Client, error) {
	return executor.New(x.url, executor.WithGracePeriod(x.grace))
}

func (x *Worker) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.url),
		slog.Duration("grace", x.grace),
	)
}
