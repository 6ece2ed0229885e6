package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const sentryFlushTimeout = 2 * time.Second

type Sentry struct {
	dsn         string
	environment string
	release     string
	sampleRate  float64
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN",
			Category:    "Sentry",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("OCTOEXEC_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Destination: &x.environment,
			Sources:     cli.EnvVars("OCTOEXEC_SENTRY_ENV"),
		},
		&cli.StringFlag{
			Name:        "sentry-release",
			Usage:       "Release reported with events",
			Category:    "Sentry",
			Destination: &x.release,
			Sources:     cli.EnvVars("OCTOEXEC_SENTRY_RELEASE"),
		},
		&cli.FloatFlag{
			Name:        "sentry-sample-rate",
			Usage:       "Ratio of error events sent to Sentry (0.0 - 1.0)",
			Category:    "Sentry",
			Destination: &x.sampleRate,
			Value:       1.0,
			Sources:     cli.EnvVars("OCTOEXEC_SENTRY_SAMPLE_RATE"),
		},
	}
}

// Configure initializes the global Sentry client and tags every event with component, the
// subcommand that runs. It returns a function flushing buffered events.
func (x *Sentry) Configure(ctx context.Context, component string) (func(), error) {
	if x.dsn == "" {
		logging.From(ctx).Warn("sentry is not configured")
		return func() {}, nil
	}
	if x.sampleRate < 0 || x.sampleRate > 1 {
		return nil, goerr.New("sentry sample rate must be between 0 and 1", goerr.V("rate", x.sampleRate))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     x.release,
		SampleRate:  x.sampleRate,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
	})

	return func() {
		if !sentry.Flush(sentryFlushTimeout) {
			logging.Default().Warn("sentry events were not flushed before exit")
		}
	}, nil
}

func (x *Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.Any("Environment", x.environment),
		slog.String("Release", x.release),
		slog.Float64("SampleRate", x.sampleRate),
	)
}
