package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"
	"github.com/m-mizutani/octoexec/pkg/cli/config"
	"github.com/m-mizutani/octoexec/pkg/controller/server"
	"github.com/m-mizutani/octoexec/pkg/infra"
	"github.com/m-mizutani/octoexec/pkg/usecase"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cli.Command {
	var (
		addr          string
		workspaceRoot string
		timeout       time.Duration
		botName       string
		botEmail      string

		githubApp  config.GitHubApp
		tokenCache config.TokenCache
		database   config.Database
		worker     config.Worker
		bigQuery   config.BigQuery
		storage    config.Storage
		sentry     config.Sentry
	)
	serveFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Binding address",
			Value:       "127.0.0.1:8000",
			Sources:     cli.EnvVars("OCTOEXEC_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "workspace-root",
			Usage:       "Directory on the worker under which repositories are checked out",
			Value:       usecase.DefaultWorkspaceRoot,
			Sources:     cli.EnvVars("OCTOEXEC_WORKSPACE_ROOT"),
			Destination: &workspaceRoot,
		},
		&cli.DurationFlag{
			Name:        "operation-timeout",
			Usage:       "Time limit of one git command",
			Value:       usecase.DefaultOperationTimeout,
			Sources:     cli.EnvVars("OCTOEXEC_OPERATION_TIMEOUT"),
			Destination: &timeout,
		},
		&cli.StringFlag{
			Name:        "bot-name",
			Usage:       "Author name of commits",
			Value:       usecase.DefaultBotName,
			Sources:     cli.EnvVars("OCTOEXEC_BOT_NAME"),
			Destination: &botName,
		},
		&cli.StringFlag{
			Name:        "bot-email",
			Usage:       "Author email of commits",
			Value:       usecase.DefaultBotEmail,
			Sources:     cli.EnvVars("OCTOEXEC_BOT_EMAIL"),
			Destination: &botEmail,
		},
	}

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the operation API and webhook endpoint",
		Flags: slice.Flatten(
			serveFlags,
			githubApp.Flags(),
			tokenCache.Flags(),
			database.Flags(),
			worker.Flags(),
			bigQuery.Flags(),
			storage.Flags(),
			sentry.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting serve",
				slog.Any("Addr", addr),
				slog.Any("WorkspaceRoot", workspaceRoot),
				slog.Any("Timeout", timeout),
				slog.Any("GitHubApp", githubApp),
				slog.Any("TokenCache", &tokenCache),
				slog.Any("Database", &database),
				slog.Any("Worker", &worker),
				slog.Any("BigQuery", &bigQuery),
				slog.Any("Storage", &storage),
				slog.Any("Sentry", &sentry),
			)

			flush, err := sentry.Configure(ctx, "serve")
			if err != nil {
				return err
			}
			defer flush()
			if githubApp.Secret() == "" {
				logging.Default().Warn("webhook secret is not configured, webhook signatures will not be verified")
			}

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

			executor, err := worker.New()
			if err != nil {
				return err
			}

			infraOptions := []infra.Option{
				infra.WithGitHubApp(ghApp),
				infra.WithOperationStore(store),
				infra.WithExecutor(executor),
			}

			if sink, closer, err := bigQuery.NewAuditSink(ctx); err != nil {
				return err
			} else if sink != nil {
				infraOptions = append(infraOptions, infra.WithAuditSink(sink))
				closers = append(closers, closer)
			}

			if archive, closer, err := storage.NewArchive(ctx); err != nil {
				return err
			} else if archive != nil {
				infraOptions = append(infraOptions, infra.WithOutputArchive(archive))
				closers = append(closers, closer)
			}

			uc := usecase.New(infra.New(infraOptions...),
				usecase.WithWorkspaceRoot(workspaceRoot),
				usecase.WithTimeout(timeout),
				usecase.WithBotIdentity(botName, botEmail),
				usecase.WithWebhookSecret(githubApp.Secret()),
			)

			if n, err := uc.RecoverOperations(ctx); err != nil {
				return err
			} else if n > 0 {
				logging.Default().Warn("failed operations left unfinished by a previous run", slog.Int("count", n))
			}

			s := server.New(uc, server.WithExecutor(executor))
			httpServer := &http.Server{
				Addr:    addr,
				Handler: s.Mux(),

				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
			}

			return runHTTPServer(httpServer, func(ctx context.Context) error {
				return uc.Close(ctx)
			})
		},
	}
}

// runHTTPServer serves until SIGINT or SIGTERM, then shuts the server down and runs onShutdown
// within shutdownTimeout.
func runHTTPServer(httpServer *http.Server, onShutdown func(ctx context.Context) error) error {
	serverErr := make(chan error, 1)
	go func() {
		logging.Default().Info("starting http server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- goerr.Wrap(err, "failed to listen and serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return err

	case sig := <-quit:
		logging.Default().Info("shutting down server", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			return goerr.Wrap(err, "failed to shutdown server")
		}
		if onShutdown != nil {
			if err := onShutdown(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}
