package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/utils/errutil"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

// ExecuteOperation drives a pending operation to a terminal state. Failures of the operation itself
// are recorded on the operation; the returned error only reports that the record could not be
// updated.
func (x *UseCase) ExecuteOperation(ctx context.Context, id types.OperationID, input *model.SubmitOperationInput) error {
	store := x.clients.OperationStore()

	op, err := store.GetOperation(ctx, id)
	if err != nil {
		return err
	}
	if op.Status != types.OperationPending {
		return goerr.Wrap(types.ErrInvalidTransition, "operation is not pending",
			goerr.V("operationID", id), goerr.V("status", op.Status))
	}

	logger := logging.From(ctx).With(
		slog.Any("operationID", op.ID),
		slog.Any("type", op.Kind),
		slog.String("repository", op.Repository),
	)
	ctx = logging.With(ctx, logger)

	repo, err := store.GetRepositoryByFullName(ctx, op.Repository)
	if err != nil {
		return x.fail(ctx, op, types.OperationPending, nil, err)
	}

	release, err := x.repoLocks.Lock(ctx, repo.FullName)
	if err != nil {
		return x.fail(ctx, op, types.OperationPending, nil, goerr.Wrap(errors.Join(types.ErrOperationCanceled, err), "canceled while waiting for repository"))
	}
	defer release()

	tok, err := x.clients.GitHubApp().GetToken(ctx, repo.InstallationID)
	if err != nil {
		return x.fail(ctx, op, types.OperationPending, nil, goerr.Wrap(err, "failed to obtain installation token"))
	}

	dir, err := x.checkoutDir(repo)
	if err != nil {
		return x.fail(ctx, op, types.OperationPending, nil, err)
	}

	build, ok := commandBuilders[op.Kind]
	if !ok {
		return x.fail(ctx, op, types.OperationPending, nil, goerr.Wrap(types.ErrValidationFailed, "unsupported operation type"))
	}
	command, workingDir := build(x, &commandInput{op: op, repo: repo, input: input, dir: dir})

	req := &model.ExecRequest{
		Command:    command,
		Env:        credentialEnv(tok.Token),
		WorkingDir: workingDir,
		TimeoutMs:  x.timeout.Milliseconds(),
	}

	if err := store.TransitionOperation(ctx, op.ID, types.OperationPending, types.OperationRunning, "", x.now()); err != nil {
		return err
	}
	op.Status = types.OperationRunning
	logger.Info("operation running", slog.String("workingDir", workingDir))

	result, err := x.clients.Executor().Exec(ctx, req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, types.ErrOperationCanceled) {
			err = goerr.Wrap(errors.Join(types.ErrOperationCanceled, err), "operation canceled")
		}
		return x.fail(ctx, op, types.OperationRunning, nil, err)
	}
	redact(result, tok.Token)

	switch {
	case result.TimedOut():
		return x.fail(ctx, op, types.OperationRunning, result,
			goerr.Wrap(types.ErrExecutionTimeout, "command timed out", goerr.V("timeout", x.timeout)))
	case !result.Succeeded():
		return x.fail(ctx, op, types.OperationRunning, result,
			goerr.Wrap(types.ErrCommandFailure, "command failed", goerr.V("exitCode", result.ExitCode)))
	}

	return x.finish(ctx, op, types.OperationRunning, types.OperationCompleted, successOutput(result), result)
}

// successOutput is stdout, or stderr when a command such as git clone reports progress only there.
func successOutput(result *model.ExecResult) string {
	if strings.TrimSpace(result.Stdout) != "" {
		return result.Stdout
	}
	return result.Stderr
}

// fail records err as the terminal failure of op. The message carries the category, and for
// command failures the worker's diagnostics.
func (x *UseCase) fail(ctx context.Context, op *model.GitOperation, from types.OperationStatus, result *model.ExecResult, cause error) error {
	logging.From(ctx).Warn("operation failed", slog.Any("error", cause))
	return x.finish(ctx, op, from, types.OperationFailed, failureMessage(cause, result), result)
}

func (x *UseCase) finish(ctx context.Context, op *model.GitOperation, from, to types.OperationStatus, message string, result *model.ExecResult) error {
	// the record must be written even when the operation was canceled
	ctx = context.WithoutCancel(ctx)

	completedAt := x.now()
	if err := x.clients.OperationStore().TransitionOperation(ctx, op.ID, from, to, message, completedAt); err != nil {
		return err
	}
	op.Status = to
	op.Result = message
	op.CompletedAt = &completedAt

	logging.From(ctx).Info("operation finished", slog.Any("status", to))
	x.report(ctx, op, result)
	return nil
}

// report hands a finished operation to the optional sinks. The archive goes first so the audit
// record can point at it. Sink failures never change the operation.
func (x *UseCase) report(ctx context.Context, op *model.GitOperation, result *model.ExecResult) {
	var location string
	if archive := x.clients.OutputArchive(); archive != nil && result != nil {
		loc, err := archive.Put(ctx, op, result)
		if err != nil {
			errutil.HandleError(ctx, "failed to archive operation output", err)
		} else {
			location = loc
			logging.From(ctx).Info("operation output archived", slog.String("location", location))
		}
	}

	if sink := x.clients.AuditSink(); sink != nil {
		if err := sink.Record(ctx, model.NewOperationAudit(op, result, location)); err != nil {
			errutil.HandleError(ctx, "failed to record operation audit", err)
		}
	}
}

func failureMessage(cause error, result *model.ExecResult) string {
	var b strings.Builder
	switch {
	case result == nil:
		b.WriteString(failureCategory(cause))
		b.WriteString(": ")
		b.WriteString(cause.Error())
	case result.TimedOut():
		fmt.Fprintf(&b, "execution timeout: command did not finish within the time limit (exit code %d)", result.ExitCode)
	default:
		fmt.Fprintf(&b, "command failure: exit code %d", result.ExitCode)
	}

	if result != nil {
		if result.Error != "" {
			b.WriteString("\n")
			b.WriteString(result.Error)
		}
		diag := strings.TrimSpace(result.Stderr)
		if diag == "" {
			diag = strings.TrimSpace(result.Stdout)
		}
		if diag != "" {
			b.WriteString("\n")
			b.WriteString(diag)
		}
	}

	return truncate(b.String(), maxResultLength)
}

func failureCategory(err error) string {
	switch {
	case errors.Is(err, types.ErrConfiguration):
		return "configuration error"
	case errors.Is(err, types.ErrAuth):
		return "authentication error"
	case errors.Is(err, types.ErrWorkerUnavailable):
		return "execution worker unavailable"
	case errors.Is(err, types.ErrExecutionTimeout):
		return "execution timeout"
	case errors.Is(err, types.ErrOperationCanceled):
		return "operation canceled"
	case errors.Is(err, types.ErrCommandFailure):
		return "command failure"
	case errors.Is(err, types.ErrRepositoryNotFound):
		return "repository not found"
	default:
		return "internal error"
	}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const marker = "\n... (truncated)"
	cut := n - len(marker)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

func redact(result *model.ExecResult, token types.InstallationToken) {
	if token == "" {
		return
	}
	const mask = "[REDACTED]"
	result.Stdout = strings.ReplaceAll(result.Stdout, string(token), mask)
	result.Stderr = strings.ReplaceAll(result.Stderr, string(token), mask)
	result.Error = strings.ReplaceAll(result.Error, string(token), mask)
}
