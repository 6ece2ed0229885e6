package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

const (
	DefaultOperationTimeout = 5 * time.Minute
	DefaultWorkspaceRoot    = "/workspace"
	DefaultBotName          = "octoexec[bot]"
	DefaultBotEmail         = "octoexec[bot]@users.noreply.github.com"

	// maxResultLength bounds the diagnostic stored for a failed operation.
	maxResultLength = 4096
)

type UseCase struct {
	clients *infra.Clients

	workspaceRoot string
	timeout       time.Duration
	botName       string
	botEmail      string
	webhookSecret types.GitHubAppSecret
	now           func() time.Time

	repoLocks *keyedMutex

	mu      sync.Mutex
	running map[types.OperationID]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

type Option func(*UseCase)

// WithWorkspaceRoot sets the directory on the execution worker that holds checkouts.
func WithWorkspaceRoot(dir string) Option {
	return func(x *UseCase) {
		x.workspaceRoot = dir
	}
}

// WithTimeout sets the command timeout passed to the execution worker.
func WithTimeout(d time.Duration) Option {
	return func(x *UseCase) {
		x.timeout = d
	}
}

// WithBotIdentity sets the author of commits created by the commit operation.
func WithBotIdentity(name, email string) Option {
	return func(x *UseCase) {
		x.botName = name
		x.botEmail = email
	}
}

// WithWebhookSecret sets the shared secret of inbound webhooks. Verification is skipped when empty.
func WithWebhookSecret(secret types.GitHubAppSecret) Option {
	return func(x *UseCase) {
		x.webhookSecret = secret
	}
}

func WithClock(now func() time.Time) Option {
	return func(x *UseCase) {
		x.now = now
	}
}

func New(clients *infra.Clients, options ...Option) *UseCase {
	uc := &UseCase{
		clients:       clients,
		workspaceRoot: DefaultWorkspaceRoot,
		timeout:       DefaultOperationTimeout,
		botName:       DefaultBotName,
		botEmail:      DefaultBotEmail,
		now:           time.Now,
		repoLocks:     newKeyedMutex(),
		running:       make(map[types.OperationID]context.CancelFunc),
	}
	for _, opt := range options {
		opt(uc)
	}
	return uc
}

// Wait blocks until every dispatched operation has finished.
func (x *UseCase) Wait() {
	x.wg.Wait()
}

// Close stops accepting operations, cancels the in-flight ones and waits for them until ctx is done.
func (x *UseCase) Close(ctx context.Context) error {
	x.mu.Lock()
	x.closed = true
	for id, cancel := range x.running {
		logging.From(ctx).Info("canceling operation for shutdown", slog.Any("operationID", id))
		cancel()
	}
	x.mu.Unlock()

	done := make(chan struct{})
	go func() {
		x.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "operations did not finish before shutdown deadline")
	}
}

// RecoverOperations fails operations left pending or running by a previous process. Their
// background tasks died with it, so nothing would ever finish them.
func (x *UseCase) RecoverOperations(ctx context.Context) (int, error) {
	n, err := x.clients.OperationStore().FailUnfinishedOperations(ctx, "operation interrupted by service restart", x.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.From(ctx).Warn("failed operations interrupted by restart", slog.Int("count", n))
	}
	return n, nil
}
