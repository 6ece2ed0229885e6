package infra

import (
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/repository/memory"
)

// Clients bundles the external collaborators used by the use cases.
type Clients struct {
	githubApp interfaces.GitHubApp
	executor  interfaces.Executor
	store     interfaces.OperationStore
	auditSink interfaces.AuditSink
	archive   interfaces.OutputArchive
}

type Option func(*Clients)

// New creates clients. The operation store defaults to an in-memory store; audit sink and
// output archive are disabled unless given.
func New(options ...Option) *Clients {
	client := &Clients{
		store: memory.New(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

func (x *Clients) GitHubApp() interfaces.GitHubApp {
	return x.githubApp
}
func (x *Clients) Executor() interfaces.Executor {
	return x.executor
}
func (x *Clients) OperationStore() interfaces.OperationStore {
	return x.store
}
func (x *Clients) AuditSink() interfaces.AuditSink {
	return x.auditSink
}
func (x *Clients) OutputArchive() interfaces.OutputArchive {
	return x.archive
}

func WithGitHubApp(client interfaces.GitHubApp) Option {
	return func(x *Clients) {
		x.githubApp = client
	}
}

func WithExecutor(client interfaces.Executor) Option {
	return func(x *Clients) {
		x.executor = client
	}
}

func WithOperationStore(store interfaces.OperationStore) Option {
	return func(x *Clients) {
		x.store = store
	}
}

func WithAuditSink(sink interfaces.AuditSink) Option {
	return func(x *Clients) {
		x.auditSink = sink
	}
}

func WithOutputArchive(archive interfaces.OutputArchive) Option {
	return func(x *Clients) {
		x.archive = archive
	}
}
