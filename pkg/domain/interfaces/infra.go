package interfaces

//go:generate moq -out ../mock/infra.go -pkg mock . GitHubApp TokenCache Executor AuditSink OutputArchive BigQuery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// GitHubApp issues installation credentials and reads installation data from the upstream API.
type GitHubApp interface {
	GetToken(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error)
	GetInstallation(ctx context.Context, installID types.GitHubAppInstallID) (*model.Installation, error)
	ListInstallations(ctx context.Context) ([]*model.Installation, error)
	ListInstallationRepos(ctx context.Context, installID types.GitHubAppInstallID) ([]*model.Repository, error)
}

// TokenCache is a keyed store with TTL semantics. A missing or expired entry returns (nil, nil).
type TokenCache interface {
	Get(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error)
	Put(ctx context.Context, installID types.GitHubAppInstallID, token *model.InstallationToken, ttl time.Duration) error
}

// Executor runs a command in the execution worker.
type Executor interface {
	Exec(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error)
	Health(ctx context.Context) error
}

// AuditSink records operations that reached a terminal state.
type AuditSink interface {
	Record(ctx context.Context, audit *model.OperationAudit) error
}

// OutputArchive keeps the full output of an operation.
type OutputArchive interface {
	Put(ctx context.Context, op *model.GitOperation, result *model.ExecResult) (string, error)
}

// BigQuery is the table client behind the audit sink.
type BigQuery interface {
	Insert(ctx context.Context, schema bigquery.Schema, data any) error
	// GetMetadata returns nil if the table does not exist.
	GetMetadata(ctx context.Context) (*bigquery.TableMetadata, error)
	CreateTable(ctx context.Context, md *bigquery.TableMetadata) error
	UpdateTable(ctx context.Context, md bigquery.TableMetadataToUpdate, eTag string) error
}
