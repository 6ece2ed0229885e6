package model

import "time"

// OperationAudit is the analytics record of an operation that reached a terminal state.
type OperationAudit struct {
	OperationID  string    `bigquery:"operation_id" json:"operation_id"`
	Kind         string    `bigquery:"kind" json:"kind"`
	RepositoryID int64     `bigquery:"repository_id" json:"repository_id"`
	Repository   string    `bigquery:"repository" json:"repository"`
	Branch       string    `bigquery:"branch" json:"branch"`
	Status       string    `bigquery:"status" json:"status"`
	Result       string    `bigquery:"result" json:"result"`
	ExitCode     int64     `bigquery:"exit_code" json:"exit_code"`
	TimedOut     bool      `bigquery:"timed_out" json:"timed_out"`
	DurationMs   int64     `bigquery:"duration_ms" json:"duration_ms"`
	WorkerError  string    `bigquery:"worker_error" json:"worker_error"`
	ArchiveURL   string    `bigquery:"archive_url" json:"archive_url"`
	CreatedAt    time.Time `bigquery:"created_at" json:"created_at"`
	CompletedAt  time.Time `bigquery:"completed_at" json:"completed_at"`
}

// OperationAuditRow is OperationAudit encoded for the storage write API, which takes
// timestamps as microseconds.
type OperationAuditRow struct {
	OperationAudit
	CreatedAt   int64 `bigquery:"created_at" json:"created_at"`
	CompletedAt int64 `bigquery:"completed_at" json:"completed_at"`
}

// NewOperationAudit builds the record of op. result is nil when the command never ran.
func NewOperationAudit(op *GitOperation, result *ExecResult, archiveURL string) *OperationAudit {
	audit := &OperationAudit{
		OperationID:  op.ID.String(),
		Kind:         string(op.Kind),
		RepositoryID: int64(op.RepositoryID),
		Repository:   op.Repository,
		Branch:       op.Branch,
		Status:       string(op.Status),
		Result:       op.Result,
		ArchiveURL:   archiveURL,
		CreatedAt:    op.CreatedAt,
		ExitCode:     -1,
	}
	if op.CompletedAt != nil {
		audit.CompletedAt = *op.CompletedAt
	}
	if result != nil {
		audit.ExitCode = int64(result.ExitCode)
		audit.TimedOut = result.TimedOut()
		audit.DurationMs = result.DurationMs
		audit.WorkerError = result.Error
	}
	return audit
}

func (x *OperationAudit) Row() *OperationAuditRow {
	return &OperationAuditRow{
		OperationAudit: *x,
		CreatedAt:      x.CreatedAt.UnixMicro(),
		CompletedAt:    x.CompletedAt.UnixMicro(),
	}
}
