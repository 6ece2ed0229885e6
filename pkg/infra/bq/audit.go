package bq

import (
	"context"
	"sync"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/bqs"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

// AuditSink writes one row per finished operation. The table is created, or its schema widened,
// on the first record.
type AuditSink struct {
	table interfaces.BigQuery

	mu     sync.Mutex
	schema bigquery.Schema
}

var _ interfaces.AuditSink = (*AuditSink)(nil)

func NewAuditSink(table interfaces.BigQuery) *AuditSink {
	return &AuditSink{table: table}
}

func (x *AuditSink) Record(ctx context.Context, audit *model.OperationAudit) error {
	schema, err := x.prepareTable(ctx)
	if err != nil {
		return err
	}

	if err := x.table.Insert(ctx, schema, audit.Row()); err != nil {
		return goerr.Wrap(err, "failed to insert operation audit", goerr.V("operationID", audit.OperationID))
	}
	return nil
}

func (x *AuditSink) prepareTable(ctx context.Context) (bigquery.Schema, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.schema != nil {
		return x.schema, nil
	}

	schema, err := bqs.Infer(model.OperationAudit{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer audit schema")
	}

	md, err := x.table.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case md == nil:
		if err := x.table.CreateTable(ctx, &bigquery.TableMetadata{
			Schema: schema,
			TimePartitioning: &bigquery.TimePartitioning{
				Type:  bigquery.DayPartitioningType,
				Field: "created_at",
			},
		}); err != nil {
			return nil, err
		}
		logging.From(ctx).Info("created audit table")

	case !bqs.Equal(md.Schema, schema):
		merged, err := bqs.Merge(md.Schema, schema)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to merge audit schema")
		}
		if err := x.table.UpdateTable(ctx, bigquery.TableMetadataToUpdate{Schema: merged}, md.ETag); err != nil {
			return nil, err
		}
		schema = merged
		logging.From(ctx).Info("updated audit table schema")

	default:
		schema = md.Schema
	}

	x.schema = schema
	return schema, nil
}
