package config

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra/bq"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

type BigQuery struct {
	projectID      types.GoogleProjectID
	datasetID      types.BQDatasetID
	tableID        types.BQTableID
	impersonateSvc string
}

func (x *BigQuery) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project-id",
			Usage:       "BigQuery project ID of the operation audit table (audit disabled if empty)",
			Category:    "BigQuery",
			Destination: (*string)(&x.projectID),
			Sources:     cli.EnvVars("OCTOEXEC_BIGQUERY_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset-id",
			Usage:       "BigQuery dataset ID",
			Category:    "BigQuery",
			Destination: (*string)(&x.datasetID),
			Sources:     cli.EnvVars("OCTOEXEC_BIGQUERY_DATASET_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-table-id",
			Usage:       "BigQuery table ID",
			Category:    "BigQuery",
			Destination: (*string)(&x.tableID),
			Value:       "operations",
			Sources:     cli.EnvVars("OCTOEXEC_BIGQUERY_TABLE_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-impersonate-service-account",
			Usage:       "Service account to impersonate for BigQuery",
			Category:    "BigQuery",
			Destination: &x.impersonateSvc,
			Sources:     cli.EnvVars("OCTOEXEC_BIGQUERY_IMPERSONATE_SERVICE_ACCOUNT"),
		},
	}
}

func (x *BigQuery) Enabled() bool {
	return x.projectID != ""
}

// NewAuditSink returns nil values when the audit table is not configured.
func (x *BigQuery) NewAuditSink(ctx context.Context) (interfaces.AuditSink, io.Closer, error) {
	if !x.Enabled() {
		return nil, nil, nil
	}

	var options []option.ClientOption
	if x.impersonateSvc != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: x.impersonateSvc,
			Scopes: []string{
				"https://www.googleapis.com/auth/bigquery",
				"https://www.googleapis.com/auth/cloud-platform",
			},
		})
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create impersonated token source", goerr.V("serviceAccount", x.impersonateSvc))
		}
		options = append(options, option.WithTokenSource(ts))
	}

	client, err := bq.New(ctx, x.projectID, x.datasetID, x.tableID, options...)
	if err != nil {
		return nil, nil, err
	}
	return bq.NewAuditSink(client), client, nil
}

func (x *BigQuery) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("projectID", x.projectID),
		slog.Any("datasetID", x.datasetID),
		slog.Any("tableID", x.tableID),
		slog.String("impersonate", x.impersonateSvc),
	)
}
