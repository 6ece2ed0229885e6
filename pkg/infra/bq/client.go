package bq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/bigquery/storage/managedwriter"
	"cloud.google.com/go/bigquery/storage/managedwriter/adapt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Client is bound to one table.
type Client struct {
	bqClient *bigquery.Client
	mwClient *managedwriter.Client
	project  types.GoogleProjectID
	dataset  types.BQDatasetID
	table    types.BQTableID
}

var _ interfaces.BigQuery = (*Client)(nil)

func New(ctx context.Context, projectID types.GoogleProjectID, datasetID types.BQDatasetID, tableID types.BQTableID, options ...option.ClientOption) (*Client, error) {
	if projectID == "" || datasetID == "" || tableID == "" {
		return nil, goerr.Wrap(types.ErrConfiguration, "bigquery project, dataset and table are required",
			goerr.V("projectID", projectID), goerr.V("datasetID", datasetID), goerr.V("tableID", tableID))
	}

	mwClient, err := managedwriter.NewClient(ctx, projectID.String(), options...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create managed writer client", goerr.V("projectID", projectID))
	}

	bqClient, err := bigquery.NewClient(ctx, projectID.String(), options...)
	if err != nil {
		safe.Close(mwClient)
		return nil, goerr.Wrap(err, "failed to create bigquery client", goerr.V("projectID", projectID))
	}

	return &Client{
		bqClient: bqClient,
		mwClient: mwClient,
		project:  projectID,
		dataset:  datasetID,
		table:    tableID,
	}, nil
}

func (x *Client) Close() error {
	return errors.Join(x.mwClient.Close(), x.bqClient.Close())
}

func (x *Client) tableRef() *bigquery.Table {
	return x.bqClient.Dataset(x.dataset.String()).Table(x.table.String())
}

func (x *Client) CreateTable(ctx context.Context, md *bigquery.TableMetadata) error {
	if err := x.tableRef().Create(ctx, md); err != nil {
		return goerr.Wrap(err, "failed to create table", goerr.V("dataset", x.dataset), goerr.V("table", x.table))
	}
	return nil
}

// GetMetadata returns nil if the table does not exist.
func (x *Client) GetMetadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	md, err := x.tableRef().Metadata(ctx)
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get table metadata", goerr.V("dataset", x.dataset), goerr.V("table", x.table))
	}
	return md, nil
}

func (x *Client) UpdateTable(ctx context.Context, md bigquery.TableMetadataToUpdate, eTag string) error {
	if _, err := x.tableRef().Update(ctx, md, eTag); err != nil {
		return goerr.Wrap(err, "failed to update table", goerr.V("dataset", x.dataset), goerr.V("table", x.table))
	}
	return nil
}

// Insert appends one row through the storage write API. data is encoded as JSON and must use the
// column names of schema as keys.
func (x *Client) Insert(ctx context.Context, schema bigquery.Schema, data any) error {
	storageSchema, err := adapt.BQSchemaToStorageTableSchema(schema)
	if err != nil {
		return goerr.Wrap(err, "failed to convert schema")
	}
	descriptor, err := adapt.StorageSchemaToProto2Descriptor(storageSchema, "root")
	if err != nil {
		return goerr.Wrap(err, "failed to convert schema to descriptor")
	}
	messageDescriptor, ok := descriptor.(protoreflect.MessageDescriptor)
	if !ok {
		return goerr.New("adapted descriptor is not a message descriptor")
	}
	descriptorProto, err := adapt.NormalizeDescriptor(messageDescriptor)
	if err != nil {
		return goerr.Wrap(err, "failed to normalize descriptor")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal row")
	}
	message := dynamicpb.NewMessage(messageDescriptor)
	if err := protojson.Unmarshal(raw, message); err != nil {
		return goerr.Wrap(err, "failed to convert row to proto message", goerr.V("raw", string(raw)))
	}
	row, err := proto.Marshal(message)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal proto message")
	}

	ms, err := x.mwClient.NewManagedStream(ctx,
		managedwriter.WithDestinationTable(
			managedwriter.TableParentFromParts(x.project.String(), x.dataset.String(), x.table.String()),
		),
		managedwriter.WithSchemaDescriptor(descriptorProto),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create managed stream")
	}
	defer safe.Close(ms)

	result, err := ms.AppendRows(ctx, [][]byte{row})
	if err != nil {
		return goerr.Wrap(err, "failed to append rows")
	}
	if _, err := result.FullResponse(ctx); err != nil {
		return goerr.Wrap(err, "failed to get append result")
	}

	return nil
}
