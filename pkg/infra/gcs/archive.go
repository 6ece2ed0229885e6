package gcs

import (
	"context"
	"encoding/json"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"google.golang.org/api/option"
)

// Archive stores the untruncated output of every finished operation as one JSON object per
// operation under <prefix>/<owner>/<name>/<date>/<operation id>.json.
type Archive struct {
	bucket        types.GCSBucket
	prefix        string
	clientOptions []option.ClientOption
	newWriter     func(ctx context.Context, object string) io.WriteCloser
	closer        io.Closer
}

var _ interfaces.OutputArchive = (*Archive)(nil)

type Option func(*Archive)

func WithPrefix(prefix string) Option {
	return func(x *Archive) {
		x.prefix = prefix
	}
}

func WithClientOptions(options ...option.ClientOption) Option {
	return func(x *Archive) {
		x.clientOptions = append(x.clientOptions, options...)
	}
}

func New(ctx context.Context, bucket types.GCSBucket, options ...Option) (*Archive, error) {
	if bucket == "" {
		return nil, goerr.Wrap(types.ErrConfiguration, "storage bucket is required")
	}

	archive := &Archive{bucket: bucket}
	for _, opt := range options {
		opt(archive)
	}

	client, err := storage.NewClient(ctx, archive.clientOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	handle := client.Bucket(bucket.String())
	archive.newWriter = func(ctx context.Context, object string) io.WriteCloser {
		w := handle.Object(object).NewWriter(ctx)
		w.ContentType = "application/json"
		return w
	}
	archive.closer = client
	return archive, nil
}

func (x *Archive) Close() error {
	if x.closer == nil {
		return nil
	}
	return x.closer.Close()
}

type archivedOutput struct {
	Operation *model.GitOperation `json:"operation"`
	Result    *model.ExecResult   `json:"result"`
	StoredAt  time.Time           `json:"stored_at"`
}

func (x *Archive) objectName(op *model.GitOperation) string {
	return path.Join(x.prefix, op.Repository, op.CreatedAt.UTC().Format("2006/01/02"), op.ID.String()+".json")
}

// Put writes the record and returns its gs:// location.
func (x *Archive) Put(ctx context.Context, op *model.GitOperation, result *model.ExecResult) (string, error) {
	object := x.objectName(op)

	w := x.newWriter(ctx, object)
	if err := json.NewEncoder(w).Encode(archivedOutput{
		Operation: op,
		Result:    result,
		StoredAt:  time.Now().UTC(),
	}); err != nil {
		// the object is not committed unless Close succeeds
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write operation output", goerr.V("bucket", x.bucket), goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to store operation output", goerr.V("bucket", x.bucket), goerr.V("object", object))
	}

	return "gs://" + x.bucket.String() + "/" + object, nil
}
