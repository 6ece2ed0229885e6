package gcs

import (
	"context"
	"io"

	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

func NewWithWriterForTest(bucket types.GCSBucket, newWriter func(ctx context.Context, object string) io.WriteCloser, options ...Option) *Archive {
	archive := &Archive{bucket: bucket, newWriter: newWriter}
	for _, opt := range options {
		opt(archive)
	}
	return archive
}
