package config

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra/gcs"
	"github.com/urfave/cli/v3"
)

type Storage struct {
	bucket types.GCSBucket
	prefix string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket archiving full operation output (disabled if empty)",
			Category:    "Cloud Storage",
			Destination: (*string)(&x.bucket),
			Sources:     cli.EnvVars("OCTOEXEC_STORAGE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object name prefix",
			Category:    "Cloud Storage",
			Destination: &x.prefix,
			Value:       "operations",
			Sources:     cli.EnvVars("OCTOEXEC_STORAGE_PREFIX"),
		},
	}
}

// NewArchive returns nil values when no bucket is configured.
func (x *Storage) NewArchive(ctx context.Context) (interfaces.OutputArchive, io.Closer, error) {
	if x.bucket == "" {
		return nil, nil, nil
	}

	archive, err := gcs.New(ctx, x.bucket, gcs.WithPrefix(x.prefix))
	if err != nil {
		return nil, nil, err
	}
	return archive, archive, nil
}

func (x *Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}
