package config

import (
	"io"
	"log/slog"

	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/infra/tokencache"
	"github.com/urfave/cli/v3"
)

// TokenCache selects where installation tokens are cached. A bolt file keeps tokens across
// restarts; otherwise an in-memory LRU is used.
type TokenCache struct {
	boltPath string
	size     int64
}

func (x *TokenCache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "token-cache-path",
			Usage:       "Path of the bolt file caching installation tokens (in-memory cache if empty)",
			Category:    "Token cache",
			Destination: &x.boltPath,
			Sources:     cli.EnvVars("OCTOEXEC_TOKEN_CACHE_PATH"),
		},
		&cli.Int64Flag{
			Name:        "token-cache-size",
			Usage:       "Maximum number of installations kept in the in-memory cache",
			Category:    "Token cache",
			Destination: &x.size,
			Value:       tokencache.DefaultMemorySize,
			Sources:     cli.EnvVars("OCTOEXEC_TOKEN_CACHE_SIZE"),
		},
	}
}

// New returns the cache and a closer to release it; the closer is nil for the memory cache.
func (x *TokenCache) New() (interfaces.TokenCache, io.Closer, error) {
	if x.boltPath == "" {
		return tokencache.NewMemory(int(x.size)), nil, nil
	}

	cache, err := tokencache.NewBolt(x.boltPath)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

func (x *TokenCache) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("boltPath", x.boltPath),
		slog.Int64("size", x.size),
	)
}
