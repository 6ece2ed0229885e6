package tokencache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"go.etcd.io/bbolt"
)

const boltBucketTokens = "tokens" // key: installation ID -> boltEntry JSON

type boltEntry struct {
	Token       types.InstallationToken `json:"token"`
	ExpiresAt   time.Time               `json:"expires_at"`
	StoredUntil time.Time               `json:"stored_until"`
}

// Bolt keeps tokens in a local bbolt file so they survive restarts of a single node.
type Bolt struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ interfaces.TokenCache = (*Bolt)(nil)

func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open token cache", goerr.V("path", path))
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketTokens))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create token bucket", goerr.V("path", path))
	}

	return &Bolt{db: db, now: time.Now}, nil
}

func (x *Bolt) Close() error {
	return x.db.Close()
}

func boltKey(installID types.GitHubAppInstallID) []byte {
	return []byte(strconv.FormatInt(int64(installID), 10))
}

func (x *Bolt) Get(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
	var raw []byte
	if err := x.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(boltBucketTokens)).Get(boltKey(installID)); v != nil {
			raw = append([]byte{}, v...)
		}
		return nil
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to read token cache", goerr.V("installID", installID))
	}
	if raw == nil {
		return nil, nil
	}

	var entry boltEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cached token", goerr.V("installID", installID))
	}

	if !x.now().Before(entry.StoredUntil) {
		if err := x.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket([]byte(boltBucketTokens)).Delete(boltKey(installID))
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to evict expired token", goerr.V("installID", installID))
		}
		return nil, nil
	}

	return &model.InstallationToken{Token: entry.Token, ExpiresAt: entry.ExpiresAt}, nil
}

func (x *Bolt) Put(ctx context.Context, installID types.GitHubAppInstallID, token *model.InstallationToken, ttl time.Duration) error {
	raw, err := json.Marshal(boltEntry{
		Token:       token.Token,
		ExpiresAt:   token.ExpiresAt,
		StoredUntil: x.now().Add(ttl),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode token")
	}

	if err := x.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketTokens)).Put(boltKey(installID), raw)
	}); err != nil {
		return goerr.Wrap(err, "failed to write token cache", goerr.V("installID", installID))
	}
	return nil
}
