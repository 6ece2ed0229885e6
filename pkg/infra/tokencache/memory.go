package tokencache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

const (
	DefaultMemorySize = 1024
	// maxMemoryTTL bounds entries whose requested ttl is longer than any token lifetime.
	maxMemoryTTL = time.Hour
)

type memoryEntry struct {
	token       model.InstallationToken
	storedUntil time.Time
}

// Memory is a process local token cache.
type Memory struct {
	lru *expirable.LRU[types.GitHubAppInstallID, memoryEntry]
	now func() time.Time
}

var _ interfaces.TokenCache = (*Memory)(nil)

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{
		lru: expirable.NewLRU[types.GitHubAppInstallID, memoryEntry](size, nil, maxMemoryTTL),
		now: time.Now,
	}
}

func (x *Memory) Get(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
	entry, ok := x.lru.Get(installID)
	if !ok {
		return nil, nil
	}
	if !x.now().Before(entry.storedUntil) {
		x.lru.Remove(installID)
		return nil, nil
	}

	tok := entry.token
	return &tok, nil
}

func (x *Memory) Put(ctx context.Context, installID types.GitHubAppInstallID, token *model.InstallationToken, ttl time.Duration) error {
	x.lru.Add(installID, memoryEntry{
		token:       *token,
		storedUntil: x.now().Add(ttl),
	})
	return nil
}
