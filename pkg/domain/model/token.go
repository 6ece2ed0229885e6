package model

import (
	"time"

	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// InstallationToken is an exchanged installation credential and its expiry.
type InstallationToken struct {
	Token     types.InstallationToken `json:"token"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// UsableAt reports whether the token is still valid for at least margin after now.
func (x *InstallationToken) UsableAt(now time.Time, margin time.Duration) bool {
	return x != nil && x.Token != "" && x.ExpiresAt.Sub(now) > margin
}
