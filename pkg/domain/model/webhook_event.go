package model

import (
	"time"

	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// WebhookEvent is an append-only record of a verified inbound notification.
// Only Processed changes after insertion.
type WebhookEvent struct {
	ID             types.WebhookEventID
	EventType      types.EventType
	Action         string
	InstallationID *types.GitHubAppInstallID
	RepositoryID   *types.GitHubRepoID
	Payload        []byte
	Processed      bool
	CreatedAt      time.Time
}
