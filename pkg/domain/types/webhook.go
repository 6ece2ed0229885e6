package types

import "github.com/google/uuid"

type WebhookEventID string

func NewWebhookEventID() WebhookEventID {
	return WebhookEventID(uuid.NewString())
}

func (x WebhookEventID) String() string { return string(x) }

// EventType is the value of the event type header of an inbound webhook.
type EventType string

const (
	EventInstallation             EventType = "installation"
	EventInstallationRepositories EventType = "installation_repositories"
	EventPing                     EventType = "ping"
)

// InstallationAction is the action field of an installation event.
type InstallationAction string

const (
	InstallationCreated            InstallationAction = "created"
	InstallationDeleted            InstallationAction = "deleted"
	InstallationPermissionsChanged InstallationAction = "new_permissions_accepted"
	InstallationSuspended          InstallationAction = "suspend"
	InstallationUnsuspended        InstallationAction = "unsuspend"
)

// InstallationActions is the closed set of installation actions handled by the ingestor.
var InstallationActions = []InstallationAction{
	InstallationCreated,
	InstallationDeleted,
	InstallationPermissionsChanged,
	InstallationSuspended,
	InstallationUnsuspended,
}
