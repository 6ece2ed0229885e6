package model

import "github.com/m-mizutani/octoexec/pkg/domain/types"

// WebhookInput carries an inbound notification exactly as received.
type WebhookInput struct {
	Payload   []byte
	Signature string
	EventType types.EventType
}
