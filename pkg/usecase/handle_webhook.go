package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/go-github/v53/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra/ghapp"
	"github.com/m-mizutani/octoexec/pkg/repository"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

// signaturePrefix is the only accepted signature scheme, HMAC-SHA256.
const signaturePrefix = "sha256="

type eventHandler func(x *UseCase, ctx context.Context, ev *model.WebhookEvent) error

var eventHandlers = map[types.EventType]eventHandler{
	types.EventInstallation:             handleInstallationEvent,
	types.EventInstallationRepositories: handleInstallationRepositoriesEvent,
	types.EventPing:                     handlePingEvent,
}

type installationHandler func(x *UseCase, ctx context.Context, ev *github.InstallationEvent) error

var installationHandlers = map[types.InstallationAction]installationHandler{
	types.InstallationCreated:            syncInstallationFromEvent,
	types.InstallationPermissionsChanged: syncInstallationFromEvent,
	types.InstallationDeleted:            deleteInstallationFromEvent,
	types.InstallationSuspended:          logInstallationEvent,
	types.InstallationUnsuspended:        logInstallationEvent,
}

// webhookEnvelope holds the fields every event shares.
type webhookEnvelope struct {
	Action       string `json:"action"`
	Installation *struct {
		ID int64 `json:"id"`
	} `json:"installation"`
	Repository *struct {
		ID int64 `json:"id"`
	} `json:"repository"`
}

// HandleWebhook verifies an inbound notification, persists it and applies installation lifecycle
// changes. Both the signature and the event type are required.
func (x *UseCase) HandleWebhook(ctx context.Context, input *model.WebhookInput) error {
	if input.EventType == "" {
		return goerr.Wrap(types.ErrBadRequest, "event type header is missing")
	}
	if input.Signature == "" {
		return goerr.Wrap(types.ErrBadRequest, "signature header is missing")
	}

	if x.webhookSecret == "" {
		logging.From(ctx).Warn("webhook secret is not configured, signature verification is skipped")
	} else if !strings.HasPrefix(input.Signature, signaturePrefix) {
		return goerr.Wrap(types.ErrSignatureVerification, "signature is not HMAC-SHA256",
			goerr.V("eventType", input.EventType))
	} else if err := github.ValidateSignature(input.Signature, input.Payload, []byte(x.webhookSecret)); err != nil {
		return goerr.Wrap(errors.Join(types.ErrSignatureVerification, err), "invalid webhook signature",
			goerr.V("eventType", input.EventType))
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(input.Payload, &envelope); err != nil {
		return goerr.Wrap(errors.Join(types.ErrBadRequest, err), "webhook payload is not a JSON object",
			goerr.V("eventType", input.EventType))
	}

	ev := &model.WebhookEvent{
		ID:        types.NewWebhookEventID(),
		EventType: input.EventType,
		Action:    envelope.Action,
		Payload:   input.Payload,
		CreatedAt: x.now(),
	}
	if envelope.Installation != nil && envelope.Installation.ID != 0 {
		id := types.GitHubAppInstallID(envelope.Installation.ID)
		ev.InstallationID = &id
	}
	if envelope.Repository != nil && envelope.Repository.ID != 0 {
		id := types.GitHubRepoID(envelope.Repository.ID)
		ev.RepositoryID = &id
	}

	store := x.clients.OperationStore()
	if err := store.InsertWebhookEvent(ctx, ev); err != nil {
		return err
	}

	ctx = logging.With(ctx, logging.From(ctx).With(
		slog.Any("eventID", ev.ID),
		slog.Any("eventType", ev.EventType),
		slog.String("action", ev.Action),
	))

	if handler, ok := eventHandlers[ev.EventType]; ok {
		if err := handler(x, ctx, ev); err != nil {
			return err
		}
	} else {
		logging.From(ctx).Info("webhook event acknowledged without handler")
	}

	if err := store.MarkWebhookEventProcessed(ctx, ev.ID); err != nil {
		// an uninstall removes its own event along with the installation
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func handlePingEvent(_ *UseCase, ctx context.Context, _ *model.WebhookEvent) error {
	logging.From(ctx).Info("received ping")
	return nil
}

func handleInstallationEvent(x *UseCase, ctx context.Context, ev *model.WebhookEvent) error {
	var event github.InstallationEvent
	if err := json.Unmarshal(ev.Payload, &event); err != nil {
		return goerr.Wrap(errors.Join(types.ErrBadRequest, err), "failed to parse installation event")
	}
	if event.GetInstallation().GetID() == 0 {
		return goerr.Wrap(types.ErrBadRequest, "installation event has no installation")
	}

	handler, ok := installationHandlers[types.InstallationAction(event.GetAction())]
	if !ok {
		logging.From(ctx).Info("installation action ignored")
		return nil
	}
	return handler(x, ctx, &event)
}

func handleInstallationRepositoriesEvent(x *UseCase, ctx context.Context, ev *model.WebhookEvent) error {
	var event github.InstallationRepositoriesEvent
	if err := json.Unmarshal(ev.Payload, &event); err != nil {
		return goerr.Wrap(errors.Join(types.ErrBadRequest, err), "failed to parse installation_repositories event")
	}
	if event.GetInstallation().GetID() == 0 {
		return goerr.Wrap(types.ErrBadRequest, "installation_repositories event has no installation")
	}

	inst, err := ghapp.InstallationFromGitHub(event.GetInstallation())
	if err != nil {
		return err
	}
	return x.SyncInstallation(ctx, inst)
}

func syncInstallationFromEvent(x *UseCase, ctx context.Context, event *github.InstallationEvent) error {
	inst, err := ghapp.InstallationFromGitHub(event.GetInstallation())
	if err != nil {
		return err
	}
	return x.SyncInstallation(ctx, inst)
}

func deleteInstallationFromEvent(x *UseCase, ctx context.Context, event *github.InstallationEvent) error {
	id := types.GitHubAppInstallID(event.GetInstallation().GetID())
	if err := x.clients.OperationStore().DeleteInstallation(ctx, id); err != nil {
		if errors.Is(err, types.ErrInstallationNotFound) {
			logging.From(ctx).Info("deleted installation was not known", slog.Any("installID", id))
			return nil
		}
		return err
	}

	logging.From(ctx).Info("installation deleted", slog.Any("installID", id))
	return nil
}

func logInstallationEvent(_ *UseCase, ctx context.Context, event *github.InstallationEvent) error {
	logging.From(ctx).Info("installation state changed",
		slog.Int64("installID", event.GetInstallation().GetID()),
		slog.String("account", event.GetInstallation().GetAccount().GetLogin()),
	)
	return nil
}
