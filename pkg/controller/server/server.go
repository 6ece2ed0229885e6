package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/utils/errutil"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

const (
	maxRequestBody = 1 << 20
	// GitHub caps webhook payloads at 25 MB
	maxWebhookBody = 25 << 20
)

type Server struct {
	mux *chi.Mux
}

// response is the envelope of every API response.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func safeWrite(w http.ResponseWriter, code int, body []byte) {
	w.WriteHeader(code)

	// nosemgrep: go.lang.security.audit.xss.no-direct-write-to-responsewriter.no-direct-write-to-responsewriter
	// Why: The response data is encoded JSON
	if _, err := w.Write(body); err != nil {
		logging.Default().Error("fail to write response", slog.Any("error", err))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Default().Error("fail to marshal response", slog.Any("error", err))
		w.Header().Set("Content-Type", "application/json")
		safeWrite(w, http.StatusInternalServerError, []byte(`{"success":false,"data":null,"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	safeWrite(w, code, body)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, response{Success: true, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		errutil.HandleError(ctx, msg, err)
	} else {
		logging.From(ctx).Info(msg, slog.Int("status", code), slog.Any("error", err))
	}
	writeJSON(w, code, response{Success: false, Error: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, types.ErrRepositoryNotFound),
		errors.Is(err, types.ErrOperationNotFound),
		errors.Is(err, types.ErrInstallationNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrSignatureVerification):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrBadRequest),
		errors.Is(err, types.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type config struct {
	executor interfaces.Executor
}

type Option func(*config)

// WithExecutor makes the health endpoint report the reachability of the execution worker.
func WithExecutor(executor interfaces.Executor) Option {
	return func(cfg *config) {
		cfg.executor = executor
	}
}

func New(uc interfaces.UseCase, options ...Option) *Server {
	cfg := &config{}
	for _, opt := range options {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", getHealth(cfg.executor))

	r.Route("/operations", func(r chi.Router) {
		r.Post("/", submitOperation(uc, ""))
		for _, kind := range types.OperationKinds {
			r.Post("/"+string(kind), submitOperation(uc, kind))
		}
		r.Get("/{id}", getOperation(uc))
		r.Post("/{id}/cancel", cancelOperation(uc))
	})
	r.Get("/repositories/{owner}/{name}/operations", listRepositoryOperations(uc))
	r.Post("/webhooks", handleWebhook(uc))

	return &Server{
		mux: r,
	}
}

func (x *Server) Mux() *chi.Mux {
	return x.mux
}

type healthStatus struct {
	Status string `json:"status"`
	Worker string `json:"worker,omitempty"`
}

func getHealth(executor interfaces.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if executor == nil {
			writeData(w, http.StatusOK, healthStatus{Status: "healthy"})
			return
		}

		if err := executor.Health(r.Context()); err != nil {
			logging.From(r.Context()).Warn("execution worker is not healthy", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, response{
				Data:  healthStatus{Status: "degraded", Worker: "unavailable"},
				Error: "execution worker unavailable",
			})
			return
		}
		writeData(w, http.StatusOK, healthStatus{Status: "healthy", Worker: "healthy"})
	}
}

// submitOperation accepts a new operation. A non-empty kind comes from the route and overrides
// the type field of the body.
func submitOperation(uc interfaces.UseCase, kind types.OperationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input model.SubmitOperationInput
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input); err != nil {
			writeError(ctx, w, "invalid operation request", goerr.Wrap(errors.Join(types.ErrBadRequest, err), "failed to decode request body"))
			return
		}
		if kind != "" {
			input.Kind = kind
		}

		op, err := uc.SubmitOperation(ctx, &input)
		if err != nil {
			writeError(ctx, w, "failed to submit operation", err)
			return
		}

		writeData(w, http.StatusAccepted, op)
	}
}

func getOperation(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		op, err := uc.GetOperation(ctx, types.OperationID(chi.URLParam(r, "id")))
		if err != nil {
			writeError(ctx, w, "failed to get operation", err)
			return
		}
		writeData(w, http.StatusOK, op)
	}
}

func cancelOperation(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := types.OperationID(chi.URLParam(r, "id"))
		if err := uc.CancelOperation(ctx, id); err != nil {
			writeError(ctx, w, "failed to cancel operation", err)
			return
		}
		writeData(w, http.StatusAccepted, map[string]any{"id": id, "canceled": true})
	}
}

func listRepositoryOperations(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fullName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

		ops, err := uc.ListRepositoryOperations(ctx, fullName)
		if err != nil {
			writeError(ctx, w, "failed to list operations", err)
			return
		}
		if ops == nil {
			ops = []*model.GitOperation{}
		}
		writeData(w, http.StatusOK, ops)
	}
}

func headerOf(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func handleWebhook(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			writeError(ctx, w, "failed to read webhook body", goerr.Wrap(errors.Join(types.ErrBadRequest, err), "failed to read body"))
			return
		}

		input := &model.WebhookInput{
			Payload:   payload,
			Signature: headerOf(r, "X-Signature-256", "X-Hub-Signature-256"),
			EventType: types.EventType(headerOf(r, "X-Event-Type", "X-GitHub-Event")),
		}
		if err := uc.HandleWebhook(ctx, input); err != nil {
			writeError(ctx, w, "failed to handle webhook", err)
			return
		}

		writeData(w, http.StatusOK, map[string]bool{"accepted": true})
	}
}
