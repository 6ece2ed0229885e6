package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

// CommandRunner executes one request inside the sandbox and always produces a result.
type CommandRunner interface {
	Run(ctx context.Context, req *model.ExecRequest) *model.ExecResult
}

// NewWorker builds the execution worker API. It speaks the raw worker protocol rather than the
// API envelope.
func NewWorker(runner CommandRunner) *Server {
	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Post("/exec", execCommand(runner))

	return &Server{
		mux: r,
	}
}

func execCommand(runner CommandRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.ExecRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
			logging.From(ctx).Info("invalid exec request", slog.Any("error", err))
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		if len(req.Command) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "command is required"})
			return
		}

		logging.From(ctx).Info("executing command",
			slog.String("command", req.Command[0]),
			slog.Int("args", len(req.Command)-1),
			slog.String("working_dir", req.WorkingDir),
			slog.Int64("timeout_ms", req.TimeoutMs),
		)

		// the request context ends when the client goes away, which terminates the process
		result := runner.Run(ctx, &req)
		writeJSON(w, http.StatusOK, result)
	}
}
