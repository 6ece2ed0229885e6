package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/utils/errutil"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

const requestIDHeader = "X-Request-Id"

// preProcess attaches a request scoped logger, echoes the request ID and writes the access log.
// A panicking handler is answered with 500.
func preProcess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		logger := logging.Default().With(slog.String("request_id", reqID))
		ctx := logging.WithRequestID(logging.With(r.Context(), logger), types.RequestID(reqID))

		lw := &statusCodeLogger{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		requestedAt := time.Now()
		defer func() {
			if v := recover(); v != nil {
				errutil.HandleError(ctx, "panic in http handler", goerr.New("panic", goerr.V("recover", v)))
				if !lw.written {
					writeJSON(lw, http.StatusInternalServerError, response{Error: "internal server error"})
				}
			}

			logger.Info("http access",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status_code", lw.statusCode),
				slog.Int64("content_length", r.ContentLength),
				slog.String("user_agent", r.UserAgent()),
				slog.Duration("elapsed", time.Since(requestedAt)),
			)
		}()

		next.ServeHTTP(lw, r.WithContext(ctx))
	})
}

type statusCodeLogger struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (x *statusCodeLogger) WriteHeader(code int) {
	x.statusCode = code
	x.written = true
	x.ResponseWriter.WriteHeader(code)
}

func (x *statusCodeLogger) Write(b []byte) (int, error) {
	x.written = true
	return x.ResponseWriter.Write(b)
}
