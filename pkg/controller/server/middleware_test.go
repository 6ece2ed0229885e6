package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/controller/server"
	"github.com/m-mizutani/octoexec/pkg/domain/mock"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

func TestMiddleware(t *testing.T) {
	t.Run("preProcess adds logger with request_id to context", func(t *testing.T) {
		var capturedCtx context.Context

		srv := server.New(&mock.UseCaseMock{})
		mux := srv.Mux()
		mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
			capturedCtx = r.Context()
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		logger := logging.From(capturedCtx)
		defaultLogger := logging.From(context.Background())
		gt.V(t, logger == defaultLogger).Equal(false)

		_, err := uuid.Parse(w.Header().Get("X-Request-Id"))
		gt.NoError(t, err)
		gt.V(t, logging.RequestID(capturedCtx).String()).Equal(w.Header().Get("X-Request-Id"))
	})

	t.Run("request ID from the client is kept", func(t *testing.T) {
		srv := server.New(&mock.UseCaseMock{})
		reqID := uuid.NewString()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", reqID)
		w := httptest.NewRecorder()
		srv.Mux().ServeHTTP(w, req)

		gt.V(t, w.Header().Get("X-Request-Id")).Equal(reqID)
	})

	t.Run("malformed request ID is replaced", func(t *testing.T) {
		srv := server.New(&mock.UseCaseMock{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", "bad\nid")
		w := httptest.NewRecorder()
		srv.Mux().ServeHTTP(w, req)

		gt.V(t, w.Header().Get("X-Request-Id")).NotEqual("bad\nid")
	})

	t.Run("statusCodeLogger passes status codes through", func(t *testing.T) {
		for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
			srv := server.New(&mock.UseCaseMock{})
			mux := srv.Mux()
			mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			gt.V(t, w.Code).Equal(code)
		}
	})

	t.Run("panic is answered with 500", func(t *testing.T) {
		srv := server.New(&mock.UseCaseMock{})
		mux := srv.Mux()
		mux.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		gt.V(t, w.Code).Equal(http.StatusInternalServerError)
		gt.S(t, w.Body.String()).Contains(`"success":false`)
	})
}
