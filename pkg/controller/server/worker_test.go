package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/controller/server"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/infra/executor"
	"github.com/m-mizutani/octoexec/pkg/infra/process"
)

type runnerFunc func(ctx context.Context, req *model.ExecRequest) *model.ExecResult

func (f runnerFunc) Run(ctx context.Context, req *model.ExecRequest) *model.ExecResult {
	return f(ctx, req)
}

func TestWorkerExec(t *testing.T) {
	var received *model.ExecRequest
	srv := server.NewWorker(runnerFunc(func(ctx context.Context, req *model.ExecRequest) *model.ExecResult {
		received = req
		return &model.ExecResult{ExitCode: 3, Stdout: "out", Stderr: "err", DurationMs: 12}
	}))

	t.Run("request is passed to the runner", func(t *testing.T) {
		body := `{"command":["git","status"],"env":{"A":"1"},"workingDir":"/workspace/octo/hello","timeoutMs":1000}`
		req := httptest.NewRequest(http.MethodPost, "/exec", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)

		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.V(t, received.Command).Equal([]string{"git", "status"})
		gt.V(t, received.Env["A"]).Equal("1")
		gt.V(t, received.WorkingDir).Equal("/workspace/octo/hello")
		gt.V(t, received.TimeoutMs).Equal(int64(1000))

		var result model.ExecResult
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		gt.V(t, result.ExitCode).Equal(3)
		gt.V(t, result.Stdout).Equal("out")
		gt.V(t, result.Stderr).Equal("err")
		gt.V(t, result.DurationMs).Equal(int64(12))
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		for _, body := range []string{`{"command":`, `{"command":[]}`, `{}`} {
			req := httptest.NewRequest(http.MethodPost, "/exec", strings.NewReader(body))
			rec := httptest.NewRecorder()
			srv.Mux().ServeHTTP(rec, req)
			gt.V(t, rec.Code).Equal(http.StatusBadRequest)
		}
	})

	t.Run("health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.V(t, rec.Body.String()).Equal(`{"status":"healthy"}`)
	})
}

func TestWorkerWithExecutorClient(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	ts := httptest.NewServer(server.NewWorker(process.New(process.WithGracePeriod(200 * time.Millisecond))).Mux())
	t.Cleanup(ts.Close)

	client := gt.R1(executor.New(ts.URL)).NoError(t)
	ctx := context.Background()

	gt.NoError(t, client.Health(ctx))

	t.Run("command output", func(t *testing.T) {
		result := gt.R1(client.Exec(ctx, &model.ExecRequest{
			Command: []string{"sh", "-c", `echo "hello $NAME"; echo oops >&2; exit 2`},
			Env:     map[string]string{"NAME": "octo"},
		})).NoError(t)
		gt.V(t, result.ExitCode).Equal(2)
		gt.V(t, result.Stdout).Equal("hello octo\n")
		gt.V(t, result.Stderr).Equal("oops\n")
	})

	t.Run("timeout", func(t *testing.T) {
		result := gt.R1(client.Exec(ctx, &model.ExecRequest{
			Command:   []string{"sleep", "10"},
			TimeoutMs: 100,
		})).NoError(t)
		gt.True(t, result.TimedOut())
		gt.S(t, result.Stderr).Contains("process timed out")
	})

	t.Run("spawn failure", func(t *testing.T) {
		result := gt.R1(client.Exec(ctx, &model.ExecRequest{
			Command: []string{"/nonexistent/binary"},
		})).NoError(t)
		gt.V(t, result.ExitCode).Equal(-1)
		gt.V(t, result.Error).NotEqual("")
	})
}
