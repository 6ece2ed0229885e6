package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/controller/server"
	"github.com/m-mizutani/octoexec/pkg/domain/mock"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra"
	"github.com/m-mizutani/octoexec/pkg/repository/memory"
	"github.com/m-mizutani/octoexec/pkg/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func serve(t *testing.T, srv *server.Server, method, path string, body string, headers ...string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	var resp envelope
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, &resp
}

func pendingOperation(input *model.SubmitOperationInput) *model.GitOperation {
	return &model.GitOperation{
		ID:           types.NewOperationID(),
		Kind:         input.Kind,
		RepositoryID: 1001,
		Repository:   input.Repository,
		Branch:       input.Branch,
		Status:       types.OperationPending,
		CreatedAt:    time.Now(),
	}
}

func TestHealth(t *testing.T) {
	t.Run("without worker check", func(t *testing.T) {
		srv := server.New(&mock.UseCaseMock{})
		rec, resp := serve(t, srv, http.MethodGet, "/health", "")
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.True(t, resp.Success)
		gt.S(t, string(resp.Data)).Contains(`"status":"healthy"`)
	})

	t.Run("worker reachable", func(t *testing.T) {
		exec := &mock.ExecutorMock{HealthFunc: func(ctx context.Context) error { return nil }}
		srv := server.New(&mock.UseCaseMock{}, server.WithExecutor(exec))
		rec, resp := serve(t, srv, http.MethodGet, "/health", "")
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.S(t, string(resp.Data)).Contains(`"worker":"healthy"`)
	})

	t.Run("worker unreachable", func(t *testing.T) {
		exec := &mock.ExecutorMock{HealthFunc: func(ctx context.Context) error {
			return goerr.Wrap(types.ErrWorkerUnavailable, "connection refused")
		}}
		srv := server.New(&mock.UseCaseMock{}, server.WithExecutor(exec))
		rec, resp := serve(t, srv, http.MethodGet, "/health", "")
		gt.V(t, rec.Code).Equal(http.StatusServiceUnavailable)
		gt.False(t, resp.Success)
		gt.S(t, string(resp.Data)).Contains(`"worker":"unavailable"`)
	})
}

func TestSubmitOperation(t *testing.T) {
	newServer := func() (*server.Server, *mock.UseCaseMock) {
		uc := &mock.UseCaseMock{
			SubmitOperationFunc: func(ctx context.Context, input *model.SubmitOperationInput) (*model.GitOperation, error) {
				if err := input.Validate(); err != nil {
					return nil, err
				}
				if input.Repository != "octo/hello" {
					return nil, goerr.Wrap(types.ErrRepositoryNotFound, "repository is not granted")
				}
				return pendingOperation(input), nil
			},
		}
		return server.New(uc), uc
	}

	t.Run("kind from the route", func(t *testing.T) {
		srv, uc := newServer()
		rec, resp := serve(t, srv, http.MethodPost, "/operations/clone", `{"repository":"octo/hello","branch":"main"}`)

		gt.V(t, rec.Code).Equal(http.StatusAccepted)
		gt.True(t, resp.Success)
		gt.V(t, resp.Error).Equal("")

		var op model.GitOperation
		gt.NoError(t, json.Unmarshal(resp.Data, &op))
		gt.V(t, op.Status).Equal(types.OperationPending)
		gt.V(t, op.Kind).Equal(types.OperationClone)

		calls := uc.SubmitOperationCalls()
		gt.A(t, calls).Length(1)
		gt.V(t, calls[0].Input.Kind).Equal(types.OperationClone)
		gt.V(t, calls[0].Input.Branch).Equal("main")
	})

	t.Run("route kind overrides the body", func(t *testing.T) {
		srv, uc := newServer()
		rec, _ := serve(t, srv, http.MethodPost, "/operations/pull", `{"type":"push","repository":"octo/hello"}`)
		gt.V(t, rec.Code).Equal(http.StatusAccepted)
		gt.V(t, uc.SubmitOperationCalls()[0].Input.Kind).Equal(types.OperationPull)
	})

	t.Run("kind from the body", func(t *testing.T) {
		srv, uc := newServer()
		body := `{"type":"commit","repository":"octo/hello","message":"update docs","files":[{"path":"README.md","content":"hi"}]}`
		rec, _ := serve(t, srv, http.MethodPost, "/operations", body)

		gt.V(t, rec.Code).Equal(http.StatusAccepted)
		input := uc.SubmitOperationCalls()[0].Input
		gt.V(t, input.Kind).Equal(types.OperationCommit)
		gt.V(t, input.Message).Equal("update docs")
		gt.A(t, input.Files).Length(1)
	})

	t.Run("unknown repository is 404", func(t *testing.T) {
		srv, _ := newServer()
		rec, resp := serve(t, srv, http.MethodPost, "/operations/clone", `{"repository":"octo/missing"}`)
		gt.V(t, rec.Code).Equal(http.StatusNotFound)
		gt.False(t, resp.Success)
		gt.V(t, string(resp.Data)).Equal("null")
		gt.S(t, resp.Error).Contains("repository not found")
	})

	t.Run("invalid input is 400", func(t *testing.T) {
		srv, _ := newServer()
		for _, tc := range []struct{ path, body string }{
			{"/operations", `{"type":"rebase","repository":"octo/hello"}`},
			{"/operations/commit", `{"repository":"octo/hello"}`},
			{"/operations/clone", `{"repository":"hello"}`},
			{"/operations/clone", `{"repository":`},
		} {
			rec, resp := serve(t, srv, http.MethodPost, tc.path, tc.body)
			gt.V(t, rec.Code).Equal(http.StatusBadRequest)
			gt.False(t, resp.Success)
		}
	})

	t.Run("oversized body is 400", func(t *testing.T) {
		srv, _ := newServer()
		body := `{"type":"commit","repository":"octo/hello","message":"` + strings.Repeat("a", 2<<20) + `"}`
		rec, _ := serve(t, srv, http.MethodPost, "/operations", body)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestOperationQueries(t *testing.T) {
	opID := types.NewOperationID()
	uc := &mock.UseCaseMock{
		GetOperationFunc: func(ctx context.Context, id types.OperationID) (*model.GitOperation, error) {
			if id != opID {
				return nil, goerr.Wrap(types.ErrOperationNotFound, "no such operation")
			}
			return &model.GitOperation{ID: id, Kind: types.OperationPush, Repository: "octo/hello", Status: types.OperationRunning}, nil
		},
		CancelOperationFunc: func(ctx context.Context, id types.OperationID) error {
			if id != opID {
				return goerr.Wrap(types.ErrInvalidTransition, "operation is not running")
			}
			return nil
		},
		ListRepositoryOperationsFunc: func(ctx context.Context, fullName string) ([]*model.GitOperation, error) {
			switch fullName {
			case "octo/hello":
				return []*model.GitOperation{{ID: opID, Repository: fullName, Status: types.OperationRunning}}, nil
			case "octo/empty":
				return nil, nil
			default:
				return nil, goerr.Wrap(types.ErrRepositoryNotFound, "unknown repository")
			}
		},
	}
	srv := server.New(uc)

	t.Run("get operation", func(t *testing.T) {
		rec, resp := serve(t, srv, http.MethodGet, "/operations/"+opID.String(), "")
		gt.V(t, rec.Code).Equal(http.StatusOK)
		var op model.GitOperation
		gt.NoError(t, json.Unmarshal(resp.Data, &op))
		gt.V(t, op.ID).Equal(opID)
		gt.V(t, op.Status).Equal(types.OperationRunning)
	})

	t.Run("get unknown operation", func(t *testing.T) {
		rec, resp := serve(t, srv, http.MethodGet, "/operations/"+types.NewOperationID().String(), "")
		gt.V(t, rec.Code).Equal(http.StatusNotFound)
		gt.False(t, resp.Success)
	})

	t.Run("cancel operation", func(t *testing.T) {
		rec, resp := serve(t, srv, http.MethodPost, "/operations/"+opID.String()+"/cancel", "")
		gt.V(t, rec.Code).Equal(http.StatusAccepted)
		gt.True(t, resp.Success)
	})

	t.Run("cancel finished operation is a conflict", func(t *testing.T) {
		rec, _ := serve(t, srv, http.MethodPost, "/operations/"+types.NewOperationID().String()+"/cancel", "")
		gt.V(t, rec.Code).Equal(http.StatusConflict)
	})

	t.Run("list repository operations", func(t *testing.T) {
		rec, resp := serve(t, srv, http.MethodGet, "/repositories/octo/hello/operations", "")
		gt.V(t, rec.Code).Equal(http.StatusOK)
		var ops []*model.GitOperation
		gt.NoError(t, json.Unmarshal(resp.Data, &ops))
		gt.A(t, ops).Length(1)
		gt.V(t, uc.ListRepositoryOperationsCalls()[0].FullName).Equal("octo/hello")
	})

	t.Run("empty list is an array", func(t *testing.T) {
		rec, resp := serve(t, srv, http.MethodGet, "/repositories/octo/empty/operations", "")
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.V(t, string(resp.Data)).Equal("[]")
	})

	t.Run("list for unknown repository", func(t *testing.T) {
		rec, _ := serve(t, srv, http.MethodGet, "/repositories/octo/missing/operations", "")
		gt.V(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestWebhook(t *testing.T) {
	newServer := func(err error) (*server.Server, *mock.UseCaseMock) {
		uc := &mock.UseCaseMock{
			HandleWebhookFunc: func(ctx context.Context, input *model.WebhookInput) error {
				return err
			},
		}
		return server.New(uc), uc
	}
	payload := `{"action":"created","installation":{"id":42}}`

	t.Run("accepted", func(t *testing.T) {
		srv, uc := newServer(nil)
		rec, resp := serve(t, srv, http.MethodPost, "/webhooks", payload,
			"X-Signature-256", "sha256=abcd",
			"X-Event-Type", "installation",
		)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.True(t, resp.Success)
		gt.V(t, string(resp.Data)).Equal(`{"accepted":true}`)

		calls := uc.HandleWebhookCalls()
		gt.A(t, calls).Length(1)
		gt.V(t, string(calls[0].Input.Payload)).Equal(payload)
		gt.V(t, calls[0].Input.Signature).Equal("sha256=abcd")
		gt.V(t, calls[0].Input.EventType).Equal(types.EventInstallation)
	})

	t.Run("GitHub header names are accepted", func(t *testing.T) {
		srv, uc := newServer(nil)
		rec, _ := serve(t, srv, http.MethodPost, "/webhooks", payload,
			"X-Hub-Signature-256", "sha256=ef01",
			"X-GitHub-Event", "installation_repositories",
		)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.V(t, uc.HandleWebhookCalls()[0].Input.Signature).Equal("sha256=ef01")
		gt.V(t, uc.HandleWebhookCalls()[0].Input.EventType).Equal(types.EventInstallationRepositories)
	})

	t.Run("missing headers", func(t *testing.T) {
		srv, _ := newServer(goerr.Wrap(types.ErrBadRequest, "signature header is missing"))
		rec, resp := serve(t, srv, http.MethodPost, "/webhooks", payload)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
		gt.False(t, resp.Success)
	})

	t.Run("invalid signature", func(t *testing.T) {
		srv, _ := newServer(goerr.Wrap(types.ErrSignatureVerification, "invalid webhook signature"))
		rec, resp := serve(t, srv, http.MethodPost, "/webhooks", payload,
			"X-Signature-256", "sha256=00",
			"X-Event-Type", "installation",
		)
		gt.V(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.S(t, resp.Error).Contains("signature verification failed")
	})

	t.Run("processing failure", func(t *testing.T) {
		srv, _ := newServer(goerr.New("database is down"))
		rec, _ := serve(t, srv, http.MethodPost, "/webhooks", payload,
			"X-Signature-256", "sha256=00",
			"X-Event-Type", "installation",
		)
		gt.V(t, rec.Code).Equal(http.StatusInternalServerError)
	})
}

func TestOperationFlow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	gt.NoError(t, store.UpsertInstallation(ctx, &model.Installation{ID: 42, AccountLogin: "octo"}))
	gt.NoError(t, store.UpsertRepositories(ctx, []*model.Repository{{
		ID:             1001,
		InstallationID: 42,
		Name:           "hello",
		FullName:       "octo/hello",
		OwnerLogin:     "octo",
		CloneURL:       "https://github.com/octo/hello.git",
	}}))

	gh := &mock.GitHubAppMock{
		GetTokenFunc: func(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
			return &model.InstallationToken{Token: "ghs_flowtoken", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	exec := &mock.ExecutorMock{
		ExecFunc: func(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
			return &model.ExecResult{Stdout: "Cloning into 'hello'...\n"}, nil
		},
	}
	uc := usecase.New(infra.New(
		infra.WithOperationStore(store),
		infra.WithGitHubApp(gh),
		infra.WithExecutor(exec),
	))
	srv := server.New(uc)

	rec, _ := serve(t, srv, http.MethodPost, "/operations", `{"type":"clone","repository":"octo/nothing","branch":"main"}`)
	gt.V(t, rec.Code).Equal(http.StatusNotFound)

	rec, resp := serve(t, srv, http.MethodPost, "/operations", `{"type":"clone","repository":"octo/hello","branch":"main"}`)
	gt.V(t, rec.Code).Equal(http.StatusAccepted)
	var op model.GitOperation
	gt.NoError(t, json.Unmarshal(resp.Data, &op))
	uc.Wait()

	rec, resp = serve(t, srv, http.MethodGet, "/operations/"+op.ID.String(), "")
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.NoError(t, json.Unmarshal(resp.Data, &op))
	gt.V(t, op.Status).Equal(types.OperationCompleted)
	gt.S(t, op.Result).Contains("Cloning into")

	rec, resp = serve(t, srv, http.MethodGet, "/repositories/octo/hello/operations", "")
	gt.V(t, rec.Code).Equal(http.StatusOK)
	var ops []*model.GitOperation
	gt.NoError(t, json.Unmarshal(resp.Data, &ops))
	gt.A(t, ops).Length(1)
	gt.A(t, exec.ExecCalls()).Length(1)
}
