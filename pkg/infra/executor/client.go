package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"github.com/m-mizutani/octoexec/pkg/utils/safe"
)

// responseSlack covers the network round trip on top of the command budget.
const responseSlack = 10 * time.Second

// Client calls the execution worker over HTTP.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	grace      time.Duration
}

var _ interfaces.Executor = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(x *Client) {
		x.httpClient = client
	}
}

// WithGracePeriod must match the worker's termination grace period so the client does not
// give up before the worker reports a timeout.
func WithGracePeriod(d time.Duration) Option {
	return func(x *Client) {
		x.grace = d
	}
}

func New(endpoint string, options ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, goerr.Wrap(types.ErrConfiguration, "worker endpoint is empty")
	}
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, goerr.Wrap(types.ErrConfiguration, "invalid worker endpoint", goerr.V("endpoint", endpoint))
	}

	client := &Client{
		endpoint:   u,
		httpClient: &http.Client{},
		grace:      5 * time.Second,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

func (x *Client) url(path string) string {
	return x.endpoint.JoinPath(path).String()
}

// Exec sends the request to POST /exec and waits for the result. A timed out command is
// still a result; only transport failures and non-200 answers are errors.
func (x *Client) Exec(ctx context.Context, req *model.ExecRequest) (*model.ExecResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal exec request")
	}

	if req.TimeoutMs > 0 {
		budget := time.Duration(req.TimeoutMs)*time.Millisecond + x.grace + responseSlack
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, x.url("/exec"), bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create exec request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startedAt := time.Now()
	resp, err := x.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, context.Canceled) {
			return nil, goerr.Wrap(errors.Join(types.ErrOperationCanceled, ctxErr), "exec request canceled")
		}
		return nil, goerr.Wrap(errors.Join(types.ErrWorkerUnavailable, err), "failed to call execution worker",
			goerr.V("endpoint", x.endpoint.String()),
		)
	}
	defer safe.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, goerr.Wrap(types.ErrWorkerUnavailable, "execution worker returned an error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(msg)),
		)
	}

	var result model.ExecResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, goerr.Wrap(errors.Join(types.ErrWorkerUnavailable, err), "failed to decode exec response")
	}

	logging.From(ctx).Debug("execution worker answered",
		slog.Int("exitCode", result.ExitCode),
		slog.Int64("durationMs", result.DurationMs),
		slog.Duration("roundTrip", time.Since(startedAt)),
	)

	return &result, nil
}

// Health checks GET /health.
func (x *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, x.url("/health"), nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create health request")
	}

	resp, err := x.httpClient.Do(httpReq)
	if err != nil {
		return goerr.Wrap(errors.Join(types.ErrWorkerUnavailable, err), "failed to call execution worker health")
	}
	defer safe.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return goerr.Wrap(types.ErrWorkerUnavailable, "execution worker is unhealthy", goerr.V("status", resp.StatusCode))
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return goerr.Wrap(errors.Join(types.ErrWorkerUnavailable, err), "failed to decode health response")
	}
	if status.Status != "healthy" {
		return goerr.Wrap(types.ErrWorkerUnavailable, "execution worker is unhealthy", goerr.V("status", status.Status))
	}

	return nil
}
