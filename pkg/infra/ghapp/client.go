package ghapp

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/go-github/v53/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra/tokencache"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// assertionBackdate tolerates clock skew between us and the upstream.
	assertionBackdate = 60 * time.Second
	assertionLifetime = 10 * time.Minute

	// TokenRefreshMargin is the minimum remaining lifetime of a reusable token.
	TokenRefreshMargin = 5 * time.Minute
	// TokenCacheTTL is slightly shorter than the one hour installation token lifetime.
	TokenCacheTTL = 55 * time.Minute
)

type Client struct {
	appID      types.GitHubAppID
	key        *rsa.PrivateKey
	cache      interfaces.TokenCache
	baseURL    *url.URL
	httpClient *http.Client
	now        func() time.Time
	exchanges  singleflight.Group
}

var _ interfaces.GitHubApp = (*Client)(nil)

type Option func(*Client)

// WithTokenCache replaces the default in-memory token cache.
func WithTokenCache(cache interfaces.TokenCache) Option {
	return func(x *Client) {
		x.cache = cache
	}
}

// WithBaseURL points the client to a GitHub Enterprise Server or a test server.
func WithBaseURL(u *url.URL) Option {
	return func(x *Client) {
		v := *u
		if !strings.HasSuffix(v.Path, "/") {
			v.Path += "/"
		}
		x.baseURL = &v
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(x *Client) {
		x.httpClient = client
	}
}

func WithClock(now func() time.Time) Option {
	return func(x *Client) {
		x.now = now
	}
}

// New creates a GitHub App client. A missing app ID or an unusable private key is a
// configuration error.
func New(appID types.GitHubAppID, pem types.GitHubAppPrivateKey, options ...Option) (*Client, error) {
	if appID == 0 {
		return nil, goerr.Wrap(types.ErrConfiguration, "appID is empty")
	}
	if pem == "" {
		return nil, goerr.Wrap(types.ErrConfiguration, "pem is empty")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, goerr.Wrap(types.ErrConfiguration, "failed to parse private key", goerr.V("error", err.Error()))
	}

	client := &Client{
		appID:      appID,
		key:        key,
		cache:      tokencache.NewMemory(tokencache.DefaultMemorySize),
		httpClient: &http.Client{Transport: http.DefaultTransport},
		now:        time.Now,
	}
	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// GetToken returns an installation token, reusing the cached one while it is valid for more
// than TokenRefreshMargin. Exchange failures are returned as is; nothing is retried.
func (x *Client) GetToken(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
	if installID == 0 {
		return nil, goerr.Wrap(types.ErrValidationFailed, "installation ID is empty")
	}

	if tok := x.cachedToken(ctx, installID); tok != nil {
		return tok, nil
	}

	key := strconv.FormatInt(int64(installID), 10)
	v, err, _ := x.exchanges.Do(key, func() (any, error) {
		// a concurrent caller may have refreshed the entry while we waited
		if tok := x.cachedToken(ctx, installID); tok != nil {
			return tok, nil
		}

		tok, err := x.exchange(ctx, installID)
		if err != nil {
			return nil, err
		}

		if err := x.cache.Put(ctx, installID, tok, TokenCacheTTL); err != nil {
			logging.From(ctx).Warn("failed to cache installation token",
				slog.Any("installID", installID),
				slog.Any("error", err),
			)
		}
		return tok, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.InstallationToken), nil
}

func (x *Client) cachedToken(ctx context.Context, installID types.GitHubAppInstallID) *model.InstallationToken {
	tok, err := x.cache.Get(ctx, installID)
	if err != nil {
		logging.From(ctx).Warn("failed to read token cache", slog.Any("installID", installID), slog.Any("error", err))
		return nil
	}
	if !tok.UsableAt(x.now(), TokenRefreshMargin) {
		return nil
	}
	return tok
}

// signAssertion builds the short-lived app JWT used only for the token exchange.
func (x *Client) signAssertion() (string, error) {
	now := x.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-assertionBackdate)),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		Issuer:    strconv.FormatInt(int64(x.appID), 10),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(x.key)
	if err != nil {
		return "", goerr.Wrap(types.ErrConfiguration, "failed to sign app assertion", goerr.V("error", err.Error()))
	}
	return signed, nil
}

func (x *Client) exchange(ctx context.Context, installID types.GitHubAppInstallID) (*model.InstallationToken, error) {
	assertion, err := x.signAssertion()
	if err != nil {
		return nil, err
	}

	client := x.bearerClient(ctx, assertion)
	tok, resp, err := client.Apps.CreateInstallationToken(ctx, int64(installID), nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, goerr.Wrap(errors.Join(types.ErrAuth, err), "installation token exchange failed",
			goerr.V("installID", installID),
			goerr.V("status", status),
		)
	}
	if tok.GetToken() == "" {
		return nil, goerr.Wrap(types.ErrAuth, "installation token exchange returned an empty token",
			goerr.V("installID", installID),
		)
	}

	logging.From(ctx).Debug("exchanged installation token",
		slog.Any("installID", installID),
		slog.Time("expiresAt", tok.GetExpiresAt().Time),
	)

	return &model.InstallationToken{
		Token:     types.InstallationToken(tok.GetToken()),
		ExpiresAt: tok.GetExpiresAt().Time,
	}, nil
}

func (x *Client) bearerClient(ctx context.Context, token string) *github.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, x.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return x.withBaseURL(github.NewClient(oauth2.NewClient(ctx, ts)))
}

// appClient authenticates as the app itself for app-scoped endpoints.
func (x *Client) appClient() *github.Client {
	tr := x.httpClient.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}
	itr := ghinstallation.NewAppsTransportFromPrivateKey(tr, int64(x.appID), x.key)
	if x.baseURL != nil {
		itr.BaseURL = strings.TrimSuffix(x.baseURL.String(), "/")
	}
	return x.withBaseURL(github.NewClient(&http.Client{Transport: itr}))
}

func (x *Client) withBaseURL(client *github.Client) *github.Client {
	if x.baseURL != nil {
		client.BaseURL = x.baseURL
	}
	return client
}

func (x *Client) ListInstallationRepos(ctx context.Context, installID types.GitHubAppInstallID) ([]*model.Repository, error) {
	tok, err := x.GetToken(ctx, installID)
	if err != nil {
		return nil, err
	}
	client := x.bearerClient(ctx, string(tok.Token))

	var allRepos []*model.Repository
	opts := &github.ListOptions{PerPage: 100}

	for {
		result, resp, err := client.Apps.ListRepos(ctx, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list installation repos", goerr.V("installID", installID))
		}

		for _, repo := range result.Repositories {
			allRepos = append(allRepos, &model.Repository{
				ID:             types.GitHubRepoID(repo.GetID()),
				InstallationID: installID,
				Name:           repo.GetName(),
				FullName:       repo.GetFullName(),
				OwnerLogin:     repo.GetOwner().GetLogin(),
				Private:        repo.GetPrivate(),
				CloneURL:       repo.GetCloneURL(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logging.From(ctx).Info("Listed installation repos",
		slog.Int("count", len(allRepos)),
		slog.Any("installID", installID),
	)

	return allRepos, nil
}

func (x *Client) GetInstallation(ctx context.Context, installID types.GitHubAppInstallID) (*model.Installation, error) {
	inst, resp, err := x.appClient().Apps.GetInstallation(ctx, int64(installID))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, goerr.Wrap(types.ErrInstallationNotFound, "installation not found upstream", goerr.V("installID", installID))
		}
		return nil, goerr.Wrap(err, "failed to get installation", goerr.V("installID", installID))
	}

	return InstallationFromGitHub(inst)
}

func (x *Client) ListInstallations(ctx context.Context) ([]*model.Installation, error) {
	client := x.appClient()

	var all []*model.Installation
	opts := &github.ListOptions{PerPage: 100}
	for {
		result, resp, err := client.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list installations")
		}

		for _, inst := range result {
			v, err := InstallationFromGitHub(inst)
			if err != nil {
				return nil, err
			}
			all = append(all, v)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// InstallationFromGitHub converts an API or webhook installation object.
func InstallationFromGitHub(inst *github.Installation) (*model.Installation, error) {
	perms := map[string]string{}
	if p := inst.GetPermissions(); p != nil {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal installation permissions")
		}
		if err := json.Unmarshal(raw, &perms); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal installation permissions")
		}
	}

	return &model.Installation{
		ID:           types.GitHubAppInstallID(inst.GetID()),
		AccountID:    inst.GetAccount().GetID(),
		AccountLogin: inst.GetAccount().GetLogin(),
		AccountType:  inst.GetAccount().GetType(),
		Permissions:  perms,
		CreatedAt:    inst.GetCreatedAt().Time,
		UpdatedAt:    inst.GetUpdatedAt().Time,
	}, nil
}
