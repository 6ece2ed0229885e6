package config

import (
	"log/slog"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/interfaces"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
	"github.com/m-mizutani/octoexec/pkg/infra/ghapp"
	"github.com/urfave/cli/v3"
)

type GitHubApp struct {
	id         types.GitHubAppID
	secret     types.GitHubAppSecret     `masq:"secret"`
	privateKey types.GitHubAppPrivateKey `masq:"secret"`
	baseURL    string
}

func (x *GitHubApp) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Category:    "GitHub App",
			Destination: (*int64)(&x.id),
			Sources:     cli.EnvVars("OCTOEXEC_GITHUB_APP_ID"),
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App Private Key (PEM)",
			Category:    "GitHub App",
			Destination: (*string)(&x.privateKey),
			Sources:     cli.EnvVars("OCTOEXEC_GITHUB_APP_PRIVATE_KEY"),
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "github-app-secret",
			Usage:       "GitHub App Webhook Secret",
			Category:    "GitHub App",
			Destination: (*string)(&x.secret),
			Sources:     cli.EnvVars("OCTOEXEC_GITHUB_APP_SECRET"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise Server)",
			Category:    "GitHub App",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("OCTOEXEC_GITHUB_API_URL"),
		},
	}
}

func (x GitHubApp) New(cache interfaces.TokenCache) (*ghapp.Client, error) {
	var options []ghapp.Option
	if cache != nil {
		options = append(options, ghapp.WithTokenCache(cache))
	}
	if x.baseURL != "" {
		u, err := url.Parse(x.baseURL)
		if err != nil {
			return nil, goerr.Wrap(types.ErrConfiguration, "invalid GitHub API URL", goerr.V("url", x.baseURL))
		}
		options = append(options, ghapp.WithBaseURL(u))
	}

	return ghapp.New(x.id, x.privateKey, options...)
}

func (x GitHubApp) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("ID", int64(x.id)),
		slog.Int("Secret.len", len(x.secret)),
		slog.Int("privateKey.len", len(x.privateKey)),
		slog.String("baseURL", x.baseURL),
	)
}

func (x GitHubApp) Secret() types.GitHubAppSecret {
	return x.secret
}
