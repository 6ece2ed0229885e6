package types

import "log/slog"

type (
	GitHubAppID         int64
	GitHubAppInstallID  int64
	GitHubAppSecret     string
	GitHubAppPrivateKey string
	GitHubRepoID        int64

	// InstallationToken is a short-lived credential scoped to one installation.
	InstallationToken string
)

func (x GitHubAppSecret) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x GitHubAppSecret) String() string {
	return "***********"
}

func (x GitHubAppPrivateKey) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x GitHubAppPrivateKey) String() string {
	return "***********"
}

func (x InstallationToken) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x InstallationToken) String() string {
	return "***********"
}
