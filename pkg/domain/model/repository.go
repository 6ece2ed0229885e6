package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// Repository is a repository reachable through an installation.
type Repository struct {
	ID             types.GitHubRepoID       `json:"id"`
	InstallationID types.GitHubAppInstallID `json:"installation_id"`
	Name           string                   `json:"name"`
	FullName       string                   `json:"full_name"`
	OwnerLogin     string                   `json:"owner_login"`
	Private        bool                     `json:"private"`
	CloneURL       string                   `json:"clone_url"`
	CreatedAt      time.Time                `json:"created_at"`
}

func (x *Repository) Validate() error {
	if x.ID == 0 {
		return goerr.Wrap(types.ErrValidationFailed, "repository ID is empty")
	}
	if x.InstallationID == 0 {
		return goerr.Wrap(types.ErrValidationFailed, "installation ID is empty", goerr.V("repo", x.FullName))
	}
	if _, _, err := SplitFullName(x.FullName); err != nil {
		return err
	}
	if x.CloneURL == "" {
		return goerr.Wrap(types.ErrValidationFailed, "clone URL is empty", goerr.V("repo", x.FullName))
	}
	return nil
}

// SplitFullName splits "owner/name" into its parts.
func SplitFullName(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", goerr.Wrap(types.ErrValidationFailed, "repository must be in owner/name form", goerr.V("repository", fullName))
	}
	if owner == "." || owner == ".." || name == "." || name == ".." {
		return "", "", goerr.Wrap(types.ErrValidationFailed, "invalid repository name", goerr.V("repository", fullName))
	}
	return owner, name, nil
}
