package model

import (
	"encoding/base64"
	"path"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// GitOperation is one requested git action and its lifecycle record.
type GitOperation struct {
	ID           types.OperationID     `json:"id"`
	Kind         types.OperationKind   `json:"type"`
	RepositoryID types.GitHubRepoID    `json:"repository_id"`
	Repository   string                `json:"repository"`
	Branch       string                `json:"branch,omitempty"`
	Status       types.OperationStatus `json:"status"`
	Result       string                `json:"result"`
	CreatedAt    time.Time             `json:"created_at"`
	CompletedAt  *time.Time            `json:"completed_at"`
}

// FileChange is a file written into the working directory before a commit.
// Content is carried verbatim; Path must be relative and stay inside the checkout.
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (x FileChange) Validate() error {
	if x.Path == "" {
		return goerr.Wrap(types.ErrValidationFailed, "file path is empty")
	}
	clean := path.Clean(x.Path)
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, ".git/") || clean == ".git" {
		return goerr.Wrap(types.ErrValidationFailed, "file path must stay inside the working tree", goerr.V("path", x.Path))
	}
	return nil
}

func (x FileChange) EncodedContent() string {
	return base64.StdEncoding.EncodeToString([]byte(x.Content))
}

// SubmitOperationInput is a client request for a new operation.
type SubmitOperationInput struct {
	Kind       types.OperationKind `json:"type"`
	Repository string              `json:"repository"`
	Branch     string              `json:"branch,omitempty"`
	Message    string              `json:"message,omitempty"`
	Files      []FileChange        `json:"files,omitempty"`
}

func (x *SubmitOperationInput) Validate() error {
	if err := x.Kind.Validate(); err != nil {
		return err
	}
	if _, _, err := SplitFullName(x.Repository); err != nil {
		return err
	}
	if x.Branch != "" && !validBranchName(x.Branch) {
		return goerr.Wrap(types.ErrValidationFailed, "invalid branch name", goerr.V("branch", x.Branch))
	}

	switch x.Kind {
	case types.OperationCommit:
		if strings.TrimSpace(x.Message) == "" {
			return goerr.Wrap(types.ErrValidationFailed, "commit message is required")
		}
		for _, f := range x.Files {
			if err := f.Validate(); err != nil {
				return err
			}
		}
	default:
		if len(x.Files) > 0 {
			return goerr.Wrap(types.ErrValidationFailed, "files are only accepted for commit", goerr.V("type", x.Kind))
		}
	}

	return nil
}

func validBranchName(b string) bool {
	if strings.HasPrefix(b, "-") || strings.HasPrefix(b, "/") || strings.HasSuffix(b, "/") ||
		strings.HasSuffix(b, ".lock") || strings.Contains(b, "..") || strings.Contains(b, "@{") {
		return false
	}
	for _, r := range b {
		if r <= ' ' || r == 0x7f || strings.ContainsRune("~^:?*[\\", r) {
			return false
		}
	}
	return true
}
