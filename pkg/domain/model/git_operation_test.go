package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

func TestSplitFullName(t *testing.T) {
	t.Run("valid full name", func(t *testing.T) {
		owner, name, err := model.SplitFullName("octo/hello")
		gt.NoError(t, err)
		gt.V(t, owner).Equal("octo")
		gt.V(t, name).Equal("hello")
	})

	for _, v := range []string{"", "octo", "octo/", "/hello", "a/b/c", "../x", "octo/.."} {
		t.Run("invalid "+v, func(t *testing.T) {
			_, _, err := model.SplitFullName(v)
			gt.Error(t, err)
		})
	}
}

func TestSubmitOperationInputValidate(t *testing.T) {
	t.Run("clone with branch", func(t *testing.T) {
		input := &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello", Branch: "main"}
		gt.NoError(t, input.Validate())
	})

	t.Run("nested branch name", func(t *testing.T) {
		input := &model.SubmitOperationInput{Kind: types.OperationPull, Repository: "octo/hello", Branch: "feature/x"}
		gt.NoError(t, input.Validate())
	})

	t.Run("unknown type", func(t *testing.T) {
		input := &model.SubmitOperationInput{Kind: "fetch", Repository: "octo/hello"}
		gt.Error(t, input.Validate())
	})

	t.Run("branch that looks like an option", func(t *testing.T) {
		input := &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello", Branch: "--upload-pack=x"}
		gt.Error(t, input.Validate())
	})

	t.Run("branch with space", func(t *testing.T) {
		input := &model.SubmitOperationInput{Kind: types.OperationClone, Repository: "octo/hello", Branch: "a b"}
		gt.Error(t, input.Validate())
	})

	t.Run("commit requires message", func(t *testing.T) {
		input := &model.SubmitOperationInput{Kind: types.OperationCommit, Repository: "octo/hello"}
		gt.Error(t, input.Validate())
	})

	t.Run("commit with quoted message and files", func(t *testing.T) {
		input := &model.SubmitOperationInput{
			Kind:       types.OperationCommit,
			Repository: "octo/hello",
			Message:    `fix "quoted" thing`,
			Files:      []model.FileChange{{Path: "docs/README.md", Content: "hello"}},
		}
		gt.NoError(t, input.Validate())
	})

	t.Run("files outside the tree are rejected", func(t *testing.T) {
		for _, p := range []string{"../etc/passwd", "/etc/passwd", ".git/config", ""} {
			input := &model.SubmitOperationInput{
				Kind:       types.OperationCommit,
				Repository: "octo/hello",
				Message:    "m",
				Files:      []model.FileChange{{Path: p}},
			}
			gt.Error(t, input.Validate())
		}
	})

	t.Run("files only for commit", func(t *testing.T) {
		input := &model.SubmitOperationInput{
			Kind:       types.OperationPush,
			Repository: "octo/hello",
			Files:      []model.FileChange{{Path: "a.txt"}},
		}
		gt.Error(t, input.Validate())
	})
}

func TestInstallationTokenUsableAt(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	margin := 5 * time.Minute

	tok := &model.InstallationToken{Token: "t", ExpiresAt: now.Add(6 * time.Minute)}
	gt.True(t, tok.UsableAt(now, margin))

	tok.ExpiresAt = now.Add(5 * time.Minute)
	gt.False(t, tok.UsableAt(now, margin))

	var nilTok *model.InstallationToken
	gt.False(t, nilTok.UsableAt(now, margin))

	gt.False(t, (&model.InstallationToken{ExpiresAt: now.Add(time.Hour)}).UsableAt(now, margin))
}
