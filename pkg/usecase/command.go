package usecase

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

const (
	// EnvAccessToken carries the installation token to the credential helper.
	EnvAccessToken = "GIT_ACCESS_TOKEN"

	credentialHelper = `!f() { test "$1" = get && echo username=x-access-token && echo "password=$` + EnvAccessToken + `"; }; f`

	nothingToCommit = "nothing to commit, working tree clean"
)

// commandInput is what a command builder needs to know about an operation.
type commandInput struct {
	op    *model.GitOperation
	repo  *model.Repository
	input *model.SubmitOperationInput
	// dir is the checkout directory of the repository on the execution worker.
	dir string
}

// commandBuilder returns the argv and the working directory of an operation.
type commandBuilder func(x *UseCase, in *commandInput) (command []string, workingDir string)

var commandBuilders = map[types.OperationKind]commandBuilder{
	types.OperationClone:  buildCloneCommand,
	types.OperationPull:   buildPullCommand,
	types.OperationPush:   buildPushCommand,
	types.OperationCommit: buildCommitCommand,
}

func buildCloneCommand(_ *UseCase, in *commandInput) ([]string, string) {
	cmd := []string{"git", "clone", "--depth", "1"}
	if in.op.Branch != "" {
		cmd = append(cmd, "--branch", in.op.Branch)
	}
	cmd = append(cmd, in.repo.CloneURL, in.dir)
	return cmd, filepath.Dir(in.dir)
}

func buildPullCommand(_ *UseCase, in *commandInput) ([]string, string) {
	if in.op.Branch == "" {
		return []string{"git", "pull"}, in.dir
	}
	return []string{"git", "pull", "origin", in.op.Branch}, in.dir
}

func buildPushCommand(_ *UseCase, in *commandInput) ([]string, string) {
	return []string{"git", "push", "origin", pushRefspec(in.op.Branch)}, in.dir
}

// buildCommitCommand runs a compound script: bot identity, file writes, stage, then commit and push
// only when something is staged. Every caller-supplied value is single-quoted.
func buildCommitCommand(x *UseCase, in *commandInput) ([]string, string) {
	lines := []string{
		"set -e",
		"git config user.name " + shellQuote(x.botName),
		"git config user.email " + shellQuote(x.botEmail),
	}

	if in.input != nil {
		for _, f := range in.input.Files {
			p := path.Clean(f.Path)
			if d := path.Dir(p); d != "." {
				lines = append(lines, "mkdir -p "+shellQuote(d))
			}
			lines = append(lines, "printf '%s' "+shellQuote(f.EncodedContent())+" | base64 -d > "+shellQuote(p))
		}
	}

	message := ""
	if in.input != nil {
		message = in.input.Message
	}

	lines = append(lines,
		"git add -A",
		"if git diff --cached --quiet; then echo "+shellQuote(nothingToCommit)+"; else git commit -m "+shellQuote(message)+
			" && git push origin "+shellQuote(pushRefspec(in.op.Branch))+"; fi",
	)

	return []string{"sh", "-c", strings.Join(lines, "\n")}, in.dir
}

func pushRefspec(branch string) string {
	if branch == "" {
		return "HEAD"
	}
	return "HEAD:refs/heads/" + branch
}

// shellQuote wraps s in single quotes for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// credentialEnv registers a credential helper through GIT_CONFIG_* so that the token never
// appears in a URL or in argv.
func credentialEnv(token types.InstallationToken) map[string]string {
	return map[string]string{
		EnvAccessToken:        string(token),
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_CONFIG_COUNT":    "1",
		"GIT_CONFIG_KEY_0":    "credential.helper",
		"GIT_CONFIG_VALUE_0":  credentialHelper,
	}
}

// checkoutDir is <workspace-root>/<owner>/<name>.
func (x *UseCase) checkoutDir(repo *model.Repository) (string, error) {
	owner, name, err := model.SplitFullName(repo.FullName)
	if err != nil {
		return "", err
	}
	return filepath.Join(x.workspaceRoot, owner, name), nil
}
