package usecase

import (
	"context"

	"github.com/m-mizutani/octoexec/pkg/domain/model"
)

// Export unexported functions for testing
var (
	ShellQuoteForTest      = shellQuote
	TruncateForTest        = truncate
	FailureMessageForTest  = failureMessage
	CredentialEnvForTest   = credentialEnv
	MaxResultLengthForTest = maxResultLength
)

// BuildCommandForTest returns the command and working directory of an operation.
func (x *UseCase) BuildCommandForTest(op *model.GitOperation, repo *model.Repository, input *model.SubmitOperationInput) ([]string, string, error) {
	dir, err := x.checkoutDir(repo)
	if err != nil {
		return nil, "", err
	}
	cmd, wd := commandBuilders[op.Kind](x, &commandInput{op: op, repo: repo, input: input, dir: dir})
	return cmd, wd, nil
}

func (x *UseCase) RepoLocksForTest() *KeyedMutexForTest {
	return (*KeyedMutexForTest)(x.repoLocks)
}

type KeyedMutexForTest keyedMutex

func NewKeyedMutexForTest() *KeyedMutexForTest {
	return (*KeyedMutexForTest)(newKeyedMutex())
}

func (x *KeyedMutexForTest) Size() int {
	return (*keyedMutex)(x).size()
}

func (x *KeyedMutexForTest) Lock(ctx context.Context, key string) (func(), error) {
	return (*keyedMutex)(x).Lock(ctx, key)
}
