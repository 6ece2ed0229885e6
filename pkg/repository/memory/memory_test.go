package memory_test

import (
	"testing"

	"github.com/m-mizutani/octoexec/pkg/repository/memory"
	"github.com/m-mizutani/octoexec/pkg/repository/testhelper"
)

func TestMemoryStore(t *testing.T) {
	testhelper.TestAll(t, memory.New())
}
