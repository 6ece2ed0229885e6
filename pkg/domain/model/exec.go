package model

// ExecRequest is the execution worker request body.
type ExecRequest struct {
	Command    []string          `json:"command"`
	Env        map[string]string `json:"env,omitempty" masq:"secret"`
	WorkingDir string            `json:"workingDir,omitempty"`
	TimeoutMs  int64             `json:"timeoutMs,omitempty"`
}

// ExecResult is the execution worker response body.
type ExecResult struct {
	ExitCode   int    `json:"exitCode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
	// Timeout is set only by the worker when it terminated the command on its time limit.
	Timeout bool `json:"timedOut,omitempty"`
}

// TimeoutExitCode is reported when the worker terminated a command on timeout.
const TimeoutExitCode = 124

// TimedOut reports whether the worker stopped the command on its time limit. A command that
// exits 124 by itself is an ordinary failure.
func (x *ExecResult) TimedOut() bool {
	return x.Timeout
}

func (x *ExecResult) Succeeded() bool {
	return x.ExitCode == 0 && x.Error == ""
}
