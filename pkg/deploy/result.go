package deploy

import (
	"errors"
	"fmt"

	"stevedore/pkg/status"
)

// Exit codes reported by the deploy command, one per failure class.
const (
	ExitOK                 = 0
	ExitError              = 1
	ExitRuntimeUnavailable = 2
	ExitBuildFailed        = 3
	ExitUnreachable        = 4
)

var (
	// ErrRuntimeUnavailable means the container engine could not be reached
	// or started within the wait budget.
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
	// ErrBuildFailed means the image build or the container start failed.
	ErrBuildFailed = errors.New("build failed")
	// ErrUnreachable means the service never answered correctly on its
	// published port.
	ErrUnreachable = errors.New("service unreachable")
)

// Result is the outcome of a single deployment run. It lives only for the
// lifetime of the command; nothing is persisted.
type Result struct {
	RunID     string       `json:"run_id"`
	Service   string       `json:"service"`
	Phase     status.Phase `json:"phase"`
	Succeeded bool         `json:"succeeded"`
	Message   string       `json:"message"`
	ExitCode  int          `json:"exit_code"`
	URL       string       `json:"url,omitempty"`
	Output    string       `json:"output,omitempty"`
}

// BuildError carries the tool output that explains why the build or start
// failed.
type BuildError struct {
	Output string
	Err    error
}

func newBuildError(output []byte, cause error) *BuildError {
	return &BuildError{
		Output: string(output),
		Err:    fmt.Errorf("%w: %v", ErrBuildFailed, cause),
	}
}

func (e *BuildError) Error() string {
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// VerifyError carries a tail of the container's logs so a failed
// verification points at what the service actually did.
type VerifyError struct {
	Logs string
	Err  error
}

func newVerifyError(logs string, cause error) *VerifyError {
	return &VerifyError{
		Logs: logs,
		Err:  fmt.Errorf("%w: %v", ErrUnreachable, cause),
	}
}

func (e *VerifyError) Error() string {
	return e.Err.Error()
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// ExitCodeFor maps a deployment error onto the command's exit code contract.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrRuntimeUnavailable):
		return ExitRuntimeUnavailable
	case errors.Is(err, ErrBuildFailed):
		return ExitBuildFailed
	case errors.Is(err, ErrUnreachable):
		return ExitUnreachable
	default:
		return ExitError
	}
}
