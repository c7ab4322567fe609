package procexec

import (
	"fmt"
	"strings"
)

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Command)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
