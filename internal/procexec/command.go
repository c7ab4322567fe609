package procexec

import (
	"context"
	"io"
	"strings"
	"time"
)

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. Empty uses the current directory.
	Dir string
	// Env is additional environment variables (key=value) merged with os.Environ.
	Env []string
	// Stdout and Stderr receive the tool's output as it is produced. When nil
	// the output is only captured.
	Stdout io.Writer
	Stderr io.Writer
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

// Result holds the status of a completed subprocess.
type Result struct {
	// Output is the tail of combined stdout and stderr.
	Output string
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Runner executes commands. Implementations block until the command exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// String renders the command line with POSIX shell quoting. It exists for
// logs and error messages; nothing executes this string.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, Quote(c.Binary))
	for _, arg := range c.Args {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}

// PathArg returns path in a form a tool cannot parse as an option. Relative
// paths starting with "-" gain a "./" prefix; other paths are unchanged.
func PathArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "./" + path
	}
	return path
}

// Quote returns value quoted for a POSIX shell when it contains characters a
// shell would interpret.
func Quote(value string) string {
	if value == "" {
		return "''"
	}
	safe := true
	for _, r := range value {
		if !isSafeRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=,+@%", r)
}
