package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external tools. ExecRunner is the real implementation; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecError is a tool that exited non-zero or left no output behind.
type ExecError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no output produced"
	}
	if e.ExitCode != 0 {
		return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Tool, msg)
}

// ExecRunner runs tools with os/exec. Cancelling the context kills the
// whole process group.
type ExecRunner struct{}

// Run executes name with args and captures its output. A non-zero exit is
// reported through Result.ExitCode, not as an error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("media: running %s: %w", name, err)
		}
		result.ExitCode = exitErr.ExitCode()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("media: %s: %w", name, ctxErr)
		}
	}
	return result, nil
}
