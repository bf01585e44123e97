package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// DefaultBashTimeout bounds a shell command's wall-clock duration when
// the caller does not override it.
const DefaultBashTimeout = 30 * time.Second

// Bash runs a shell command in the session working directory with a
// bounded lifetime.
type Bash struct {
	ws *Workspace
}

func NewBash(ws *Workspace) *Bash { return &Bash{ws: ws} }

func (t *Bash) Name() string { return "bash" }

func (t *Bash) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Run a shell command in the working directory. Output combines stdout and stderr; a non-zero exit code is reported in the result, not treated as a tool failure.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "Command to execute",
				},
				"timeout": map[string]any{
					"type":        "number",
					"description": "Timeout in seconds (default 30)",
				},
			},
			"required": []string{"command"},
		},
	}
}

// syncBuffer serializes writes so stdout and stderr can share one
// combined buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (t *Bash) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	command, argErr := StringArg(args, "command")
	if argErr != nil {
		return nil, argErr
	}
	timeoutSec, argErr := OptIntArg(args, "timeout", 0)
	if argErr != nil {
		return nil, argErr
	}

	timeout := DefaultBashTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "bash", "-c", command)
	cmd.Dir = t.ws.Root

	// Background children inherit the output pipes; without a wait
	// delay, Wait would block on them long after the shell itself is
	// gone.
	cmd.WaitDelay = time.Second

	var out syncBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()

	// A deadline hit means the process was forcibly terminated; report
	// the timeout along with whatever output was captured.
	if cmdCtx.Err() == context.DeadlineExceeded {
		return nil, Errorf(KindTimeout,
			"command timed out after %s; partial output:\n%s", timeout, out.String())
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(runErr, exec.ErrWaitDelay):
			// The shell exited but a background child still holds the
			// output pipe; the captured output stands.
		case errors.As(runErr, &exitErr):
			// Non-zero exit is a legitimate outcome (failing tests,
			// grep without matches); the caller interprets it.
			exitCode = exitErr.ExitCode()
		default:
			return nil, Errorf(KindExecFailure, "cannot run command: %v", runErr)
		}
	}

	content := out.String()
	if content == "" {
		if exitCode == 0 {
			content = "command completed with no output"
		} else {
			content = fmt.Sprintf("exit code %d (no output)", exitCode)
		}
	}

	return &Result{
		Content: content,
		Data: map[string]any{
			"command":   command,
			"exit_code": exitCode,
		},
	}, nil
}
