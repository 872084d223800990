package atlas

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// ExecResult holds the outcome of a single tool invocation.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int  // -1 when the process never ran or was killed.
	Started  bool // False when the executable could not be spawned.
	Err      error
	TimedOut bool
}

// waitDelay bounds how long Execute waits for the output pipes after the
// tool is killed, in case a grandchild escaped the process group.
const waitDelay = 5 * time.Second

// ExecOptions tunes one invocation.
type ExecOptions struct {
	Timeout time.Duration // 0 disables the timeout.
	Echo    io.Writer     // When set, stderr is also copied here live.
}

// Execute runs args[0] with args[1:] and captures both streams. A non-zero
// exit is reported through Err (an *exec.ExitError) and ExitCode. The tool
// runs in its own process group and cancellation kills the whole group, so
// helpers it spawned cannot hold the pipes open past the timeout.
func Execute(ctx context.Context, args []string, opts ExecOptions) ExecResult {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	killGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	if opts.Echo != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, opts.Echo)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	res := ExecResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: -1,
		Err:      err,
	}
	if cmd.ProcessState != nil {
		res.Started = true
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
	}
	return res
}
