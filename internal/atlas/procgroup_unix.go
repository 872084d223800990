//go:build unix

package atlas

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts cmd as a process group leader and makes context
// cancellation signal the whole group.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
