//go:build !unix

package atlas

import "os/exec"

// killGroupOnCancel keeps the default kill of the direct child; WaitDelay
// still bounds the wait for inherited pipes.
func killGroupOnCancel(cmd *exec.Cmd) {}
