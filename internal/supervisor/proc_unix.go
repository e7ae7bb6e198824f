//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own session so it survives the parent CLI
// invocation exiting.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

func alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
