//go:build windows

package supervisor

import (
	"os"
	"os/exec"
)

func detach(cmd *exec.Cmd) {}

// terminate kills the process outright; Windows has no SIGTERM equivalent
// for console-less children.
func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// On Windows FindProcess opens a handle and fails for exited processes.
func alive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
